package models

import "time"

// RequestStatus represents the status of a session request
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestAccepted  RequestStatus = "accepted"
	RequestExpired   RequestStatus = "expired"
	RequestCancelled RequestStatus = "cancelled"
)

// Terminal reports whether no further request transitions are legal.
func (s RequestStatus) Terminal() bool {
	return s == RequestExpired || s == RequestCancelled
}

// SessionType is the kind of help the customer is asking for.
type SessionType string

const (
	TypeChat       SessionType = "chat"
	TypeVideo      SessionType = "video"
	TypeDiagnostic SessionType = "diagnostic"
)

// Valid reports whether the type is one the service knows how to run.
func (t SessionType) Valid() bool {
	switch t {
	case TypeChat, TypeVideo, TypeDiagnostic:
		return true
	}
	return false
}

// SessionRequest is a customer's open ask for help. It stays claimable until
// ExpiresAt; exactly one mechanic may claim it.
type SessionRequest struct {
	ID          string        `json:"id"`
	CustomerID  string        `json:"customer_id"`
	SessionType SessionType   `json:"session_type"`
	PlanCode    string        `json:"plan_code"`
	Status      RequestStatus `json:"status"`
	MechanicID  *string       `json:"mechanic_id,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	ExpiresAt   time.Time     `json:"expires_at"`
	AcceptedAt  *time.Time    `json:"accepted_at,omitempty"`
}

// ExpiredAt reports whether the claim window has closed as of now, regardless
// of whether the sweeper has stamped the row yet.
func (r *SessionRequest) ExpiredAt(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}
