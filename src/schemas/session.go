package schemas

import "time"

// CreateRequestBody is the customer intake payload.
type CreateRequestBody struct {
	CustomerID  string `json:"customer_id" binding:"required"`
	SessionType string `json:"session_type" binding:"required"`
	PlanCode    string `json:"plan_code" binding:"required"`
}

// AcceptRequestBody identifies the claiming mechanic.
type AcceptRequestBody struct {
	MechanicID string `json:"mechanic_id" binding:"required"`
}

// UpdateSessionStatusBody is the payload for a gated status transition.
type UpdateSessionStatusBody struct {
	Status string `json:"status" binding:"required"`
}

// CreateScheduledSessionBody describes a directly booked session.
type CreateScheduledSessionBody struct {
	CustomerID     string     `json:"customer_id" binding:"required"`
	MechanicID     *string    `json:"mechanic_id"`
	Plan           string     `json:"plan" binding:"required"`
	Type           string     `json:"type" binding:"required"`
	ScheduledStart *time.Time `json:"scheduled_start"`
	ScheduledEnd   *time.Time `json:"scheduled_end"`
}

// SetAvailabilityBody toggles a mechanic's availability.
type SetAvailabilityBody struct {
	Available *bool `json:"available" binding:"required"`
}

// CancelResponse wraps an idempotent cancel outcome.
type CancelResponse struct {
	AlreadyTerminal bool `json:"already_terminal"`
	Entity          any  `json:"entity"`
}
