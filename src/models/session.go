package models

import "time"

// SessionStatus represents the status of a session
type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionWaiting   SessionStatus = "waiting"
	SessionAccepted  SessionStatus = "accepted"
	SessionLive      SessionStatus = "live"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
	SessionExpired   SessionStatus = "expired"
)

// Terminal reports whether no further session transitions are legal.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionCancelled || s == SessionExpired
}

// NonTerminalSessionStatuses is the set of statuses that count against a
// mechanic's capacity. Order matches the uniq_mech_one_active index predicate.
var NonTerminalSessionStatuses = []SessionStatus{
	SessionPending, SessionWaiting, SessionAccepted, SessionLive,
}

// Stale windows for sessions that never went live, measured from creation.
// Values come from the production cleanup cadence: a customer waits at most
// 15 minutes for a claim, a mechanic who accepted gets 30 minutes to start.
const (
	PendingStaleAfter  = 15 * time.Minute
	AcceptedStaleAfter = 30 * time.Minute
	OrphanStaleAfter   = 2 * time.Hour
)

// Session is the bound unit of work between a customer and a mechanic.
// RequestID is nil for directly booked (scheduled) sessions.
type Session struct {
	ID             string         `json:"id"`
	RequestID      *string        `json:"request_id,omitempty"`
	CustomerID     string         `json:"customer_id"`
	MechanicID     *string        `json:"mechanic_id,omitempty"`
	Status         SessionStatus  `json:"status"`
	Plan           string         `json:"plan"`
	Type           SessionType    `json:"type"`
	StartedAt      *time.Time     `json:"started_at,omitempty"`
	EndedAt        *time.Time     `json:"ended_at,omitempty"`
	ScheduledStart *time.Time     `json:"scheduled_start,omitempty"`
	ScheduledEnd   *time.Time     `json:"scheduled_end,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Deadline is the instant after which the sweeper considers the session
// overdue. Booked sessions run until their scheduled end; started sessions
// until plan duration plus recorded extensions; sessions that never started
// go stale on a fixed window from creation.
func (s *Session) Deadline() time.Time {
	if s.ScheduledEnd != nil {
		return *s.ScheduledEnd
	}
	if s.StartedAt != nil {
		return s.StartedAt.Add(PlanDuration(s.Plan) + s.ExtensionDuration())
	}
	if s.Status == SessionAccepted {
		return s.CreatedAt.Add(AcceptedStaleAfter)
	}
	return s.CreatedAt.Add(PendingStaleAfter)
}

// ExtensionDuration reads accumulated duration extensions from metadata.
// Extensions are stored under "extension_minutes"; JSON decoding yields
// float64, direct construction may use int.
func (s *Session) ExtensionDuration() time.Duration {
	v, ok := s.Metadata["extension_minutes"]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return time.Duration(n) * time.Minute
	case int:
		return time.Duration(n) * time.Minute
	case int64:
		return time.Duration(n) * time.Minute
	default:
		return 0
	}
}
