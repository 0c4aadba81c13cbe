package models

import "time"

// Mechanic is the capacity view of a mechanic. Whether they may take work is
// the conjunction of the admin-controlled flag here and the on-shift presence
// marker; how many sessions they hold is derived from the sessions table.
type Mechanic struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	CanAcceptSessions bool      `json:"can_accept_sessions"`
	CreatedAt         time.Time `json:"created_at"`
}
