// Package store defines how requests, sessions and mechanics are persisted.
// Every mutation that races with another writer is expressed as a conditional
// write: the update applies only if the row still holds the expected prior
// state, and the boolean result tells the caller whether the guard held.
// Implementations never do read-then-write for these operations.
package store

import (
	"context"
	"time"

	"session-service/src/models"
)

// RequestStore persists session requests. Requests are never deleted, only
// terminalized.
type RequestStore interface {
	Create(ctx context.Context, req *models.SessionRequest) error

	// Get returns models.ErrRequestNotFound when the ID is unknown.
	Get(ctx context.Context, id string) (*models.SessionRequest, error)

	// ListPending returns pending requests ordered oldest first, for the
	// mechanic dashboard poll.
	ListPending(ctx context.Context) ([]models.SessionRequest, error)

	// Claim is the compare-and-swap at the heart of assignment: it moves the
	// request to accepted and binds the mechanic only if the stored status is
	// still pending and no mechanic is bound. Returns false when the guard
	// failed, i.e. another claimant or the sweeper won.
	Claim(ctx context.Context, id, mechanicID string, at time.Time) (bool, error)

	// Release undoes a claim whose session creation failed, returning the
	// request to pending so another mechanic can take it.
	Release(ctx context.Context, id string) error

	// Transition conditionally moves the request from one status to another.
	Transition(ctx context.Context, id string, from, to models.RequestStatus) (bool, error)

	// ExpiredPending returns pending requests whose claim deadline has passed.
	ExpiredPending(ctx context.Context, at time.Time) ([]models.SessionRequest, error)
}

// SessionStore persists sessions. Sessions are never deleted, only
// terminalized.
type SessionStore interface {
	// Create inserts a new session. When the session binds a mechanic who
	// already holds a non-terminal session it returns
	// models.ErrCapacityExceeded and inserts nothing.
	Create(ctx context.Context, s *models.Session) error

	// Get returns models.ErrSessionNotFound when the ID is unknown.
	Get(ctx context.Context, id string) (*models.Session, error)

	// Transition conditionally moves the session from one status to another,
	// stamping started_at on the move to live and ended_at on the move to a
	// terminal status (each at most once). Returns false when the stored
	// status no longer equals from.
	Transition(ctx context.Context, id string, from, to models.SessionStatus, at time.Time) (bool, error)

	// ActiveCountByMechanic counts the mechanic's non-terminal sessions.
	ActiveCountByMechanic(ctx context.Context, mechanicID string) (int, error)

	// ActiveByCustomer returns the customer's most recent non-terminal
	// session, or nil when there is none.
	ActiveByCustomer(ctx context.Context, customerID string) (*models.Session, error)

	// ListNonTerminal returns every session that may still transition.
	ListNonTerminal(ctx context.Context) ([]models.Session, error)

	// OverCapacityMechanics lists mechanics holding more than one
	// non-terminal session. A non-empty result is a defect report.
	OverCapacityMechanics(ctx context.Context) ([]MechanicLoad, error)
}

// MechanicLoad is one row of the capacity reconciliation report.
type MechanicLoad struct {
	MechanicID     string `json:"mechanic_id"`
	ActiveSessions int    `json:"active_sessions"`
}

// MechanicStore reads the capacity view of mechanics.
type MechanicStore interface {
	// Get returns models.ErrMechanicNotFound when the ID is unknown.
	Get(ctx context.Context, id string) (*models.Mechanic, error)

	SetAvailability(ctx context.Context, id string, canAccept bool) error
}
