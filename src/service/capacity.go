package service

import (
	"context"
	"fmt"

	"session-service/src/store"
)

// CapacityGuard enforces the one-active-session-per-mechanic invariant. The
// database's partial unique index is the backstop; this guard lets callers
// fail fast before attempting a claim.
type CapacityGuard struct {
	sessions store.SessionStore
}

// NewCapacityGuard creates a capacity guard over the session store.
func NewCapacityGuard(sessions store.SessionStore) *CapacityGuard {
	return &CapacityGuard{sessions: sessions}
}

// HasCapacity reports whether the mechanic holds zero non-terminal sessions.
func (g *CapacityGuard) HasCapacity(ctx context.Context, mechanicID string) (bool, error) {
	count, err := g.sessions.ActiveCountByMechanic(ctx, mechanicID)
	if err != nil {
		return false, fmt.Errorf("failed to check mechanic capacity: %w", err)
	}
	return count == 0, nil
}

// Reconcile lists mechanics whose active-session count violates the
// invariant. Defect detection for administrative cleanup, not a normal-path
// check.
func (g *CapacityGuard) Reconcile(ctx context.Context) ([]store.MechanicLoad, error) {
	return g.sessions.OverCapacityMechanics(ctx)
}
