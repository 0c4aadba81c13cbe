package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"session-service/src/events"
	"session-service/src/models"
	"session-service/src/store"
)

// ShiftChecker reports whether a mechanic is currently on shift. A nil
// checker disables the presence requirement.
type ShiftChecker interface {
	OnShift(ctx context.Context, mechanicID string) (bool, error)
}

// Arbiter resolves the race between mechanics claiming the same request.
// Exactly one Accept per request ever succeeds; the loser sees
// models.ErrAlreadyClaimed and no session is created for them.
type Arbiter struct {
	requests  store.RequestStore
	sessions  store.SessionStore
	mechanics store.MechanicStore
	capacity  *CapacityGuard
	shifts    ShiftChecker
	emitter   events.Emitter
	now       func() time.Time
}

// NewArbiter creates an assignment arbiter. shifts may be nil.
func NewArbiter(
	requests store.RequestStore,
	sessions store.SessionStore,
	mechanics store.MechanicStore,
	capacity *CapacityGuard,
	shifts ShiftChecker,
	emitter events.Emitter,
) *Arbiter {
	return &Arbiter{
		requests:  requests,
		sessions:  sessions,
		mechanics: mechanics,
		capacity:  capacity,
		shifts:    shifts,
		emitter:   emitter,
		now:       time.Now,
	}
}

// Accept atomically claims a pending request for a mechanic and creates the
// bound session. Preconditions are checked without side effects; the claim
// itself is a single conditional write, and a capacity violation detected at
// session creation rolls the claim back.
func (a *Arbiter) Accept(ctx context.Context, requestID, mechanicID string) (*models.Session, error) {
	now := a.now()

	mech, err := a.mechanics.Get(ctx, mechanicID)
	if err != nil {
		return nil, err
	}
	if !mech.CanAcceptSessions {
		return nil, models.ErrMechanicIneligible
	}
	if a.shifts != nil {
		onShift, err := a.shifts.OnShift(ctx, mechanicID)
		if err != nil {
			return nil, fmt.Errorf("failed to check mechanic shift: %w", err)
		}
		if !onShift {
			return nil, models.ErrMechanicIneligible
		}
	}

	hasCapacity, err := a.capacity.HasCapacity(ctx, mechanicID)
	if err != nil {
		return nil, err
	}
	if !hasCapacity {
		return nil, models.ErrCapacityExceeded
	}

	req, err := a.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.ExpiredAt(now) {
		return nil, models.ErrRequestExpired
	}
	if req.Status != models.RequestPending {
		return nil, models.ErrAlreadyClaimed
	}

	// The compare-and-swap. If another mechanic or the sweeper got here
	// first, zero rows change and we lost the race.
	claimed, err := a.requests.Claim(ctx, requestID, mechanicID, now)
	if err != nil {
		return nil, err
	}
	if !claimed {
		// Distinguish a lost race from an expiry that just happened.
		current, gerr := a.requests.Get(ctx, requestID)
		if gerr == nil && current.Status == models.RequestExpired {
			return nil, models.ErrRequestExpired
		}
		return nil, models.ErrAlreadyClaimed
	}

	session := &models.Session{
		ID:         uuid.New().String(),
		RequestID:  &req.ID,
		CustomerID: req.CustomerID,
		MechanicID: &mechanicID,
		Status:     models.SessionAccepted,
		Plan:       req.PlanCode,
		Type:       req.SessionType,
		Metadata: map[string]any{
			"accepted_by_mechanic": mechanicID,
			"accepted_at":          now.UTC().Format(time.RFC3339),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := a.sessions.Create(ctx, session); err != nil {
		// The claim went through but the session cannot exist: undo the
		// claim so the request is claimable again.
		if rerr := a.requests.Release(ctx, requestID); rerr != nil {
			slog.Error("Failed to release claim after session creation failure",
				"request_id", requestID,
				"mechanic_id", mechanicID,
				"error", rerr)
		}
		if errors.Is(err, models.ErrCapacityExceeded) {
			return nil, models.ErrCapacityExceeded
		}
		return nil, fmt.Errorf("failed to create session for request %s: %w", requestID, err)
	}

	slog.Info("Request accepted",
		"request_id", requestID,
		"mechanic_id", mechanicID,
		"session_id", session.ID)

	a.emitter.Emit(ctx, events.Event{
		Type:      events.RequestAccepted,
		RequestID: requestID,
		SessionID: session.ID,
		Payload: map[string]any{
			"mechanic_id": mechanicID,
			"customer_id": req.CustomerID,
			"plan":        req.PlanCode,
			"type":        req.SessionType,
		},
	})

	return session, nil
}
