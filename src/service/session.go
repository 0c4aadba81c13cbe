package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"session-service/src/events"
	"session-service/src/fsm"
	"session-service/src/models"
	"session-service/src/store"
)

// SessionService applies state-machine-gated transitions to sessions. All
// writes go through the store's conditional update; a guard failure is a
// conflict, never silently retried.
type SessionService struct {
	sessions store.SessionStore
	emitter  events.Emitter
	now      func() time.Time
}

// NewSessionService creates a session service.
func NewSessionService(sessions store.SessionStore, emitter events.Emitter) *SessionService {
	return &SessionService{
		sessions: sessions,
		emitter:  emitter,
		now:      time.Now,
	}
}

// Get returns a session by ID.
func (s *SessionService) Get(ctx context.Context, id string) (*models.Session, error) {
	return s.sessions.Get(ctx, id)
}

// ScheduledSessionParams describes a directly booked session.
type ScheduledSessionParams struct {
	CustomerID     string
	MechanicID     *string
	Plan           string
	Type           models.SessionType
	ScheduledStart *time.Time
	ScheduledEnd   *time.Time
}

// CreateScheduled creates a session outside the request flow, e.g. a booked
// appointment. The session starts in pending; the capacity rule still applies
// when a mechanic is bound at creation.
func (s *SessionService) CreateScheduled(ctx context.Context, params ScheduledSessionParams) (*models.Session, error) {
	now := s.now()
	session := &models.Session{
		ID:             uuid.New().String(),
		CustomerID:     params.CustomerID,
		MechanicID:     params.MechanicID,
		Status:         models.SessionPending,
		Plan:           params.Plan,
		Type:           params.Type,
		ScheduledStart: params.ScheduledStart,
		ScheduledEnd:   params.ScheduledEnd,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	slog.Info("Created scheduled session",
		"session_id", session.ID,
		"customer_id", params.CustomerID)

	return session, nil
}

// Transition moves a session to the requested status if the state machine
// allows it from the currently stored status. Requesting the status the
// session already has is an idempotent no-op.
func (s *SessionService) Transition(ctx context.Context, id string, to models.SessionStatus) (*models.Session, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if session.Status == to {
		return session, nil
	}

	if err := fsm.AssertSession(session.Status, to); err != nil {
		return nil, err
	}

	now := s.now()
	ok, err := s.sessions.Transition(ctx, id, session.Status, to, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrConflict
	}

	updated, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.emitTransition(ctx, updated, "")
	return updated, nil
}

// Cancel terminalizes a session on behalf of either party. Cancelling an
// already-terminal session is a no-op success and never mutates ended_at.
func (s *SessionService) Cancel(ctx context.Context, id string) (*models.Session, bool, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if session.Status.Terminal() {
		return session, true, nil
	}

	now := s.now()
	ok, err := s.sessions.Transition(ctx, id, session.Status, models.SessionCancelled, now)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		current, gerr := s.sessions.Get(ctx, id)
		if gerr != nil {
			return nil, false, gerr
		}
		if current.Status.Terminal() {
			return current, true, nil
		}
		return nil, false, models.ErrConflict
	}

	updated, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}

	slog.Info("Session cancelled", "session_id", id)
	s.emitTransition(ctx, updated, "cancelled_by_party")
	return updated, false, nil
}

func (s *SessionService) emitTransition(ctx context.Context, session *models.Session, reason string) {
	payload := map[string]any{"status": session.Status}
	if reason != "" {
		payload["reason"] = reason
	}

	ev := events.Event{SessionID: session.ID, Payload: payload}
	switch session.Status {
	case models.SessionLive:
		ev.Type = events.SessionStarted
	case models.SessionCompleted:
		ev.Type = events.SessionEnded
	case models.SessionCancelled:
		ev.Type = events.SessionCancelled
	case models.SessionExpired:
		ev.Type = events.SessionEnded
		payload["reason"] = "expired"
	default:
		return
	}
	s.emitter.Emit(ctx, ev)
}
