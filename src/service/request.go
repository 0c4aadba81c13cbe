package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"session-service/src/events"
	"session-service/src/models"
	"session-service/src/store"
)

// RequestService handles customer-facing request intake and cancellation.
type RequestService struct {
	requests store.RequestStore
	sessions store.SessionStore
	emitter  events.Emitter
	ttl      time.Duration
	now      func() time.Time
}

// NewRequestService creates a request service. ttl is the claim window from
// creation to expiry.
func NewRequestService(
	requests store.RequestStore,
	sessions store.SessionStore,
	emitter events.Emitter,
	ttl time.Duration,
) *RequestService {
	return &RequestService{
		requests: requests,
		sessions: sessions,
		emitter:  emitter,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create opens a new pending request for a customer. A customer with a
// non-terminal session cannot open another request.
func (s *RequestService) Create(ctx context.Context, customerID string, sessionType models.SessionType, planCode string) (*models.SessionRequest, error) {
	active, err := s.sessions.ActiveByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, models.ErrActiveSessionExists
	}

	now := s.now()
	req := &models.SessionRequest{
		ID:          uuid.New().String(),
		CustomerID:  customerID,
		SessionType: sessionType,
		PlanCode:    planCode,
		Status:      models.RequestPending,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	}

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// ListPending returns the open requests for the mechanic dashboard.
func (s *RequestService) ListPending(ctx context.Context) ([]models.SessionRequest, error) {
	return s.requests.ListPending(ctx)
}

// Get returns a single request.
func (s *RequestService) Get(ctx context.Context, id string) (*models.SessionRequest, error) {
	return s.requests.Get(ctx, id)
}

// Cancel terminalizes a pending request on the customer's behalf. Cancelling
// a request that is already terminal is a no-op success so a double-clicked
// cancel button never errors.
func (s *RequestService) Cancel(ctx context.Context, id string) (*models.SessionRequest, bool, error) {
	req, err := s.requests.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if req.Status.Terminal() {
		return req, true, nil
	}

	ok, err := s.requests.Transition(ctx, id, models.RequestPending, models.RequestCancelled)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		// Guard failed: the request moved since we read it. Report no-op if
		// it reached a terminal state, conflict otherwise.
		current, gerr := s.requests.Get(ctx, id)
		if gerr != nil {
			return nil, false, gerr
		}
		if current.Status.Terminal() {
			return current, true, nil
		}
		return nil, false, models.ErrConflict
	}

	slog.Info("Request cancelled", "request_id", id)
	s.emitter.Emit(ctx, events.Event{
		Type:      events.RequestCancelled,
		RequestID: id,
		Payload:   map[string]any{"customer_id": req.CustomerID},
	})

	cancelled, err := s.requests.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return cancelled, false, nil
}
