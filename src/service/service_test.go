package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"session-service/src/events"
	"session-service/src/models"
	"session-service/src/store"
)

// fixture wires the services over one in-memory store with a controllable
// clock.
type fixture struct {
	mem      *store.Memory
	recorder *events.Recorder
	arbiter  *Arbiter
	requests *RequestService
	sessions *SessionService
	sweeper  *Sweeper
	capacity *CapacityGuard
	now      time.Time
}

func newFixture() *fixture {
	mem := store.NewMemory()
	recorder := &events.Recorder{}
	capacity := NewCapacityGuard(mem.Sessions())

	f := &fixture{
		mem:      mem,
		recorder: recorder,
		capacity: capacity,
		now:      time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	f.arbiter = NewArbiter(mem.Requests(), mem.Sessions(), mem.Mechanics(), capacity, nil, recorder)
	f.requests = NewRequestService(mem.Requests(), mem.Sessions(), recorder, 15*time.Minute)
	f.sessions = NewSessionService(mem.Sessions(), recorder)
	f.sweeper = NewSweeper(mem.Requests(), mem.Sessions(), recorder)

	clock := func() time.Time { return f.now }
	f.arbiter.now = clock
	f.requests.now = clock
	f.sessions.now = clock
	f.sweeper.now = clock

	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) addMechanic(id string, canAccept bool) {
	f.mem.AddMechanic(models.Mechanic{ID: id, Name: id, CanAcceptSessions: canAccept})
}

func (f *fixture) addPendingRequest(customerID string) *models.SessionRequest {
	req := &models.SessionRequest{
		ID:          uuid.New().String(),
		CustomerID:  customerID,
		SessionType: models.TypeVideo,
		PlanCode:    "video15",
		Status:      models.RequestPending,
		CreatedAt:   f.now,
		ExpiresAt:   f.now.Add(15 * time.Minute),
	}
	if err := f.mem.Create(context.Background(), req); err != nil {
		panic(err)
	}
	return req
}
