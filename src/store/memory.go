package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"session-service/src/models"
)

// Memory is an in-memory implementation of all three stores with the same
// conditional-write semantics as the PostgreSQL repositories, including the
// one-active-session-per-mechanic rule. It backs tests and local runs.
type Memory struct {
	mu        sync.Mutex
	requests  map[string]*models.SessionRequest
	sessions  map[string]*models.Session
	mechanics map[string]*models.Mechanic
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		requests:  make(map[string]*models.SessionRequest),
		sessions:  make(map[string]*models.Session),
		mechanics: make(map[string]*models.Mechanic),
	}
}

// AddMechanic seeds a mechanic row.
func (m *Memory) AddMechanic(mech models.Mechanic) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := mech
	m.mechanics[mech.ID] = &cp
}

// SeedSession inserts a session without the capacity check. Tests use it to
// construct states the write path would refuse.
func (m *Memory) SeedSession(s *models.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = copySession(s)
}

func copyRequest(r *models.SessionRequest) *models.SessionRequest {
	cp := *r
	if r.MechanicID != nil {
		v := *r.MechanicID
		cp.MechanicID = &v
	}
	if r.AcceptedAt != nil {
		v := *r.AcceptedAt
		cp.AcceptedAt = &v
	}
	return &cp
}

func copySession(s *models.Session) *models.Session {
	cp := *s
	for _, p := range []struct {
		src **string
		dst **string
	}{{&s.RequestID, &cp.RequestID}, {&s.MechanicID, &cp.MechanicID}} {
		if *p.src != nil {
			v := **p.src
			*p.dst = &v
		}
	}
	for _, p := range []struct {
		src **time.Time
		dst **time.Time
	}{
		{&s.StartedAt, &cp.StartedAt}, {&s.EndedAt, &cp.EndedAt},
		{&s.ScheduledStart, &cp.ScheduledStart}, {&s.ScheduledEnd, &cp.ScheduledEnd},
	} {
		if *p.src != nil {
			v := **p.src
			*p.dst = &v
		}
	}
	if s.Metadata != nil {
		cp.Metadata = make(map[string]any, len(s.Metadata))
		for k, v := range s.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

// --- RequestStore ---

func (m *Memory) Create(ctx context.Context, req *models.SessionRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[req.ID] = copyRequest(req)
	return nil
}

func (m *Memory) Get(ctx context.Context, id string) (*models.SessionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, models.ErrRequestNotFound
	}
	return copyRequest(r), nil
}

func (m *Memory) ListPending(ctx context.Context) ([]models.SessionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SessionRequest
	for _, r := range m.requests {
		if r.Status == models.RequestPending {
			out = append(out, *copyRequest(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) Claim(ctx context.Context, id, mechanicID string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return false, nil
	}
	if r.Status != models.RequestPending || r.MechanicID != nil {
		return false, nil
	}
	mech := mechanicID
	acceptedAt := at
	r.Status = models.RequestAccepted
	r.MechanicID = &mech
	r.AcceptedAt = &acceptedAt
	return true, nil
}

func (m *Memory) Release(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return models.ErrRequestNotFound
	}
	r.Status = models.RequestPending
	r.MechanicID = nil
	r.AcceptedAt = nil
	return nil
}

func (m *Memory) Transition(ctx context.Context, id string, from, to models.RequestStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	return true, nil
}

func (m *Memory) ExpiredPending(ctx context.Context, at time.Time) ([]models.SessionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SessionRequest
	for _, r := range m.requests {
		if r.Status == models.RequestPending && !r.ExpiresAt.After(at) {
			out = append(out, *copyRequest(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// --- SessionStore ---

func (m *Memory) CreateSession(ctx context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.MechanicID != nil {
		for _, existing := range m.sessions {
			if existing.MechanicID != nil && *existing.MechanicID == *s.MechanicID &&
				!existing.Status.Terminal() {
				return models.ErrCapacityExceeded
			}
		}
	}
	m.sessions[s.ID] = copySession(s)
	return nil
}

func (m *Memory) GetSession(ctx context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	return copySession(s), nil
}

func (m *Memory) TransitionSession(ctx context.Context, id string, from, to models.SessionStatus, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.Status != from {
		return false, nil
	}
	s.Status = to
	s.UpdatedAt = at
	if to == models.SessionLive && s.StartedAt == nil {
		t := at
		s.StartedAt = &t
	}
	if to.Terminal() && s.EndedAt == nil {
		t := at
		s.EndedAt = &t
	}
	return true, nil
}

func (m *Memory) ActiveCountByMechanic(ctx context.Context, mechanicID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, s := range m.sessions {
		if s.MechanicID != nil && *s.MechanicID == mechanicID && !s.Status.Terminal() {
			count++
		}
	}
	return count, nil
}

func (m *Memory) ActiveByCustomer(ctx context.Context, customerID string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *models.Session
	for _, s := range m.sessions {
		if s.CustomerID != customerID || s.Status.Terminal() {
			continue
		}
		if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, nil
	}
	return copySession(latest), nil
}

func (m *Memory) ListNonTerminal(ctx context.Context) ([]models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Session
	for _, s := range m.sessions {
		if !s.Status.Terminal() {
			out = append(out, *copySession(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) OverCapacityMechanics(ctx context.Context) ([]MechanicLoad, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int)
	for _, s := range m.sessions {
		if s.MechanicID != nil && !s.Status.Terminal() {
			counts[*s.MechanicID]++
		}
	}
	var out []MechanicLoad
	for id, n := range counts {
		if n > 1 {
			out = append(out, MechanicLoad{MechanicID: id, ActiveSessions: n})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MechanicID < out[j].MechanicID })
	return out, nil
}

// --- MechanicStore ---

func (m *Memory) GetMechanic(ctx context.Context, id string) (*models.Mechanic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mech, ok := m.mechanics[id]
	if !ok {
		return nil, models.ErrMechanicNotFound
	}
	cp := *mech
	return &cp, nil
}

func (m *Memory) SetAvailability(ctx context.Context, id string, canAccept bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mech, ok := m.mechanics[id]
	if !ok {
		return models.ErrMechanicNotFound
	}
	mech.CanAcceptSessions = canAccept
	return nil
}

// Typed views so one Memory can serve all three store interfaces without
// method name clashes.

type memoryRequests struct{ *Memory }
type memorySessions struct{ *Memory }
type memoryMechanics struct{ *Memory }

func (m memorySessions) Create(ctx context.Context, s *models.Session) error {
	return m.CreateSession(ctx, s)
}

func (m memorySessions) Get(ctx context.Context, id string) (*models.Session, error) {
	return m.GetSession(ctx, id)
}

func (m memorySessions) Transition(ctx context.Context, id string, from, to models.SessionStatus, at time.Time) (bool, error) {
	return m.TransitionSession(ctx, id, from, to, at)
}

func (m memoryMechanics) Get(ctx context.Context, id string) (*models.Mechanic, error) {
	return m.GetMechanic(ctx, id)
}

// Requests returns the RequestStore view.
func (m *Memory) Requests() RequestStore { return memoryRequests{m} }

// Sessions returns the SessionStore view.
func (m *Memory) Sessions() SessionStore { return memorySessions{m} }

// Mechanics returns the MechanicStore view.
func (m *Memory) Mechanics() MechanicStore { return memoryMechanics{m} }
