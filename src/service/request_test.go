package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"session-service/src/events"
	"session-service/src/models"
)

func TestCreateRequest(t *testing.T) {
	f := newFixture()

	req, err := f.requests.Create(context.Background(), "cust-1", models.TypeChat, "chat10")
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, req.Status)
	assert.Equal(t, "cust-1", req.CustomerID)
	assert.True(t, req.ExpiresAt.Equal(f.now.Add(15*time.Minute)))
	assert.Nil(t, req.MechanicID)
}

func TestCreateRequestBlockedByActiveSession(t *testing.T) {
	f := newFixture()
	f.addSession(t, models.Session{
		CustomerID: "cust-1",
		Status:     models.SessionLive,
		Plan:       "chat10",
		Type:       models.TypeChat,
	})

	_, err := f.requests.Create(context.Background(), "cust-1", models.TypeChat, "chat10")
	assert.ErrorIs(t, err, models.ErrActiveSessionExists)

	// A finished session does not block a new request.
	ended := f.now
	f.addSession(t, models.Session{
		CustomerID: "cust-2",
		Status:     models.SessionCompleted,
		Plan:       "chat10",
		Type:       models.TypeChat,
		EndedAt:    &ended,
	})
	_, err = f.requests.Create(context.Background(), "cust-2", models.TypeChat, "chat10")
	assert.NoError(t, err)
}

func TestListPendingOldestFirst(t *testing.T) {
	f := newFixture()
	first := f.addPendingRequest("cust-1")
	f.advance(time.Minute)
	second := f.addPendingRequest("cust-2")

	pending, err := f.requests.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)
	assert.Equal(t, second.ID, pending[1].ID)
}

func TestCancelRequest(t *testing.T) {
	f := newFixture()
	req := f.addPendingRequest("cust-1")

	cancelled, alreadyTerminal, err := f.requests.Cancel(context.Background(), req.ID)
	require.NoError(t, err)
	assert.False(t, alreadyTerminal)
	assert.Equal(t, models.RequestCancelled, cancelled.Status)

	evs := f.recorder.OfType(events.RequestCancelled)
	require.Len(t, evs, 1)
	assert.Equal(t, req.ID, evs[0].RequestID)
}

func TestCancelRequestIdempotent(t *testing.T) {
	f := newFixture()
	req := f.addPendingRequest("cust-1")

	_, _, err := f.requests.Cancel(context.Background(), req.ID)
	require.NoError(t, err)

	again, alreadyTerminal, err := f.requests.Cancel(context.Background(), req.ID)
	require.NoError(t, err)
	assert.True(t, alreadyTerminal)
	assert.Equal(t, models.RequestCancelled, again.Status)
	assert.Len(t, f.recorder.OfType(events.RequestCancelled), 1)
}

func TestCancelAcceptedRequestConflicts(t *testing.T) {
	f := newFixture()
	f.addMechanic("mech-1", true)
	req := f.addPendingRequest("cust-1")

	_, err := f.arbiter.Accept(context.Background(), req.ID, "mech-1")
	require.NoError(t, err)

	_, _, err = f.requests.Cancel(context.Background(), req.ID)
	assert.ErrorIs(t, err, models.ErrConflict)
}
