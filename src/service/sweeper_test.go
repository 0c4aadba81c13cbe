package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"session-service/src/events"
	"session-service/src/models"
)

func (f *fixture) addSession(t *testing.T, session models.Session) *models.Session {
	t.Helper()
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = f.now
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = f.now
	}
	require.NoError(t, f.mem.CreateSession(context.Background(), &session))
	return &session
}

func TestSweepExpiresOverdueRequests(t *testing.T) {
	f := newFixture()
	stale := f.addPendingRequest("cust-1")

	f.advance(10 * time.Minute)
	fresh := f.addPendingRequest("cust-2")

	f.advance(6 * time.Minute) // stale is 16m old, fresh only 6m

	summary, err := f.sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ExpiredRequests)
	assert.Equal(t, 1, summary.TotalCleaned)
	assert.Empty(t, summary.Errors)

	got, err := f.mem.Get(context.Background(), stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestExpired, got.Status)

	got, err = f.mem.Get(context.Background(), fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, got.Status)

	expired := f.recorder.OfType(events.RequestExpired)
	require.Len(t, expired, 1)
	assert.Equal(t, stale.ID, expired[0].RequestID)
}

// A live video15 session runs 45 minutes. One minute past its duration the
// sweeper completes it and stamps the end time.
func TestSweepCompletesLiveSessionPastDuration(t *testing.T) {
	f := newFixture()
	mech := "mech-1"
	started := f.now
	session := f.addSession(t, models.Session{
		CustomerID: "cust-1",
		MechanicID: &mech,
		Status:     models.SessionLive,
		Plan:       "video15",
		Type:       models.TypeVideo,
		StartedAt:  &started,
	})

	f.advance(44 * time.Minute)
	summary, err := f.sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.EndedSessions)

	f.advance(2 * time.Minute)
	summary, err = f.sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.EndedSessions)

	got, err := f.mem.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, got.Status)
	require.NotNil(t, got.EndedAt)
	assert.True(t, got.EndedAt.Equal(f.now))

	ended := f.recorder.OfType(events.SessionEnded)
	require.Len(t, ended, 1)
	assert.Equal(t, "duration_elapsed", ended[0].Payload["reason"])
}

func TestSweepExtensionDefersCompletion(t *testing.T) {
	f := newFixture()
	started := f.now
	session := f.addSession(t, models.Session{
		CustomerID: "cust-1",
		Status:     models.SessionLive,
		Plan:       "chat10",
		Type:       models.TypeChat,
		StartedAt:  &started,
		Metadata:   map[string]any{"extension_minutes": float64(15)},
	})

	// chat10 runs 30 minutes, plus the 15-minute extension.
	f.advance(40 * time.Minute)
	summary, err := f.sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.EndedSessions)

	f.advance(10 * time.Minute)
	summary, err = f.sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.EndedSessions)

	got, err := f.mem.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, got.Status)
}

func TestSweepExpiresStaleWaitingAndCancelsStalePending(t *testing.T) {
	f := newFixture()
	waiting := f.addSession(t, models.Session{
		CustomerID: "cust-1",
		Status:     models.SessionWaiting,
		Plan:       "free",
		Type:       models.TypeChat,
	})
	pending := f.addSession(t, models.Session{
		CustomerID: "cust-2",
		Status:     models.SessionPending,
		Plan:       "free",
		Type:       models.TypeChat,
	})

	f.advance(16 * time.Minute)

	summary, err := f.sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.OldWaitingSessions)

	got, err := f.mem.GetSession(context.Background(), waiting.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionExpired, got.Status)

	got, err = f.mem.GetSession(context.Background(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCancelled, got.Status)
}

// Sweeping twice in a row must not double-count or re-touch anything. The
// second pass sees only terminal rows and cleans nothing.
func TestSweepIdempotent(t *testing.T) {
	f := newFixture()
	f.addPendingRequest("cust-1")
	started := f.now
	f.addSession(t, models.Session{
		CustomerID: "cust-2",
		Status:     models.SessionLive,
		Plan:       "free",
		Type:       models.TypeChat,
		StartedAt:  &started,
	})

	f.advance(time.Hour)

	first, err := f.sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.TotalCleaned)

	second, err := f.sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.TotalCleaned)
	assert.Empty(t, second.Errors)
}

func TestPreviewDoesNotMutate(t *testing.T) {
	f := newFixture()
	req := f.addPendingRequest("cust-1")

	f.advance(time.Hour)

	summary, err := f.sweeper.Preview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ExpiredRequests)

	got, err := f.mem.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, got.Status)
	assert.Empty(t, f.recorder.Events())
}

// A session bound to a request that is no longer accepted is an orphan; once
// it is old enough the sweeper cancels it.
func TestSweepReconcilesOrphanedSession(t *testing.T) {
	f := newFixture()
	f.addMechanic("mech-1", true)
	req := f.addPendingRequest("cust-1")

	session, err := f.arbiter.Accept(context.Background(), req.ID, "mech-1")
	require.NoError(t, err)

	// Something put the request back to pending behind the session's back.
	require.NoError(t, f.mem.Release(context.Background(), req.ID))

	f.advance(time.Hour)
	summary, err := f.sweeper.Preview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.OrphanedSessions, "mismatch younger than the orphan window is left alone")

	f.advance(90 * time.Minute)
	summary, err = f.sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.OrphanedSessions)

	got, err := f.mem.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCancelled, got.Status)

	cancelled := f.recorder.OfType(events.SessionCancelled)
	require.Len(t, cancelled, 1)
	assert.Equal(t, "orphaned", cancelled[0].Payload["reason"])
}
