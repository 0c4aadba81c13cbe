package fsm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"session-service/src/models"
)

func TestSessionTransitions(t *testing.T) {
	tests := []struct {
		from    models.SessionStatus
		to      models.SessionStatus
		allowed bool
	}{
		{models.SessionPending, models.SessionWaiting, true},
		{models.SessionPending, models.SessionAccepted, true},
		{models.SessionPending, models.SessionCancelled, true},
		{models.SessionPending, models.SessionLive, false},
		{models.SessionPending, models.SessionCompleted, false},
		{models.SessionWaiting, models.SessionAccepted, true},
		{models.SessionWaiting, models.SessionLive, true},
		{models.SessionWaiting, models.SessionExpired, true},
		{models.SessionWaiting, models.SessionCompleted, false},
		{models.SessionAccepted, models.SessionLive, true},
		{models.SessionAccepted, models.SessionCancelled, true},
		{models.SessionAccepted, models.SessionExpired, false},
		{models.SessionAccepted, models.SessionCompleted, false},
		{models.SessionLive, models.SessionCompleted, true},
		{models.SessionLive, models.SessionCancelled, true},
		{models.SessionLive, models.SessionWaiting, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, CanSession(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestTerminalSessionStatesAllowNothing(t *testing.T) {
	terminals := []models.SessionStatus{
		models.SessionCompleted, models.SessionCancelled, models.SessionExpired,
	}
	targets := []models.SessionStatus{
		models.SessionPending, models.SessionWaiting, models.SessionAccepted,
		models.SessionLive, models.SessionCompleted, models.SessionCancelled,
		models.SessionExpired,
	}

	for _, from := range terminals {
		assert.True(t, from.Terminal())
		assert.Empty(t, NextSession(from))
		for _, to := range targets {
			if from == to {
				continue
			}
			assert.False(t, CanSession(from, to), "%s -> %s", from, to)
		}
	}
}

func TestSameStateIsIdempotent(t *testing.T) {
	assert.True(t, CanSession(models.SessionLive, models.SessionLive))
	assert.True(t, CanRequest(models.RequestAccepted, models.RequestAccepted))
	assert.NoError(t, AssertSession(models.SessionCompleted, models.SessionCompleted))
}

func TestAssertSessionReturnsTransitionError(t *testing.T) {
	err := AssertSession(models.SessionWaiting, models.SessionCompleted)
	require.Error(t, err)

	var terr *TransitionError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "waiting", terr.Current)
	assert.Equal(t, "completed", terr.Requested)
}

func TestRequestTransitions(t *testing.T) {
	assert.True(t, CanRequest(models.RequestPending, models.RequestAccepted))
	assert.True(t, CanRequest(models.RequestPending, models.RequestExpired))
	assert.True(t, CanRequest(models.RequestPending, models.RequestCancelled))

	for _, from := range []models.RequestStatus{
		models.RequestAccepted, models.RequestExpired, models.RequestCancelled,
	} {
		assert.True(t, from.Terminal())
		assert.False(t, CanRequest(from, models.RequestPending))
		assert.Error(t, AssertRequest(from, models.RequestPending))
	}
}
