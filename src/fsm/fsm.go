// Package fsm is the single source of truth for which lifecycle transitions
// are legal. It is pure table lookup; checking that the stored state still
// matches belongs to the conditional writes in the store layer.
package fsm

import (
	"fmt"

	"session-service/src/models"
)

// TransitionError reports an illegal transition attempt. Current and
// Requested are echoed back to the caller for debuggability.
type TransitionError struct {
	Current   string
	Requested string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid state transition: %s -> %s", e.Current, e.Requested)
}

var sessionTransitions = map[models.SessionStatus][]models.SessionStatus{
	models.SessionPending:   {models.SessionWaiting, models.SessionAccepted, models.SessionCancelled},
	models.SessionWaiting:   {models.SessionAccepted, models.SessionLive, models.SessionCancelled, models.SessionExpired},
	models.SessionAccepted:  {models.SessionLive, models.SessionCancelled},
	models.SessionLive:      {models.SessionCompleted, models.SessionCancelled},
	models.SessionCompleted: {},
	models.SessionCancelled: {},
	models.SessionExpired:   {},
}

var requestTransitions = map[models.RequestStatus][]models.RequestStatus{
	models.RequestPending:   {models.RequestAccepted, models.RequestExpired, models.RequestCancelled},
	models.RequestAccepted:  {},
	models.RequestExpired:   {},
	models.RequestCancelled: {},
}

// CanSession reports whether a session may move from one status to another.
// Same-state transitions are allowed so idempotent updates are not errors.
func CanSession(from, to models.SessionStatus) bool {
	if from == to {
		return true
	}
	for _, next := range sessionTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AssertSession returns a *TransitionError when the transition is illegal.
func AssertSession(from, to models.SessionStatus) error {
	if !CanSession(from, to) {
		return &TransitionError{Current: string(from), Requested: string(to)}
	}
	return nil
}

// NextSession returns the legal next statuses from a given session status.
func NextSession(from models.SessionStatus) []models.SessionStatus {
	return sessionTransitions[from]
}

// CanRequest reports whether a request may move from one status to another.
func CanRequest(from, to models.RequestStatus) bool {
	if from == to {
		return true
	}
	for _, next := range requestTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AssertRequest returns a *TransitionError when the transition is illegal.
func AssertRequest(from, to models.RequestStatus) error {
	if !CanRequest(from, to) {
		return &TransitionError{Current: string(from), Requested: string(to)}
	}
	return nil
}
