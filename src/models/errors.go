package models

import "errors"

// Domain-level sentinel errors for business logic
// These errors should not contain HTTP-specific information

var (
	// ErrRequestNotFound indicates that a session request with the given ID does not exist
	ErrRequestNotFound = errors.New("session request not found")

	// ErrSessionNotFound indicates that a session with the given ID does not exist
	ErrSessionNotFound = errors.New("session not found")

	// ErrMechanicNotFound indicates that a mechanic with the given ID does not exist
	ErrMechanicNotFound = errors.New("mechanic not found")

	// ErrAlreadyClaimed indicates that another mechanic won the claim race
	ErrAlreadyClaimed = errors.New("request already claimed")

	// ErrRequestExpired indicates that the request is past its claim deadline
	ErrRequestExpired = errors.New("request expired")

	// ErrCapacityExceeded indicates that the mechanic already holds a non-terminal session
	ErrCapacityExceeded = errors.New("mechanic already has an active session")

	// ErrMechanicIneligible indicates that the mechanic may not accept sessions
	ErrMechanicIneligible = errors.New("mechanic is not eligible to accept sessions")

	// ErrActiveSessionExists indicates that the customer already has a non-terminal session
	ErrActiveSessionExists = errors.New("active session already exists")

	// ErrConflict indicates that a conditional write's guard failed because the
	// stored state no longer matched the expected state. Callers re-fetch; the
	// write is never retried blindly.
	ErrConflict = errors.New("state changed concurrently")
)
