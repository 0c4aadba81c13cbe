package schemas

import (
	"fmt"
	"net/http"
)

// ErrorResponse represents a standard API error (RFC 7807).
// It implements the standard Go error interface.
type ErrorResponse struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"` // HTTP Status Code
	Detail   string `json:"detail"`
	Instance string `json:"instance"`
}

// Error implements the error interface.
func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("%s: %s", e.Title, e.Detail)
}

// NewErrorResponse creates a general ErrorResponse.
func NewErrorResponse(status int, title, detail, instance string) *ErrorResponse {
	return &ErrorResponse{
		Type:     fmt.Sprintf("https://session-service.dev/errors/%d", status),
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	}
}

// NewBadRequestError creates a 400 Bad Request error.
func NewBadRequestError(detail, instance string) *ErrorResponse {
	return NewErrorResponse(http.StatusBadRequest, "Bad Request", detail, instance)
}

// NewNotFoundError creates a 404 Not Found error.
func NewNotFoundError(detail, instance string) *ErrorResponse {
	return NewErrorResponse(http.StatusNotFound, "Not Found", detail, instance)
}

// NewInternalError creates a 500 Internal Server Error.
// Note: Be careful not to expose sensitive technical details in production.
func NewInternalError(detail, instance string) *ErrorResponse {
	return NewErrorResponse(http.StatusInternalServerError, "Internal Server Error", detail, instance)
}

// Compact domain error bodies. These carry the stable error codes clients
// branch on, as opposed to the RFC 7807 shape used for generic failures.

// DomainError is the compact body for expected domain outcomes.
type DomainError struct {
	Error string `json:"error"`
}

// TransitionConflict echoes the current and requested statuses back to the
// caller of an illegal transition.
type TransitionConflict struct {
	Error     string `json:"error"` // always "invalid_state_transition"
	Current   string `json:"current"`
	Requested string `json:"requested"`
}

// Stable domain error codes.
const (
	CodeAlreadyAssigned     = "already_assigned"
	CodeRequestExpired      = "request_expired"
	CodeCapacityExceeded    = "capacity_exceeded"
	CodeMechanicIneligible  = "mechanic_ineligible"
	CodeActiveSessionExists = "active_session_exists"
	CodeConflict            = "conflict"
	CodeInvalidTransition   = "invalid_state_transition"
	CodeUnauthorized        = "unauthorized"
)
