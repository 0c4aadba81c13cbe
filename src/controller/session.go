package controller

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"session-service/src/fsm"
	"session-service/src/models"
	"session-service/src/schemas"
	"session-service/src/service"
)

// SessionController exposes session reads and state-machine-gated writes.
type SessionController struct {
	Sessions *service.SessionService
}

// NewSessionController creates a session controller.
func NewSessionController(sessions *service.SessionService) *SessionController {
	return &SessionController{Sessions: sessions}
}

// @Summary Get session
// @Tags sessions
// @Produce json
// @Success 200 {object} models.Session
// @Failure 404 {object} schemas.ErrorResponse
// @Router /sessions/{id} [get]
func (sc *SessionController) Get(ctx *gin.Context) {
	session, err := sc.Sessions.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			ctx.JSON(http.StatusNotFound,
				schemas.NewNotFoundError(err.Error(), ctx.FullPath()))
			return
		}
		ctx.JSON(http.StatusInternalServerError,
			schemas.NewInternalError(err.Error(), ctx.FullPath()))
		return
	}
	ctx.JSON(http.StatusOK, session)
}

// @Summary Create scheduled session
// @Description Direct booking path; no request claim involved
// @Tags sessions
// @Accept json
// @Produce json
// @Success 201 {object} models.Session
// @Failure 403 {object} schemas.DomainError
// @Router /sessions [post]
func (sc *SessionController) CreateScheduled(ctx *gin.Context) {
	var body schemas.CreateScheduledSessionBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest,
			schemas.NewBadRequestError("Invalid JSON format: "+err.Error(), ctx.FullPath()))
		return
	}

	sessionType := models.SessionType(body.Type)
	if !sessionType.Valid() {
		ctx.JSON(http.StatusBadRequest,
			schemas.NewBadRequestError("unknown session type: "+body.Type, ctx.FullPath()))
		return
	}

	session, err := sc.Sessions.CreateScheduled(ctx.Request.Context(), service.ScheduledSessionParams{
		CustomerID:     body.CustomerID,
		MechanicID:     body.MechanicID,
		Plan:           body.Plan,
		Type:           sessionType,
		ScheduledStart: body.ScheduledStart,
		ScheduledEnd:   body.ScheduledEnd,
	})
	if err != nil {
		if errors.Is(err, models.ErrCapacityExceeded) {
			ctx.JSON(http.StatusForbidden, schemas.DomainError{Error: schemas.CodeCapacityExceeded})
			return
		}
		slog.Error("Failed to create scheduled session", "error", err.Error())
		ctx.JSON(http.StatusInternalServerError,
			schemas.NewInternalError(err.Error(), ctx.FullPath()))
		return
	}

	ctx.JSON(http.StatusCreated, session)
}

// @Summary Update session status
// @Description Applies a transition if legal per the lifecycle state machine
// @Tags sessions
// @Accept json
// @Produce json
// @Success 200 {object} models.Session
// @Failure 409 {object} schemas.TransitionConflict
// @Router /sessions/{id}/status [patch]
func (sc *SessionController) UpdateStatus(ctx *gin.Context) {
	sessionID := ctx.Param("id")

	var body schemas.UpdateSessionStatusBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest,
			schemas.NewBadRequestError("Invalid JSON format: "+err.Error(), ctx.FullPath()))
		return
	}

	session, err := sc.Sessions.Transition(ctx.Request.Context(), sessionID, models.SessionStatus(body.Status))
	if err != nil {
		var terr *fsm.TransitionError
		switch {
		case errors.Is(err, models.ErrSessionNotFound):
			ctx.JSON(http.StatusNotFound,
				schemas.NewNotFoundError(err.Error(), ctx.FullPath()))
		case errors.As(err, &terr):
			ctx.JSON(http.StatusConflict, schemas.TransitionConflict{
				Error:     schemas.CodeInvalidTransition,
				Current:   terr.Current,
				Requested: terr.Requested,
			})
		case errors.Is(err, models.ErrConflict):
			ctx.JSON(http.StatusConflict, schemas.DomainError{Error: schemas.CodeConflict})
		default:
			slog.Error("Failed to update session status",
				"session_id", sessionID,
				"status", body.Status,
				"error", err.Error())
			ctx.JSON(http.StatusInternalServerError,
				schemas.NewInternalError(err.Error(), ctx.FullPath()))
		}
		return
	}

	ctx.JSON(http.StatusOK, session)
}

// @Summary Cancel session
// @Description Idempotent: cancelling a terminal session is a no-op success
// @Tags sessions
// @Produce json
// @Success 200 {object} schemas.CancelResponse
// @Failure 404 {object} schemas.ErrorResponse
// @Router /sessions/{id}/cancel [post]
func (sc *SessionController) Cancel(ctx *gin.Context) {
	sessionID := ctx.Param("id")

	session, alreadyTerminal, err := sc.Sessions.Cancel(ctx.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			ctx.JSON(http.StatusNotFound,
				schemas.NewNotFoundError(err.Error(), ctx.FullPath()))
			return
		}
		if errors.Is(err, models.ErrConflict) {
			ctx.JSON(http.StatusConflict, schemas.DomainError{Error: schemas.CodeConflict})
			return
		}
		slog.Error("Failed to cancel session", "session_id", sessionID, "error", err.Error())
		ctx.JSON(http.StatusInternalServerError,
			schemas.NewInternalError(err.Error(), ctx.FullPath()))
		return
	}

	ctx.JSON(http.StatusOK, schemas.CancelResponse{
		AlreadyTerminal: alreadyTerminal,
		Entity:          session,
	})
}
