package controller

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"session-service/src/models"
	"session-service/src/schemas"
	"session-service/src/service"
)

// RequestController exposes the customer intake and the mechanic claim path.
type RequestController struct {
	Requests *service.RequestService
	Arbiter  *service.Arbiter
}

// NewRequestController creates a request controller.
func NewRequestController(requests *service.RequestService, arbiter *service.Arbiter) *RequestController {
	return &RequestController{Requests: requests, Arbiter: arbiter}
}

// @Summary Create session request
// @Description Opens a pending request with a fixed claim deadline
// @Tags requests
// @Accept json
// @Produce json
// @Success 201 {object} models.SessionRequest
// @Failure 409 {object} schemas.DomainError
// @Router /requests [post]
func (rc *RequestController) Create(ctx *gin.Context) {
	var body schemas.CreateRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest,
			schemas.NewBadRequestError("Invalid JSON format: "+err.Error(), ctx.FullPath()))
		return
	}

	sessionType := models.SessionType(body.SessionType)
	if !sessionType.Valid() {
		ctx.JSON(http.StatusBadRequest,
			schemas.NewBadRequestError("unknown session type: "+body.SessionType, ctx.FullPath()))
		return
	}

	req, err := rc.Requests.Create(ctx.Request.Context(), body.CustomerID, sessionType, body.PlanCode)
	if err != nil {
		if errors.Is(err, models.ErrActiveSessionExists) {
			ctx.JSON(http.StatusConflict, schemas.DomainError{Error: schemas.CodeActiveSessionExists})
			return
		}
		slog.Error("Failed to create request", "error", err.Error())
		ctx.JSON(http.StatusInternalServerError,
			schemas.NewInternalError(err.Error(), ctx.FullPath()))
		return
	}

	ctx.JSON(http.StatusCreated, req)
}

// @Summary List pending requests
// @Description Open requests for the mechanic dashboard, oldest first
// @Tags requests
// @Produce json
// @Success 200 {array} models.SessionRequest
// @Router /requests/pending [get]
func (rc *RequestController) ListPending(ctx *gin.Context) {
	requests, err := rc.Requests.ListPending(ctx.Request.Context())
	if err != nil {
		slog.Error("Failed to list pending requests", "error", err.Error())
		ctx.JSON(http.StatusInternalServerError,
			schemas.NewInternalError(err.Error(), ctx.FullPath()))
		return
	}
	if requests == nil {
		requests = []models.SessionRequest{}
	}
	ctx.JSON(http.StatusOK, gin.H{"requests": requests})
}

// @Summary Accept a request
// @Description Atomically claims a pending request for one mechanic
// @Tags requests
// @Accept json
// @Produce json
// @Success 200 {object} models.Session
// @Failure 403 {object} schemas.DomainError
// @Failure 409 {object} schemas.DomainError
// @Failure 410 {object} schemas.DomainError
// @Router /requests/{id}/accept [post]
func (rc *RequestController) Accept(ctx *gin.Context) {
	requestID := ctx.Param("id")

	var body schemas.AcceptRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest,
			schemas.NewBadRequestError("Invalid JSON format: "+err.Error(), ctx.FullPath()))
		return
	}

	session, err := rc.Arbiter.Accept(ctx.Request.Context(), requestID, body.MechanicID)
	if err != nil {
		rc.writeAcceptError(ctx, requestID, body.MechanicID, err)
		return
	}

	ctx.JSON(http.StatusOK, session)
}

func (rc *RequestController) writeAcceptError(ctx *gin.Context, requestID, mechanicID string, err error) {
	switch {
	case errors.Is(err, models.ErrRequestNotFound), errors.Is(err, models.ErrMechanicNotFound):
		ctx.JSON(http.StatusNotFound,
			schemas.NewNotFoundError(err.Error(), ctx.FullPath()))
	case errors.Is(err, models.ErrAlreadyClaimed):
		ctx.JSON(http.StatusConflict, schemas.DomainError{Error: schemas.CodeAlreadyAssigned})
	case errors.Is(err, models.ErrRequestExpired):
		ctx.JSON(http.StatusGone, schemas.DomainError{Error: schemas.CodeRequestExpired})
	case errors.Is(err, models.ErrCapacityExceeded):
		ctx.JSON(http.StatusForbidden, schemas.DomainError{Error: schemas.CodeCapacityExceeded})
	case errors.Is(err, models.ErrMechanicIneligible):
		ctx.JSON(http.StatusForbidden, schemas.DomainError{Error: schemas.CodeMechanicIneligible})
	default:
		slog.Error("Accept failed",
			"request_id", requestID,
			"mechanic_id", mechanicID,
			"error", err.Error())
		ctx.JSON(http.StatusInternalServerError,
			schemas.NewInternalError(err.Error(), ctx.FullPath()))
	}
}

// @Summary Cancel a request
// @Description Customer-side cancel; terminal requests are a no-op success
// @Tags requests
// @Produce json
// @Success 200 {object} schemas.CancelResponse
// @Failure 404 {object} schemas.ErrorResponse
// @Router /requests/{id}/cancel [post]
func (rc *RequestController) Cancel(ctx *gin.Context) {
	requestID := ctx.Param("id")

	req, alreadyTerminal, err := rc.Requests.Cancel(ctx.Request.Context(), requestID)
	if err != nil {
		if errors.Is(err, models.ErrRequestNotFound) {
			ctx.JSON(http.StatusNotFound,
				schemas.NewNotFoundError(err.Error(), ctx.FullPath()))
			return
		}
		if errors.Is(err, models.ErrConflict) {
			ctx.JSON(http.StatusConflict, schemas.DomainError{Error: schemas.CodeConflict})
			return
		}
		slog.Error("Failed to cancel request", "request_id", requestID, "error", err.Error())
		ctx.JSON(http.StatusInternalServerError,
			schemas.NewInternalError(err.Error(), ctx.FullPath()))
		return
	}

	ctx.JSON(http.StatusOK, schemas.CancelResponse{
		AlreadyTerminal: alreadyTerminal,
		Entity:          req,
	})
}
