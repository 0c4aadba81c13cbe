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

// MechanicController exposes the availability toggle.
type MechanicController struct {
	Mechanics *service.MechanicService
}

// NewMechanicController creates a mechanic controller.
func NewMechanicController(mechanics *service.MechanicService) *MechanicController {
	return &MechanicController{Mechanics: mechanics}
}

// @Summary Set mechanic availability
// @Description Flips the eligibility flag and the on-shift presence marker
// @Tags mechanics
// @Accept json
// @Produce json
// @Success 200 {object} models.Mechanic
// @Failure 404 {object} schemas.ErrorResponse
// @Router /mechanics/{id}/availability [put]
func (mc *MechanicController) SetAvailability(ctx *gin.Context) {
	mechanicID := ctx.Param("id")

	var body schemas.SetAvailabilityBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest,
			schemas.NewBadRequestError("Invalid JSON format: "+err.Error(), ctx.FullPath()))
		return
	}

	mech, err := mc.Mechanics.SetAvailability(ctx.Request.Context(), mechanicID, *body.Available)
	if err != nil {
		if errors.Is(err, models.ErrMechanicNotFound) {
			ctx.JSON(http.StatusNotFound,
				schemas.NewNotFoundError(err.Error(), ctx.FullPath()))
			return
		}
		slog.Error("Failed to set mechanic availability",
			"mechanic_id", mechanicID,
			"error", err.Error())
		ctx.JSON(http.StatusInternalServerError,
			schemas.NewInternalError(err.Error(), ctx.FullPath()))
		return
	}

	ctx.JSON(http.StatusOK, mech)
}
