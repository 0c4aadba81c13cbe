package controller

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"session-service/src/schemas"
	"session-service/src/service"
	"session-service/src/store"
)

// AdminController exposes the on-demand cleanup and the capacity audit. The
// background ticker runs the same sweep on a timer; implement once, expose
// twice.
type AdminController struct {
	Sweeper  *service.Sweeper
	Capacity *service.CapacityGuard
}

// NewAdminController creates an admin controller.
func NewAdminController(sweeper *service.Sweeper, capacity *service.CapacityGuard) *AdminController {
	return &AdminController{Sweeper: sweeper, Capacity: capacity}
}

// @Summary Preview cleanup
// @Description Counts what a sweep would terminalize, without mutating anything
// @Tags admin
// @Produce json
// @Success 200 {object} service.SweepSummary
// @Router /admin/cleanup [get]
func (ac *AdminController) PreviewCleanup(ctx *gin.Context) {
	summary, err := ac.Sweeper.Preview(ctx.Request.Context())
	if err != nil {
		slog.Error("Cleanup preview failed", "error", err.Error())
		ctx.JSON(http.StatusInternalServerError,
			schemas.NewInternalError(err.Error(), ctx.FullPath()))
		return
	}
	ctx.JSON(http.StatusOK, summary)
}

// @Summary Execute cleanup
// @Description Runs one sweep immediately and returns the summary
// @Tags admin
// @Produce json
// @Success 200 {object} service.SweepSummary
// @Router /admin/cleanup [post]
func (ac *AdminController) ExecuteCleanup(ctx *gin.Context) {
	summary, err := ac.Sweeper.Sweep(ctx.Request.Context())
	if err != nil {
		slog.Error("On-demand sweep failed", "error", err.Error())
		ctx.JSON(http.StatusInternalServerError,
			schemas.NewInternalError(err.Error(), ctx.FullPath()))
		return
	}
	ctx.JSON(http.StatusOK, summary)
}

// @Summary Capacity audit
// @Description Lists mechanics holding more than one active session
// @Tags admin
// @Produce json
// @Success 200 {array} store.MechanicLoad
// @Router /admin/capacity [get]
func (ac *AdminController) CapacityAudit(ctx *gin.Context) {
	loads, err := ac.Capacity.Reconcile(ctx.Request.Context())
	if err != nil {
		slog.Error("Capacity audit failed", "error", err.Error())
		ctx.JSON(http.StatusInternalServerError,
			schemas.NewInternalError(err.Error(), ctx.FullPath()))
		return
	}
	if loads == nil {
		loads = []store.MechanicLoad{}
	}
	ctx.JSON(http.StatusOK, gin.H{"over_capacity": loads})
}
