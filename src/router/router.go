package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"session-service/src/config"
	"session-service/src/controller"
	"session-service/src/middleware"
	"session-service/src/service"
)

// Deps carries the services the router wires into controllers.
type Deps struct {
	Requests  *service.RequestService
	Arbiter   *service.Arbiter
	Sessions  *service.SessionService
	Sweeper   *service.Sweeper
	Capacity  *service.CapacityGuard
	Mechanics *service.MechanicService
	Logger    *logrus.Logger
}

// NewRouter sets up the HTTP routes for the session service.
func NewRouter(cfg *config.GlobalConfig, deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(gin.Recovery())

	requests := controller.NewRequestController(deps.Requests, deps.Arbiter)
	sessions := controller.NewSessionController(deps.Sessions)
	admin := controller.NewAdminController(deps.Sweeper, deps.Capacity)
	mechanics := controller.NewMechanicController(deps.Mechanics)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/requests", requests.Create)
	r.GET("/requests/pending", requests.ListPending)
	r.POST("/requests/:id/accept", requests.Accept)
	r.POST("/requests/:id/cancel", requests.Cancel)

	r.POST("/sessions", sessions.CreateScheduled)
	r.GET("/sessions/:id", sessions.Get)
	r.PATCH("/sessions/:id/status", sessions.UpdateStatus)
	r.POST("/sessions/:id/cancel", sessions.Cancel)

	r.PUT("/mechanics/:id/availability", mechanics.SetAvailability)

	adminGroup := r.Group("/admin", middleware.CronAuth(cfg.CronSecret))
	adminGroup.GET("/cleanup", admin.PreviewCleanup)
	adminGroup.POST("/cleanup", admin.ExecuteCleanup)
	adminGroup.GET("/capacity", admin.CapacityAudit)

	return r
}
