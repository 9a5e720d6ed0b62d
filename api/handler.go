package api

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/eureka-sidecar/coordinator"
	"github.com/kbukum/eureka-sidecar/instance"
	"github.com/kbukum/eureka-sidecar/logger"
	"github.com/kbukum/eureka-sidecar/server/middleware"
)

// Coordinator is the administrative surface the handlers call.
type Coordinator interface {
	RefreshAll(ctx context.Context) coordinator.RefreshResult
	Update(ctx context.Context, req instance.UpdateRequest) (instance.ServiceInstance, error)
	ListRunning() []instance.ServiceInstance
	ListConfigured() []instance.ServiceInstance
}

// Handler serves the administrative routes.
type Handler struct {
	coord   Coordinator
	service string
	log     *logger.Logger
}

// New creates a Handler. service names the sidecar in health output.
func New(coord Coordinator, service string, log *logger.Logger) *Handler {
	return &Handler{
		coord:   coord,
		service: service,
		log:     log.WithComponent("api"),
	}
}

// Register installs the routes on r.
func (h *Handler) Register(r gin.IRouter) {
	actuator := r.Group("/actuator")
	actuator.GET("/health", h.Health)
	actuator.GET("/info", h.Info)
	actuator.POST("/refresh", h.Refresh)

	instances := r.Group("/instances", middleware.LoopbackOnly(h.log))
	instances.PUT("/update", h.UpdateInstance)

	r.GET("/", h.Clients)
	r.GET("/clients", h.Clients)
}
