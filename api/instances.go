package api

import (
	"fmt"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/eureka-sidecar/errors"
	"github.com/kbukum/eureka-sidecar/instance"
	"github.com/kbukum/eureka-sidecar/logger"
	"github.com/kbukum/eureka-sidecar/server"
)

// ClientsView lists the configured and the running instances.
type ClientsView struct {
	Configured []instance.ServiceInstance `json:"configured"`
	Running    []instance.ServiceInstance `json:"running"`
}

// UpdateInstance relocates one configured instance and restarts its
// lifecycle. Unknown names answer 404.
func (h *Handler) UpdateInstance(c *gin.Context) {
	var req instance.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return
	}

	h.log.Info("update requested", logger.Fields(logger.FieldService, req.ServiceName))
	if _, err := h.coord.Update(c.Request.Context(), req); err != nil {
		if apperrors.IsNotFound(err) {
			h.log.Warn("update for unknown instance", logger.Fields(logger.FieldService, req.ServiceName))
		}
		server.RespondWithError(c, err)
		return
	}

	server.RespondMessage(c, fmt.Sprintf("Instance '%s' updated and restarted.", req.ServiceName))
}

// Clients returns the configured and running instances.
func (h *Handler) Clients(c *gin.Context) {
	view := ClientsView{
		Configured: h.coord.ListConfigured(),
		Running:    h.coord.ListRunning(),
	}
	if view.Configured == nil {
		view.Configured = []instance.ServiceInstance{}
	}
	if view.Running == nil {
		view.Running = []instance.ServiceInstance{}
	}
	h.log.Debug("clients view", logger.Fields("configured", len(view.Configured), "running", len(view.Running)))
	server.RespondOK(c, view)
}
