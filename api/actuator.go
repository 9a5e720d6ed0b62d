package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/eureka-sidecar/instance"
	"github.com/kbukum/eureka-sidecar/observability"
	"github.com/kbukum/eureka-sidecar/registry"
	"github.com/kbukum/eureka-sidecar/version"
)

const (
	detailClients = "eurekaClients"
	detailRunning = "running"
)

// Health reports DOWN with 503 when no instance is running or any running
// instance is not UP, and UP with 200 otherwise.
func (h *Handler) Health(c *gin.Context) {
	running := h.coord.ListRunning()
	health := observability.NewServiceHealth(h.service, version.Get().Version)

	if len(running) == 0 {
		health.MarkDown("no instances running")
		health.Details[detailClients] = "no instances running"
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}

	for _, inst := range running {
		status := observability.HealthStatusUp
		if !strings.EqualFold(inst.StatusOrDefault(), instance.StatusUp) {
			status = observability.HealthStatusDown
		}
		health.AddComponent(observability.Health{
			Name:    inst.ServiceName,
			Status:  status,
			Details: map[string]string{"instanceKey": registry.InstanceKey(inst)},
		})
	}

	health.Details = map[string]any{detailRunning: len(running)}
	if health.Status != observability.HealthStatusUp {
		health.Details[detailClients] = "not all instances are UP"
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}
	health.Details[detailClients] = fmt.Sprintf("%d instances running", len(running))
	c.JSON(http.StatusOK, health)
}

// Info reports the running count, one Status entry per running instance and
// the build information.
func (h *Handler) Info(c *gin.Context) {
	running := h.coord.ListRunning()
	info := gin.H{
		detailClients + ".runningCount": len(running),
		"build":                         version.Get(),
	}
	for _, inst := range running {
		info[detailClients+"."+inst.ServiceName] = "Status=" + inst.StatusOrDefault()
	}
	c.JSON(http.StatusOK, info)
}

// Refresh stops everything, reloads the instance list and starts it again.
// A failed reload is reported in the body with status "error".
func (h *Handler) Refresh(c *gin.Context) {
	h.log.Info("refresh requested")
	c.JSON(http.StatusOK, h.coord.RefreshAll(c.Request.Context()))
}
