package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/eureka-sidecar/component"
)

// HealthChecker returns health status for registered components.
type HealthChecker func(ctx context.Context) []component.Health

// probe is the body shared by the sidecar's own probes.
type probe struct {
	Status     string             `json:"status"`
	Service    string             `json:"service"`
	Timestamp  string             `json:"timestamp"`
	Uptime     string             `json:"uptime,omitempty"`
	Components []component.Health `json:"components,omitempty"`
}

func newProbe(status, service string) probe {
	return probe{Status: status, Service: service, Timestamp: time.Now().UTC().Format(time.RFC3339)}
}

// worst folds component statuses: any unhealthy wins, then degraded.
func worst(components []component.Health) component.HealthStatus {
	status := component.StatusHealthy
	for _, ch := range components {
		switch ch.Status {
		case component.StatusUnhealthy:
			return component.StatusUnhealthy
		case component.StatusDegraded:
			status = component.StatusDegraded
		}
	}
	return status
}

// Health reports the sidecar's components. Degraded still answers 200.
func Health(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		var components []component.Health
		if checker != nil {
			components = checker(c.Request.Context())
		}
		status := worst(components)

		body := newProbe(string(status), serviceName)
		body.Components = components
		code := http.StatusOK
		if status == component.StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, body)
	}
}

// Liveness answers as long as the process can serve HTTP.
func Liveness(serviceName string) gin.HandlerFunc {
	started := time.Now()
	return func(c *gin.Context) {
		body := newProbe("alive", serviceName)
		body.Uptime = time.Since(started).Truncate(time.Second).String()
		c.JSON(http.StatusOK, body)
	}
}

// Readiness fails while any component is unhealthy.
func Readiness(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if checker != nil && worst(checker(c.Request.Context())) == component.StatusUnhealthy {
			c.JSON(http.StatusServiceUnavailable, newProbe("not_ready", serviceName))
			return
		}
		c.JSON(http.StatusOK, newProbe("ready", serviceName))
	}
}
