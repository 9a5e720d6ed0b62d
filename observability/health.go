package observability

// HealthStatus represents the health state reported by the actuator endpoint.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "UP"
	HealthStatusDown     HealthStatus = "DOWN"
	HealthStatusDegraded HealthStatus = "DEGRADED"
)

// Health describes the health of an individual component or instance.
type Health struct {
	Name    string            `json:"name"`
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// ServiceHealth describes the overall health of the sidecar.
type ServiceHealth struct {
	Service    string         `json:"service"`
	Status     HealthStatus   `json:"status"`
	Version    string         `json:"version,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	Components []Health       `json:"components,omitempty"`
}

// NewServiceHealth creates a ServiceHealth with status up.
func NewServiceHealth(service, version string) *ServiceHealth {
	return &ServiceHealth{
		Service: service,
		Status:  HealthStatusUp,
		Version: version,
	}
}

// AddComponent adds a component health result and degrades overall status if needed.
func (sh *ServiceHealth) AddComponent(ch Health) {
	sh.Components = append(sh.Components, ch)

	switch ch.Status {
	case HealthStatusDown:
		sh.Status = HealthStatusDown
	case HealthStatusDegraded:
		if sh.Status != HealthStatusDown {
			sh.Status = HealthStatusDegraded
		}
	}
}

// MarkDown forces the overall status to DOWN with a reason.
func (sh *ServiceHealth) MarkDown(reason string) {
	sh.Status = HealthStatusDown
	if sh.Details == nil {
		sh.Details = make(map[string]any)
	}
	sh.Details["reason"] = reason
}
