package observability

import "context"

// Recorder fans lifecycle outcomes out to Prometheus and OpenTelemetry.
// Either backend may be nil.
type Recorder struct {
	prom *PrometheusMetrics
	otel *Metrics
}

// NewRecorder creates a Recorder over the given backends.
func NewRecorder(prom *PrometheusMetrics, otel *Metrics) *Recorder {
	return &Recorder{prom: prom, otel: otel}
}

func (r *Recorder) RegistrationSucceeded(service string) {
	if r.prom != nil {
		r.prom.registrations.Inc()
	}
	if r.otel != nil {
		r.otel.RecordRegistration(context.Background(), service, true)
	}
}

func (r *Recorder) RegistrationFailed(service string) {
	if r.prom != nil {
		r.prom.registrationsFailed.Inc()
	}
	if r.otel != nil {
		r.otel.RecordRegistration(context.Background(), service, false)
	}
}

func (r *Recorder) HeartbeatSucceeded(service string) {
	if r.prom != nil {
		r.prom.heartbeats.Inc()
	}
	if r.otel != nil {
		r.otel.RecordHeartbeat(context.Background(), service, true)
	}
}

func (r *Recorder) HeartbeatFailed(service string) {
	if r.prom != nil {
		r.prom.heartbeatsFailed.Inc()
	}
	if r.otel != nil {
		r.otel.RecordHeartbeat(context.Background(), service, false)
	}
}
