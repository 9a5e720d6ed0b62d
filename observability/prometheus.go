package observability

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics exposes the lifecycle counters for scraping at /metrics.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	registrations       prometheus.Counter
	registrationsFailed prometheus.Counter
	heartbeats          prometheus.Counter
	heartbeatsFailed    prometheus.Counter

	running atomic.Pointer[func() int]
}

// NewPrometheusMetrics creates the counters on a private registry together
// with the Go runtime and process collectors.
func NewPrometheusMetrics() *PrometheusMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &PrometheusMetrics{registry: reg}
	m.registrations = factory.NewCounter(prometheus.CounterOpts{
		Name: "eureka_registrations_total",
		Help: "Number of successful registrations",
	})
	m.registrationsFailed = factory.NewCounter(prometheus.CounterOpts{
		Name: "eureka_registrations_failed_total",
		Help: "Number of failed registration attempts",
	})
	m.heartbeats = factory.NewCounter(prometheus.CounterOpts{
		Name: "eureka_heartbeats_total",
		Help: "Number of successful heartbeats",
	})
	m.heartbeatsFailed = factory.NewCounter(prometheus.CounterOpts{
		Name: "eureka_heartbeats_failed_total",
		Help: "Number of failed heartbeat attempts",
	})
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "eureka_clients_running",
		Help: "Number of instances currently registered and heartbeating",
	}, m.runningCount)

	return m
}

// TrackRunning sets the function used to report eureka_clients_running.
func (m *PrometheusMetrics) TrackRunning(fn func() int) {
	m.running.Store(&fn)
}

func (m *PrometheusMetrics) runningCount() float64 {
	fn := m.running.Load()
	if fn == nil {
		return 0
	}
	return float64((*fn)())
}

// Registry returns the underlying Prometheus registry.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the scrape handler for this registry.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
