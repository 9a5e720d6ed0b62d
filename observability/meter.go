package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/eureka-sidecar/logger"
)

// MeterConfig is the OTLP half of the metrics section.
type MeterConfig struct {
	Exporter `yaml:",inline" mapstructure:",squash"`
	// Interval between pushes to the collector.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{Exporter: defaultExporter(serviceName), Interval: 15 * time.Second}
}

// InitMeter installs a periodic OTLP meter provider globally. The caller
// shuts the provider down.
func InitMeter(ctx context.Context, cfg *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exp, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("metric exporter %s: %w", cfg.Endpoint, err)
	}
	res, err := cfg.resource()
	if err != nil {
		return nil, fmt.Errorf("metric resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, readerOpts...)),
	)
	otel.SetMeterProvider(mp)

	logger.Info("otlp metrics enabled", logger.Fields("endpoint", cfg.Endpoint, "interval", cfg.Interval.String()))
	return mp, nil
}

func Meter(name string) metric.Meter { return otel.Meter(name) }

// Metrics are the OTLP instruments for lifecycle and registry traffic.
type Metrics struct {
	registrations metric.Int64Counter
	heartbeats    metric.Int64Counter
	calls         metric.Int64Counter
	callSeconds   metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	counter := func(name, desc string) metric.Int64Counter {
		if err != nil {
			return nil
		}
		var c metric.Int64Counter
		if c, err = meter.Int64Counter(name, metric.WithDescription(desc)); err != nil {
			err = fmt.Errorf("counter %s: %w", name, err)
		}
		return c
	}
	m.registrations = counter("eureka.registrations", "Registration attempts by outcome")
	m.heartbeats = counter("eureka.heartbeats", "Heartbeat attempts by outcome")
	m.calls = counter("registry.calls", "Calls made to the service registry")
	if err != nil {
		return nil, err
	}

	m.callSeconds, err = meter.Float64Histogram("registry.call.duration",
		metric.WithDescription("Duration of registry calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("histogram registry.call.duration: %w", err)
	}
	return &m, nil
}

func (m *Metrics) RecordRegistration(ctx context.Context, service string, ok bool) {
	m.registrations.Add(ctx, 1, serviceOutcome(service, ok))
}

func (m *Metrics) RecordHeartbeat(ctx context.Context, service string, ok bool) {
	m.heartbeats.Add(ctx, 1, serviceOutcome(service, ok))
}

// RecordRegistryCall counts one backend call and its latency.
func (m *Metrics) RecordRegistryCall(ctx context.Context, registry, operation, status string, duration time.Duration) {
	kind := attribute.String(AttrRegistry, registry)
	op := attribute.String(AttrOperation, operation)
	m.calls.Add(ctx, 1, metric.WithAttributes(kind, op, attribute.String(AttrOutcome, status)))
	m.callSeconds.Record(ctx, duration.Seconds(), metric.WithAttributes(kind, op))
}

func serviceOutcome(service string, ok bool) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("service", service),
		attribute.String(AttrOutcome, outcome(ok)),
	)
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
