package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/eureka-sidecar/logger"
)

const defaultTracerName = "github.com/kbukum/eureka-sidecar"

// TracerConfig is the tracing section. A disabled tracer leaves the global
// no-op provider in place.
type TracerConfig struct {
	Exporter `yaml:",inline" mapstructure:",squash"`
	// SampleRate is the fraction of root spans kept, from 0 to 1.
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

func DefaultTracerConfig(serviceName string) TracerConfig {
	return TracerConfig{Exporter: defaultExporter(serviceName), SampleRate: 1.0}
}

// InitTracer installs a batching OTLP tracer provider and the W3C
// propagators globally. The caller shuts the provider down.
func InitTracer(ctx context.Context, cfg *TracerConfig) (*sdktrace.TracerProvider, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exp, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("trace exporter %s: %w", cfg.Endpoint, err)
	}
	res, err := cfg.resource()
	if err != nil {
		return nil, fmt.Errorf("trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(cfg.SampleRate)),
		sdktrace.WithBatcher(exp),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	logger.Info("tracing enabled", logger.Fields("endpoint", cfg.Endpoint, "sample_rate", cfg.SampleRate))
	return tp, nil
}

// samplerFor keeps everything at 1 or above and nothing at 0 or below.
func samplerFor(rate float64) sdktrace.Sampler {
	if rate >= 1 {
		return sdktrace.AlwaysSample()
	}
	if rate <= 0 {
		return sdktrace.NeverSample()
	}
	return sdktrace.TraceIDRatioBased(rate)
}

func Tracer(name string) trace.Tracer { return otel.Tracer(name) }

// DefaultTracer is the tracer registry calls are recorded on.
func DefaultTracer() trace.Tracer { return Tracer(defaultTracerName) }

const (
	SpanRegister   = "registry.register"
	SpanHeartbeat  = "registry.heartbeat"
	SpanDeregister = "registry.deregister"
)

// Span and metric attribute keys.
const (
	AttrRegistry    = "registry.kind"
	AttrOperation   = "operation.name"
	AttrService     = "service.instance.name"
	AttrInstanceKey = "service.instance.key"
	AttrOutcome     = "outcome"
	AttrDurationMs  = "duration_ms"
)
