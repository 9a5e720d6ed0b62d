package main

import (
	"context"
	"errors"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/eureka-sidecar/component"
	"github.com/kbukum/eureka-sidecar/observability"
)

// telemetry owns the OTLP providers. It is registered first so it stops
// last and flushes the spans recorded while instances deregister.
type telemetry struct {
	tracing observability.TracerConfig
	meter   observability.MeterConfig

	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

var _ component.Describable = (*telemetry)(nil)

func (t *telemetry) Name() string { return "telemetry" }

func (t *telemetry) Start(ctx context.Context) error {
	if t.tracing.Enabled {
		tp, err := observability.InitTracer(ctx, &t.tracing)
		if err != nil {
			return err
		}
		t.tp = tp
	}
	if t.meter.Enabled {
		mp, err := observability.InitMeter(ctx, &t.meter)
		if err != nil {
			return err
		}
		t.mp = mp
	}
	return nil
}

func (t *telemetry) Stop(ctx context.Context) error {
	var errs []error
	if t.tp != nil {
		errs = append(errs, t.tp.Shutdown(ctx))
	}
	if t.mp != nil {
		errs = append(errs, t.mp.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

func (t *telemetry) Health(_ context.Context) component.Health {
	return component.Health{Name: t.Name(), Status: component.StatusHealthy}
}

func (t *telemetry) Describe() component.Description {
	details := "disabled"
	switch {
	case t.tracing.Enabled && t.meter.Enabled:
		details = "traces=" + t.tracing.Endpoint + " metrics=" + t.meter.Endpoint
	case t.tracing.Enabled:
		details = "traces=" + t.tracing.Endpoint
	case t.meter.Enabled:
		details = "metrics=" + t.meter.Endpoint
	}
	return component.Description{Name: "Telemetry", Type: "otlp", Details: details}
}
