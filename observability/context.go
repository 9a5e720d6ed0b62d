package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OperationContext tracks one registry call across its span and metrics.
type OperationContext struct {
	Registry    string
	Operation   string
	Service     string
	InstanceKey string
	StartTime   time.Time
	Metrics     *Metrics
}

// NewOperationContext creates a new operation context.
// If metrics is nil, metric recording is silently skipped.
func NewOperationContext(registry, operation, service, instanceKey string, metrics *Metrics) *OperationContext {
	return &OperationContext{
		Registry:    registry,
		Operation:   operation,
		Service:     service,
		InstanceKey: instanceKey,
		StartTime:   time.Now(),
		Metrics:     metrics,
	}
}

// StartSpanForOperation starts a span carrying the registry and instance attributes.
func (oc *OperationContext) StartSpanForOperation(ctx context.Context, tracer trace.Tracer, spanName string) (context.Context, trace.Span) {
	if tracer == nil {
		tracer = DefaultTracer()
	}
	ctx, span := tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String(AttrRegistry, oc.Registry),
		attribute.String(AttrOperation, oc.Operation),
		attribute.String(AttrService, oc.Service),
	)
	if oc.InstanceKey != "" {
		span.SetAttributes(attribute.String(AttrInstanceKey, oc.InstanceKey))
	}
	return ctx, span
}

// EndOperation ends the span and records the call metrics.
func (oc *OperationContext) EndOperation(ctx context.Context, span trace.Span, status string, err error) {
	duration := oc.Duration()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.SetAttributes(
		attribute.String(AttrOutcome, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	span.End()

	if oc.Metrics != nil {
		oc.Metrics.RecordRegistryCall(ctx, oc.Registry, oc.Operation, status, duration)
	}
}

// Duration returns the elapsed time since operation start.
func (oc *OperationContext) Duration() time.Duration {
	return time.Since(oc.StartTime)
}
