package registry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/eureka-sidecar/instance"
	"github.com/kbukum/eureka-sidecar/observability"
)

var (
	errRegisterRejected = errors.New("registration not accepted")
	errHeartbeatFailed  = errors.New("heartbeat failed")
)

// traced wraps a Client with a span and a call-duration metric per operation.
type traced struct {
	next    Client
	name    string
	tracer  trace.Tracer
	metrics *observability.Metrics
}

// Traced decorates next with tracing and registry-call metrics. A nil tracer
// uses the global one; nil metrics skips recording.
func Traced(next Client, tracer trace.Tracer, metrics *observability.Metrics) Client {
	name := "registry"
	if n, ok := next.(Named); ok {
		name = n.Name()
	}
	return &traced{next: next, name: name, tracer: tracer, metrics: metrics}
}

func (t *traced) Name() string { return t.name }

func (t *traced) Register(ctx context.Context, inst instance.ServiceInstance) bool {
	op := observability.NewOperationContext(t.name, "register", AppName(inst.ServiceName), InstanceKey(inst), t.metrics)
	ctx, span := op.StartSpanForOperation(ctx, t.tracer, observability.SpanRegister)

	ok := t.next.Register(ctx, inst)
	var err error
	if !ok {
		err = errRegisterRejected
	}
	op.EndOperation(ctx, span, outcome(ok), err)
	return ok
}

func (t *traced) Heartbeat(ctx context.Context, inst instance.ServiceInstance) HeartbeatResult {
	op := observability.NewOperationContext(t.name, "heartbeat", AppName(inst.ServiceName), InstanceKey(inst), t.metrics)
	ctx, span := op.StartSpanForOperation(ctx, t.tracer, observability.SpanHeartbeat)

	res := t.next.Heartbeat(ctx, inst)
	var err error
	if res == HeartbeatFailed {
		err = errHeartbeatFailed
	}
	op.EndOperation(ctx, span, res.String(), err)
	return res
}

func (t *traced) Deregister(ctx context.Context, inst instance.ServiceInstance) {
	op := observability.NewOperationContext(t.name, "deregister", AppName(inst.ServiceName), InstanceKey(inst), t.metrics)
	ctx, span := op.StartSpanForOperation(ctx, t.tracer, observability.SpanDeregister)

	t.next.Deregister(ctx, inst)
	op.EndOperation(ctx, span, "done", nil)
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}
