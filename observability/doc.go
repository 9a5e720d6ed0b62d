// Package observability wires tracing and metrics for the sidecar.
//
// Registry calls are traced with OpenTelemetry and exported over OTLP/HTTP
// when enabled. Lifecycle counters are kept in a Prometheus registry served
// at /metrics and mirrored to OpenTelemetry instruments when a meter
// provider is configured.
package observability
