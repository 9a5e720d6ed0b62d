// Package server provides the sidecar's HTTP server: a Gin engine mounted on
// a ServeMux and served with h2c, wrapped as a component.Component.
//
// # Middleware
//
// Built-in middleware (server/middleware):
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: request id generation and propagation
//   - RequestLogger: request logging with duration tracking
//   - BodySizeLimit: request body size limit
//   - LoopbackOnly: restricts a route to local callers
//
// # Endpoints
//
// Built-in endpoints (server/endpoint):
//
//   - /health: component health aggregation
//   - /alive: liveness probe
//   - /ready: readiness probe
//   - /version: build information
//   - /metrics: Prometheus scrape endpoint
package server
