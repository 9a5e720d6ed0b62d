// Package errors provides the structured error type shared by the sidecar's
// admin API, registry adapters and instance sources.
//
// Every AppError carries a machine-readable code, a recommended HTTP status
// and a retryable hint. Handlers turn it into a JSON envelope via ToResponse.
package errors
