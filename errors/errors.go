package errors

import (
	"fmt"
	"net/http"
)

// AppError carries what the admin API reports to clients alongside the
// underlying cause, which is only logged.
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// New derives Retryable from the code.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus, Retryable: IsRetryableCode(code)}
}

func (e *AppError) with(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

func (e *AppError) because(cause error) *AppError {
	e.Cause = cause
	return e
}

// NotFound reports a missing resource, naming id when there is one.
func NotFound(resource, id string) *AppError {
	if id == "" {
		return New(ErrCodeNotFound, resource+" not found", http.StatusNotFound).with("resource", resource)
	}
	return New(ErrCodeNotFound, fmt.Sprintf("%s '%s' not found", resource, id), http.StatusNotFound).
		with("resource", resource).with("id", id)
}

func InvalidInput(field, reason string) *AppError {
	e := New(ErrCodeInvalidInput, "Invalid input: "+reason, http.StatusBadRequest)
	if field != "" {
		e.with("field", field)
	}
	return e
}

// Validation wraps a joined list of field messages.
func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message, http.StatusBadRequest)
}

func Forbidden(reason string) *AppError {
	if reason == "" {
		reason = "You don't have permission to perform this action."
	}
	return New(ErrCodeForbidden, reason, http.StatusForbidden)
}

// SourceUnavailable means the instance list could not be loaded. Callers may
// retry.
func SourceUnavailable(source string, cause error) *AppError {
	msg := fmt.Sprintf("The instance source %s could not be read.", source)
	return New(ErrCodeSourceUnavailable, msg, http.StatusServiceUnavailable).with("source", source).because(cause)
}

func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "An unexpected error occurred.", http.StatusInternalServerError).because(cause)
}
