package httpclient

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed call.
type Kind int

const (
	// KindTransport covers refused connections, DNS failures and broken bodies.
	KindTransport Kind = iota
	// KindTimeout means the deadline passed before a response arrived.
	KindTimeout
	// KindNotFound is an explicit 404.
	KindNotFound
	// KindStatus is any other non-2xx status.
	KindStatus
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindNotFound:
		return "not_found"
	case KindStatus:
		return "status"
	default:
		return "transport"
	}
}

// Error is returned by Do for every failed call.
type Error struct {
	Kind       Kind
	Method     string
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s: %s (HTTP %d)", e.Method, e.URL, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Method, e.URL, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Temporary reports whether repeating the call may succeed.
func (e *Error) Temporary() bool {
	switch e.Kind {
	case KindTransport, KindTimeout:
		return true
	case KindStatus:
		return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
	default:
		return false
	}
}

// statusError returns nil for 2xx codes.
func statusError(method, url string, code int) *Error {
	if code >= 200 && code < 300 {
		return nil
	}
	kind := KindStatus
	if code == http.StatusNotFound {
		kind = KindNotFound
	}
	return &Error{Kind: kind, Method: method, URL: url, StatusCode: code}
}

func kindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsNotFound reports whether err is an explicit 404.
func IsNotFound(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindNotFound
}

// IsTimeout reports whether err is a deadline failure.
func IsTimeout(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindTimeout
}
