package resilience

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// RetryConfig bounds a Retry call.
type RetryConfig struct {
	// MaxAttempts counts the first call too.
	MaxAttempts int
	// Backoff spaces the attempts; the wait after attempt n is Backoff.Delay(n-1).
	Backoff Backoff
	// Jitter spreads each wait by up to this fraction in either direction.
	Jitter float64
	// RetryIf decides whether an error is worth another attempt.
	RetryIf func(error) bool
	// OnRetry runs before each wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultRetryConfig is used for loading instance sources: three attempts
// 100ms and 200ms apart.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		Backoff:     Backoff{Unit: 100 * time.Millisecond, Max: 10 * time.Second},
		Jitter:      0.1,
		RetryIf:     DefaultRetryIf,
	}
}

// DefaultRetryIf retries everything except cancellation.
func DefaultRetryIf(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Retry calls fn until it succeeds, RetryIf rejects the error, attempts run
// out or ctx is done. It returns the last error seen.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.RetryIf == nil {
		cfg.RetryIf = DefaultRetryIf
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !cfg.RetryIf(err) || attempt == cfg.MaxAttempts {
			break
		}

		wait := cfg.wait(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, wait)
		}
		if err := Sleep(ctx, wait); err != nil {
			return zero, err
		}
	}
	return zero, lastErr
}

func (c RetryConfig) wait(attempt int) time.Duration {
	d := c.Backoff.Delay(attempt - 1)
	if c.Jitter <= 0 {
		return d
	}
	spread := float64(d) * c.Jitter
	return max(time.Duration(float64(d)+(rand.Float64()*2-1)*spread), 0)
}
