package resilience

import (
	"context"
	"time"
)

// Backoff computes capped exponential delays: Unit * 2^attempt, never more
// than Max. Attempt numbering starts at zero.
type Backoff struct {
	Unit time.Duration
	Max  time.Duration
}

// DefaultBackoff is one second doubling up to one minute.
var DefaultBackoff = Backoff{Unit: time.Second, Max: time.Minute}

// Delay returns the wait before the given attempt.
func (b Backoff) Delay(attempt int) time.Duration {
	unit, ceiling := b.Unit, b.Max
	if unit <= 0 {
		unit = DefaultBackoff.Unit
	}
	if ceiling <= 0 {
		ceiling = DefaultBackoff.Max
	}
	if attempt < 0 {
		attempt = 0
	}

	d := unit
	for i := 0; i < attempt; i++ {
		if d >= ceiling/2 {
			return ceiling
		}
		d *= 2
	}
	return min(d, ceiling)
}

// Sleep waits for d or until ctx is done, whichever comes first.
// It returns ctx.Err() when the wait was cut short.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
