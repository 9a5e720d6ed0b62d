package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/eureka-sidecar/instance"
	"github.com/kbukum/eureka-sidecar/resilience"
)

// session is the state of one active lifecycle. It lives from Start until
// Stop, engine shutdown, or an exhausted registration budget.
type session struct {
	inst   instance.ServiceInstance
	ctx    context.Context
	cancel context.CancelFunc

	mu            sync.Mutex
	stopRequested bool
	hbCancel      context.CancelFunc
	wg            sync.WaitGroup
}

func newSession(parent context.Context, inst instance.ServiceInstance) *session {
	ctx, cancel := context.WithCancel(parent)
	return &session{inst: inst, ctx: ctx, cancel: cancel}
}

// stopping reports whether Stop has been requested.
func (s *session) stopping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopRequested
}

// halt sets the stop flag and cancels every wait and call of the session.
// It reports false if the session was already halted.
func (s *session) halt() bool {
	s.mu.Lock()
	if s.stopRequested {
		s.mu.Unlock()
		return false
	}
	s.stopRequested = true
	s.mu.Unlock()

	s.cancel()
	return true
}

// goAfter runs fn on a tracked goroutine once d has elapsed on ctx. Nothing
// is scheduled after halt.
func (s *session) goAfter(ctx context.Context, d time.Duration, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopRequested {
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := resilience.Sleep(ctx, d); err != nil {
			return
		}
		fn()
	}()
	return true
}

// newHeartbeatTrack replaces the current heartbeat schedule with a fresh one
// and returns its context. The previous schedule, and any backoff chains it
// spawned, are cancelled.
func (s *session) newHeartbeatTrack() (context.Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopRequested {
		return nil, false
	}
	if s.hbCancel != nil {
		s.hbCancel()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.hbCancel = cancel
	return ctx, true
}

// dropHeartbeatTrack cancels the current heartbeat schedule, if any.
func (s *session) dropHeartbeatTrack() {
	s.mu.Lock()
	if s.hbCancel != nil {
		s.hbCancel()
		s.hbCancel = nil
	}
	s.mu.Unlock()
}

// wait blocks until every goroutine of the session has returned.
func (s *session) wait() {
	s.wg.Wait()
}
