package lifecycle

import (
	"context"
	"sort"
	"sync"
	"time"

	apperrors "github.com/kbukum/eureka-sidecar/errors"
	"github.com/kbukum/eureka-sidecar/instance"
	"github.com/kbukum/eureka-sidecar/logger"
	"github.com/kbukum/eureka-sidecar/registry"
	"github.com/kbukum/eureka-sidecar/resilience"
)

// Store is the part of instance.Store the engine mutates on update.
type Store interface {
	FindByName(name string) (instance.ServiceInstance, bool)
	Save(inst instance.ServiceInstance) instance.ServiceInstance
}

// Option configures an Engine.
type Option func(*Engine)

// WithRecorder sets the outcome counter sink.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.rec = r
		}
	}
}

// Engine owns every active lifecycle. Sessions are keyed by instance id and
// never share a lock, so slow registry calls for one instance do not block
// another.
type Engine struct {
	client  registry.Client
	cfg     Config
	backoff resilience.Backoff
	rec     Recorder
	log     *logger.Logger

	mu       sync.RWMutex // guards closed against concurrent Start
	closed   bool
	root     context.Context
	shutdown context.CancelFunc

	sessions sync.Map // int64 -> *session
	running  sync.Map // int64 -> *session, registered and heartbeating
}

// New creates an Engine. Zero config fields take their defaults.
func New(client registry.Client, cfg Config, log *logger.Logger, opts ...Option) (*Engine, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	root, cancel := context.WithCancel(context.Background())
	e := &Engine{
		client:   client,
		cfg:      cfg,
		backoff:  cfg.backoff(),
		rec:      nopRecorder{},
		log:      log.WithComponent("lifecycle"),
		root:     root,
		shutdown: cancel,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Start begins the lifecycle of inst at registration attempt 0. The first
// attempt runs on the caller's goroutine; retries and heartbeats run in the
// background. Starting an instance that already has an active lifecycle is a
// no-op.
func (e *Engine) Start(inst instance.ServiceInstance) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		e.log.Warn("engine is shut down, not starting instance", e.fields(inst))
		return
	}
	s := newSession(e.root, inst)
	s.wg.Add(1)
	if _, loaded := e.sessions.LoadOrStore(inst.ID, s); loaded {
		e.mu.RUnlock()
		s.wg.Done()
		s.cancel()
		e.log.Warn("instance already has an active lifecycle", e.fields(inst))
		return
	}
	e.mu.RUnlock()

	defer s.wg.Done()
	e.register(s, 0)
}

// register performs one registration attempt and schedules what follows.
func (e *Engine) register(s *session, attempt int) {
	if s.stopping() {
		return
	}

	if e.client.Register(s.ctx, s.inst) {
		e.rec.RegistrationSucceeded(s.inst.ServiceName)
		e.log.Info("registration succeeded", e.fields(s.inst, logger.FieldAttempt, attempt))
		e.beginHeartbeating(s)
		return
	}

	e.rec.RegistrationFailed(s.inst.ServiceName)
	if attempt >= e.cfg.registerBudget() {
		e.log.Error("registration failed permanently", e.fields(s.inst, logger.FieldAttempt, attempt))
		e.abandon(s)
		return
	}

	delay := e.backoff.Delay(attempt)
	e.log.Warn("registration failed, retrying", e.fields(s.inst,
		logger.FieldAttempt, attempt+1,
		logger.FieldDelay, delay.String(),
	))
	s.goAfter(s.ctx, delay, func() { e.register(s, attempt+1) })
}

// abandon ends a lifecycle whose registration budget ran out. The instance
// stays unregistered until it is started again.
func (e *Engine) abandon(s *session) {
	e.sessions.CompareAndDelete(s.inst.ID, s)
	e.running.CompareAndDelete(s.inst.ID, s)
	s.halt()
}

// beginHeartbeating installs a fresh heartbeat schedule that ticks now and
// then every HeartbeatInterval.
func (e *Engine) beginHeartbeating(s *session) {
	hb, ok := s.newHeartbeatTrack()
	if !ok {
		return
	}
	e.running.Store(s.inst.ID, s)
	s.goAfter(hb, 0, func() { e.heartbeatLoop(s, hb) })
}

func (e *Engine) heartbeatLoop(s *session, hb context.Context) {
	ticker := time.NewTicker(e.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		if e.tick(s, hb) {
			// The registry forgot the instance: this schedule is superseded
			// by the one the new registration installs.
			s.dropHeartbeatTrack()
			e.register(s, 0)
			return
		}
		select {
		case <-hb.Done():
			return
		case <-ticker.C:
		}
	}
}

// tick sends one steady-state heartbeat. It reports true when the instance
// must be registered again.
func (e *Engine) tick(s *session, hb context.Context) bool {
	if s.stopping() || hb.Err() != nil {
		return false
	}

	switch e.client.Heartbeat(hb, s.inst) {
	case registry.HeartbeatOK:
		e.rec.HeartbeatSucceeded(s.inst.ServiceName)
	case registry.HeartbeatNotFound:
		if hb.Err() != nil {
			return false
		}
		e.log.Warn("registry does not know instance, registering again", e.fields(s.inst))
		return true
	default:
		if hb.Err() == nil {
			e.retryHeartbeat(s, hb, 1)
		}
	}
	return false
}

// retryHeartbeat is one link of a heartbeat backoff chain. The chain runs
// beside the steady ticks and ends on the first success or when the budget
// is spent.
func (e *Engine) retryHeartbeat(s *session, hb context.Context, attempt int) {
	if attempt > e.cfg.heartbeatBudget() {
		e.rec.HeartbeatFailed(s.inst.ServiceName)
		e.log.Error("heartbeat retries exhausted", e.fields(s.inst, logger.FieldAttempt, attempt-1))
		return
	}

	delay := e.backoff.Delay(attempt)
	s.goAfter(hb, delay, func() {
		if s.stopping() {
			return
		}
		switch e.client.Heartbeat(hb, s.inst) {
		case registry.HeartbeatOK:
			e.rec.HeartbeatSucceeded(s.inst.ServiceName)
			e.log.Info("heartbeat recovered", e.fields(s.inst, logger.FieldAttempt, attempt))
		case registry.HeartbeatNotFound:
			// Re-registration belongs to the steady schedule; its next tick
			// sees the same answer. Not a failure, so nothing is counted.
		default:
			if hb.Err() != nil {
				return
			}
			e.rec.HeartbeatFailed(s.inst.ServiceName)
			e.log.Warn("heartbeat retry failed", e.fields(s.inst,
				logger.FieldAttempt, attempt,
				logger.FieldDelay, e.backoff.Delay(attempt+1).String(),
			))
			e.retryHeartbeat(s, hb, attempt+1)
		}
	})
}

// Stop ends the lifecycle of the instance with inst.ID: it sets the stop
// flag, cancels pending work, waits for in-flight calls to return, then
// deregisters the descriptor that was registered. The deregistration keeps
// ctx's values but not its cancellation, and is bounded by
// DeregisterTimeout. Stopping an instance with no active lifecycle does
// nothing. It reports whether a lifecycle was stopped.
func (e *Engine) Stop(ctx context.Context, inst instance.ServiceInstance) bool {
	v, ok := e.sessions.LoadAndDelete(inst.ID)
	if !ok {
		return false
	}
	s := v.(*session)
	if !s.halt() {
		return false
	}
	s.wait()

	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.DeregisterTimeout)
	defer cancel()
	e.client.Deregister(dctx, s.inst)
	e.running.CompareAndDelete(s.inst.ID, s)
	e.log.Info("instance stopped and deregistered", e.fields(s.inst))
	return true
}

// StopActive stops every active lifecycle, including those still retrying
// registration, and returns how many were stopped.
func (e *Engine) StopActive(ctx context.Context) int {
	var active []instance.ServiceInstance
	e.sessions.Range(func(_, v any) bool {
		active = append(active, v.(*session).inst)
		return true
	})

	stopped := 0
	for _, inst := range active {
		if e.Stop(ctx, inst) {
			stopped++
		}
	}
	return stopped
}

// StopAll stops every listed instance and then shuts the engine down.
func (e *Engine) StopAll(ctx context.Context, instances []instance.ServiceInstance) {
	for _, inst := range instances {
		e.Stop(ctx, inst)
	}
	e.Shutdown()
}

// Shutdown cancels every remaining lifecycle without deregistering and waits
// for their goroutines. No work runs afterwards and Start becomes a no-op.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.shutdown()

	var remaining []*session
	e.sessions.Range(func(k, v any) bool {
		e.sessions.Delete(k)
		remaining = append(remaining, v.(*session))
		return true
	})
	for _, s := range remaining {
		s.halt()
		s.wait()
		e.running.CompareAndDelete(s.inst.ID, s)
	}
	e.log.Info("lifecycle engine shut down", logger.Fields("abandoned", len(remaining)))
}

// Update relocates the instance named by req: it stops the current
// lifecycle, applies the new connection fields, saves the record and starts
// it again. An unknown service name yields a NOT_FOUND AppError and touches
// neither the store nor the registry.
func (e *Engine) Update(ctx context.Context, store Store, req instance.UpdateRequest) (instance.ServiceInstance, error) {
	inst, ok := store.FindByName(req.ServiceName)
	if !ok {
		return instance.ServiceInstance{}, apperrors.NotFound("service instance", req.ServiceName)
	}

	e.Stop(ctx, inst)
	req.Apply(&inst)
	saved := store.Save(inst)
	e.Start(saved)
	return saved, nil
}

// ListRunning returns the instances currently registered and heartbeating,
// ordered by id.
func (e *Engine) ListRunning() []instance.ServiceInstance {
	var out []instance.ServiceInstance
	e.running.Range(func(_, v any) bool {
		out = append(out, v.(*session).inst)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RunningCount returns len(ListRunning()) without building the slice.
func (e *Engine) RunningCount() int {
	n := 0
	e.running.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// IsRunning reports whether the instance with id is heartbeating.
func (e *Engine) IsRunning(id int64) bool {
	_, ok := e.running.Load(id)
	return ok
}

// ActiveCount counts lifecycles that are registering or heartbeating.
func (e *Engine) ActiveCount() int {
	n := 0
	e.sessions.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (e *Engine) fields(inst instance.ServiceInstance, kv ...any) map[string]interface{} {
	f := logger.Fields(kv...)
	f[logger.FieldService] = inst.ServiceName
	f[logger.FieldInstanceID] = inst.ID
	f[logger.FieldInstanceKey] = registry.InstanceKey(inst)
	return f
}
