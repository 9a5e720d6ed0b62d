package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/eureka-sidecar/component"
	apperrors "github.com/kbukum/eureka-sidecar/errors"
	"github.com/kbukum/eureka-sidecar/instance"
	"github.com/kbukum/eureka-sidecar/lifecycle"
	"github.com/kbukum/eureka-sidecar/logger"
	"github.com/kbukum/eureka-sidecar/resilience"
	"github.com/kbukum/eureka-sidecar/source"
)

// Refresh statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Engine is the lifecycle surface the coordinator drives.
type Engine interface {
	Start(inst instance.ServiceInstance)
	StopActive(ctx context.Context) int
	StopAll(ctx context.Context, instances []instance.ServiceInstance)
	Update(ctx context.Context, store lifecycle.Store, req instance.UpdateRequest) (instance.ServiceInstance, error)
	ListRunning() []instance.ServiceInstance
	RunningCount() int
}

// RefreshResult summarises a RefreshAll call. Started counts the instances
// whose first registration attempt succeeded.
type RefreshResult struct {
	Status  string `json:"status"`
	Stopped int    `json:"stopped"`
	Loaded  int    `json:"loaded"`
	Started int    `json:"started"`
	Message string `json:"message,omitempty"`
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLoadRetry overrides the retry policy used when reading the source.
func WithLoadRetry(cfg resilience.RetryConfig) Option {
	return func(c *Coordinator) { c.retry = cfg }
}

// Coordinator owns the startup load and the administrative operations.
// Administrative calls are serialized so a refresh never overlaps an update.
type Coordinator struct {
	store  *instance.Store
	engine Engine
	src    source.Source
	retry  resilience.RetryConfig
	log    *logger.Logger

	mu      sync.Mutex
	started bool
	lastErr error
}

var (
	_ component.Component   = (*Coordinator)(nil)
	_ component.Describable = (*Coordinator)(nil)
)

// New creates a Coordinator.
func New(store *instance.Store, engine Engine, src source.Source, log *logger.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:  store,
		engine: engine,
		src:    src,
		retry:  resilience.DefaultRetryConfig(),
		log:    log.WithComponent("coordinator"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements component.Component.
func (c *Coordinator) Name() string { return "coordinator" }

// Start loads the instance list and starts a lifecycle for every record.
// A source that stays unreadable after retries fails startup.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	loaded, err := c.load(ctx)
	if err != nil {
		c.lastErr = err
		return err
	}
	started := c.startAll()
	c.started = true
	c.log.Info("instances started", logger.Fields("loaded", loaded, "started", started))
	return nil
}

// Stop deregisters every configured instance and shuts the engine down.
func (c *Coordinator) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.engine.StopAll(ctx, c.store.List())
	c.started = false
	c.log.Info("all instances stopped")
	return nil
}

// Health reports unhealthy when the last load failed and degraded when
// configured instances are not all heartbeating.
func (c *Coordinator) Health(_ context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}

	c.mu.Lock()
	lastErr := c.lastErr
	c.mu.Unlock()

	if lastErr != nil {
		h.Status = component.StatusUnhealthy
		h.Message = lastErr.Error()
		return h
	}
	configured, running := c.store.Len(), c.engine.RunningCount()
	if running < configured {
		h.Status = component.StatusDegraded
		h.Message = "not every configured instance is registered"
	}
	return h
}

// Describe implements component.Describable.
func (c *Coordinator) Describe() component.Description {
	return component.Description{
		Name:    "Coordinator",
		Type:    "lifecycle",
		Details: c.src.Describe(),
	}
}

// RefreshAll stops every active lifecycle, empties the store, reloads the
// source and starts everything again. A load failure leaves the store empty
// and is reported in the result rather than returned.
func (c *Coordinator) RefreshAll(ctx context.Context) RefreshResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	stopped := c.engine.StopActive(ctx)
	c.store.Clear()

	loaded, err := c.load(ctx)
	if err != nil {
		c.lastErr = err
		c.log.Error("refresh failed", logger.Fields(logger.FieldError, err.Error(), "stopped", stopped))
		return RefreshResult{Status: StatusError, Stopped: stopped, Message: err.Error()}
	}
	c.lastErr = nil

	c.startAll()
	started := c.engine.RunningCount()
	c.log.Info("refresh complete", logger.Fields(
		"stopped", stopped,
		"loaded", loaded,
		"started", started,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return RefreshResult{Status: StatusSuccess, Stopped: stopped, Loaded: loaded, Started: started}
}

// Update validates req and relocates the named instance. An unknown name
// yields a NOT_FOUND AppError.
func (c *Coordinator) Update(ctx context.Context, req instance.UpdateRequest) (instance.ServiceInstance, error) {
	if err := req.Validate(); err != nil {
		return instance.ServiceInstance{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	updated, err := c.engine.Update(ctx, c.store, req)
	if err != nil {
		return instance.ServiceInstance{}, err
	}
	c.log.Info("instance updated", logger.Fields(
		logger.FieldService, updated.ServiceName,
		logger.FieldInstanceID, updated.ID,
		"host", updated.HostName,
		"port", updated.Port(),
	))
	return updated, nil
}

// ListRunning returns the instances currently registered and heartbeating.
func (c *Coordinator) ListRunning() []instance.ServiceInstance {
	return c.engine.ListRunning()
}

// ListConfigured returns every instance in the store.
func (c *Coordinator) ListConfigured() []instance.ServiceInstance {
	return c.store.List()
}

// load reads the source with retries and imports the records. It reports
// how many records ended up in the store.
func (c *Coordinator) load(ctx context.Context) (int, error) {
	retry := c.retry
	retry.OnRetry = func(attempt int, err error, backoff time.Duration) {
		c.log.Warn("instance source unavailable, retrying", logger.Fields(
			logger.FieldAttempt, attempt,
			logger.FieldDelay, backoff.String(),
			logger.FieldError, err.Error(),
		))
	}

	records, err := resilience.Retry(ctx, retry, func() ([]instance.ServiceInstance, error) {
		return c.src.Load(ctx)
	})
	if err != nil {
		return 0, apperrors.SourceUnavailable(c.src.Describe(), err)
	}

	res := c.store.Import(records)
	for _, skipped := range res.Skipped {
		c.log.Warn("skipping invalid instance record", logger.Fields(
			logger.FieldService, skipped.Record.ServiceName,
			"host", skipped.Record.HostName,
			logger.FieldError, skipped.Err.Error(),
		))
	}
	c.log.Info("instances imported", logger.Fields(
		"source", c.src.Describe(),
		"added", res.Added,
		"updated", res.Updated,
		"skipped", len(res.Skipped),
	))
	return c.store.Len(), nil
}

func (c *Coordinator) startAll() int {
	list := c.store.List()
	for _, inst := range list {
		c.engine.Start(inst)
	}
	return len(list)
}
