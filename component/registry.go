package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbukum/eureka-sidecar/logger"
)

// StopTimeout bounds each component's Stop call.
const StopTimeout = 10 * time.Second

type entry struct {
	c       Component
	started atomic.Bool
}

// Registry starts components in registration order and stops them in
// reverse. The lock only guards the entry list, so health probes keep
// answering while a slow Start or Stop is in progress.
type Registry struct {
	mu      sync.RWMutex
	entries []*entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends c. Names must be unique.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.c.Name() == c.Name() {
			return fmt.Errorf("component %s already registered", c.Name())
		}
	}
	r.entries = append(r.entries, &entry{c: c})
	logger.Debug("component registered", logger.Fields(logger.FieldComponent, c.Name()))
	return nil
}

func (r *Registry) snapshot() []*entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*entry(nil), r.entries...)
}

// StartAll starts every component not yet started. When one fails, the ones
// started before it are stopped again and the error is returned.
func (r *Registry) StartAll(ctx context.Context) error {
	entries := r.snapshot()
	logger.Info("starting components", logger.Fields("count", len(entries)))

	for i, e := range entries {
		if e.started.Load() {
			continue
		}
		if err := e.c.Start(ctx); err != nil {
			logger.Error("component start failed", logger.Fields(
				logger.FieldComponent, e.c.Name(),
				logger.FieldError, err.Error(),
			))
			if stopErr := stopEntries(ctx, entries[:i]); stopErr != nil {
				err = errors.Join(err, stopErr)
			}
			return fmt.Errorf("start %s: %w", e.c.Name(), err)
		}
		e.started.Store(true)
		logger.Debug("component started", logger.Fields(logger.FieldComponent, e.c.Name()))
	}
	return nil
}

// StopAll stops started components in reverse order, each within
// StopTimeout, and joins their errors.
func (r *Registry) StopAll(ctx context.Context) error {
	logger.Info("stopping components")
	return stopEntries(ctx, r.snapshot())
}

func stopEntries(ctx context.Context, entries []*entry) error {
	var errs []error
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if !e.started.CompareAndSwap(true, false) {
			continue
		}
		stopCtx, cancel := context.WithTimeout(ctx, StopTimeout)
		err := e.c.Stop(stopCtx)
		cancel()
		if err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", e.c.Name(), err))
			logger.Error("component stop failed", logger.Fields(
				logger.FieldComponent, e.c.Name(),
				logger.FieldError, err.Error(),
			))
			continue
		}
		logger.Info("component stopped", logger.Fields(logger.FieldComponent, e.c.Name()))
	}
	return errors.Join(errs...)
}

// HealthAll asks every component for its health, in registration order.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	entries := r.snapshot()
	out := make([]Health, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.c.Health(ctx))
	}
	return out
}

// Descriptions returns the startup summary of every Describable component.
func (r *Registry) Descriptions() []Description {
	var out []Description
	for _, e := range r.snapshot() {
		d, ok := e.c.(Describable)
		if !ok {
			continue
		}
		desc := d.Describe()
		if desc.Name == "" {
			desc.Name = e.c.Name()
		}
		out = append(out, desc)
	}
	return out
}
