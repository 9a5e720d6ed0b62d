package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kbukum/eureka-sidecar/component"
	"github.com/kbukum/eureka-sidecar/logger"
)

// App owns the component registry and drives start, ready, wait and stop.
// C is the process config; any struct embedding config.ServiceConfig fits.
type App[C Config] struct {
	Name       string
	Version    string
	Cfg        C
	Components *component.Registry
	Logger     *logger.Logger

	gracefulTimeout time.Duration
	onReady         []Hook
	onStop          []Hook
}

// NewApp applies defaults, validates cfg and sets up logging.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	base := cfg.GetServiceConfig()

	o := resolveOptions(opts)
	app := &App[C]{
		Name:            base.Name,
		Version:         base.Version,
		Cfg:             cfg,
		Components:      component.NewRegistry(),
		gracefulTimeout: o.gracefulTimeout,
		Logger:          o.logger,
	}
	if app.Logger == nil {
		logger.Init(&base.Logging)
		app.Logger = logger.GetGlobalLogger()
	}
	return app, nil
}

// RegisterComponent adds c to the registry.
func (a *App[C]) RegisterComponent(c component.Component) error {
	return a.Components.Register(c)
}

// unhealthy lists the components not reporting healthy, as name=status.
func (a *App[C]) unhealthy(ctx context.Context) []string {
	var out []string
	for _, h := range a.Components.HealthAll(ctx) {
		if h.Status == component.StatusHealthy {
			continue
		}
		detail := h.Name + "=" + string(h.Status)
		if h.Message != "" {
			detail += "(" + h.Message + ")"
		}
		out = append(out, detail)
	}
	return out
}

// Run starts every component, runs the ready hooks, blocks until a signal
// or ctx is done, then shuts down within the graceful timeout.
func (a *App[C]) Run(ctx context.Context) error {
	start := time.Now()
	a.Logger.Info("starting", logger.Fields("name", a.Name, "version", a.Version))

	if err := a.Components.StartAll(ctx); err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	if bad := a.unhealthy(ctx); len(bad) > 0 {
		a.Logger.Warn("not every component is healthy", logger.Fields("components", strings.Join(bad, ", ")))
	}
	if err := runHooks(ctx, a.onReady); err != nil {
		a.stop()
		return fmt.Errorf("ready hook: %w", err)
	}
	a.logSummary(time.Since(start))

	a.waitForSignal(ctx)
	return a.stop()
}

func (a *App[C]) logSummary(took time.Duration) {
	for _, d := range a.Components.Descriptions() {
		fields := logger.Fields("type", d.Type, "details", d.Details)
		if d.Port > 0 {
			fields["port"] = d.Port
		}
		a.Logger.Info(d.Name, fields)
	}
	a.Logger.Info("startup complete", logger.Fields(logger.FieldDuration, took.String()))
}

func (a *App[C]) waitForSignal(ctx context.Context) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("received shutdown signal", logger.Fields("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.Info("context canceled, shutting down")
	}
}

// stop runs the stop hooks then stops components. Both run on a fresh
// context because the one passed to Run is usually already canceled here.
func (a *App[C]) stop() error {
	a.Logger.Info("shutting down", logger.Fields("timeout", a.gracefulTimeout.String()))

	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var errs []error
	if err := runHooks(ctx, a.onStop); err != nil {
		errs = append(errs, err)
	}
	if err := a.Components.StopAll(ctx); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		err := fmt.Errorf("shutdown: %w", joinErrs(errs))
		a.Logger.Error("shutdown completed with errors", logger.Fields(logger.FieldError, err.Error()))
		return err
	}
	a.Logger.Info("shutdown complete")
	return nil
}
