package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kbukum/eureka-sidecar/api"
	"github.com/kbukum/eureka-sidecar/bootstrap"
	"github.com/kbukum/eureka-sidecar/coordinator"
	"github.com/kbukum/eureka-sidecar/instance"
	"github.com/kbukum/eureka-sidecar/lifecycle"
	"github.com/kbukum/eureka-sidecar/logger"
	"github.com/kbukum/eureka-sidecar/observability"
	"github.com/kbukum/eureka-sidecar/redis"
	"github.com/kbukum/eureka-sidecar/registry"
	"github.com/kbukum/eureka-sidecar/server"
	"github.com/kbukum/eureka-sidecar/source"

	// Registry backends register themselves by name.
	_ "github.com/kbukum/eureka-sidecar/registry/consul"
	_ "github.com/kbukum/eureka-sidecar/registry/eureka"
)

// sidecar is the assembled process. Components stop in reverse order: the
// coordinator deregisters every instance first, then the HTTP server, redis
// and telemetry stop.
type sidecar struct {
	app    *bootstrap.App[*SidecarConfig]
	server *server.Server
	coord  *coordinator.Coordinator
	engine *lifecycle.Engine
}

func newSidecar(cfg *SidecarConfig, opts ...bootstrap.Option) (*sidecar, error) {
	app, err := bootstrap.NewApp(cfg, opts...)
	if err != nil {
		return nil, err
	}
	log := app.Logger

	tel := &telemetry{tracing: cfg.Tracing, meter: cfg.Metrics.OTLP}
	if err := app.RegisterComponent(tel); err != nil {
		return nil, err
	}

	// Instruments bind to the global providers, which delegate to the SDK
	// providers once telemetry starts.
	otelMetrics, err := observability.NewMetrics(observability.Meter(cfg.Name))
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	prom := observability.NewPrometheusMetrics()

	client, err := registry.New(cfg.Registry.Provider, cfg.registryConfig(), log)
	if err != nil {
		return nil, err
	}
	client = registry.Traced(client, nil, otelMetrics)

	engine, err := lifecycle.New(client, cfg.Lifecycle, log,
		lifecycle.WithRecorder(observability.NewRecorder(prom, otelMetrics)))
	if err != nil {
		return nil, err
	}
	prom.TrackRunning(engine.RunningCount)

	var provider source.ClientProvider
	if cfg.Redis.Enabled {
		redisComp := redis.NewComponent(cfg.Redis, log)
		if err := app.RegisterComponent(redisComp); err != nil {
			return nil, err
		}
		provider = redisComp
	}
	src, err := source.New(cfg.Source, provider, log)
	if err != nil {
		return nil, err
	}

	coord := coordinator.New(instance.NewStore(), engine, src, log)

	srv := server.New(cfg.Server, log)
	var metricsHandler http.Handler
	if cfg.Metrics.Prometheus {
		metricsHandler = prom.Handler()
	}
	srv.ApplyDefaults(cfg.Name, app.Components.HealthAll, metricsHandler)
	api.New(coord, cfg.Name, log).Register(srv.GinEngine())
	if err := app.RegisterComponent(server.NewComponent(srv)); err != nil {
		return nil, err
	}
	if err := app.RegisterComponent(coord); err != nil {
		return nil, err
	}

	app.OnReady(func(context.Context) error {
		log.Info("sidecar ready", logger.Fields(
			"addr", srv.Addr(),
			"registry", cfg.Registry.Provider,
			"configured", len(coord.ListConfigured()),
			"running", engine.RunningCount(),
		))
		return nil
	})
	app.OnStop(func(context.Context) error {
		log.Info("deregistering instances", logger.Fields("running", engine.RunningCount()))
		return nil
	})

	return &sidecar{app: app, server: srv, coord: coord, engine: engine}, nil
}
