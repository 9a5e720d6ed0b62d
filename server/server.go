package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/eureka-sidecar/logger"
	"github.com/kbukum/eureka-sidecar/server/endpoint"
	"github.com/kbukum/eureka-sidecar/server/middleware"
)

// shutdownTimeout caps Stop even when the caller's context allows longer.
const shutdownTimeout = 5 * time.Second

// Server serves the sidecar's admin and probe routes over HTTP/1.1 and h2c.
type Server struct {
	engine *gin.Engine
	http   *http.Server
	cfg    Config
	log    *logger.Logger

	mu       sync.RWMutex
	listener net.Listener
}

// New builds the server without middleware or routes; see ApplyDefaults.
func New(cfg Config, log *logger.Logger) *Server {
	mode := gin.ReleaseMode
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		mode = gin.DebugMode
	}
	gin.SetMode(mode)

	engine := gin.New()
	limited := middleware.BodySizeLimit(cfg.MaxBodySize)(engine)
	seconds := func(n int) time.Duration { return time.Duration(n) * time.Second }

	return &Server{
		engine: engine,
		http: &http.Server{
			Addr:              net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port)),
			Handler:           h2c.NewHandler(limited, &http2.Server{IdleTimeout: seconds(cfg.IdleTimeout)}),
			ReadTimeout:       seconds(cfg.ReadTimeout),
			ReadHeaderTimeout: seconds(cfg.ReadTimeout),
			WriteTimeout:      seconds(cfg.WriteTimeout),
			IdleTimeout:       seconds(cfg.IdleTimeout),
		},
		cfg: cfg,
		log: log.WithComponent("server"),
	}
}

// GinEngine is where routes are registered.
func (s *Server) GinEngine() *gin.Engine { return s.engine }

// Handler is the root handler including the body limit and h2c upgrade.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Start binds synchronously, so a taken port fails startup, then serves in
// the background.
func (s *Server) Start(context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", s.http.Addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server stopped unexpectedly", logger.Fields(logger.FieldError, err.Error()))
		}
	}()

	for _, r := range s.Routes() {
		s.log.Debug("route", logger.Fields("method", r.Method, "path", r.Path, "handler", r.Handler))
	}
	s.log.Info("http server listening", logger.Fields("addr", ln.Addr().String()))
	return nil
}

// Stop drains in-flight requests for at most shutdownTimeout.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	s.mu.Lock()
	s.listener = nil
	s.mu.Unlock()
	s.log.Info("http server stopped")
	return nil
}

// Addr is the bound address once started, the configured one otherwise.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.http.Addr
}

func (s *Server) listening() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listener != nil
}

// ApplyMiddleware installs recovery, request ids and access logging.
func (s *Server) ApplyMiddleware() {
	s.engine.Use(
		middleware.Recovery(s.log),
		middleware.RequestID(),
		middleware.RequestLogger(s.log),
	)
}

// systemPaths are the probe and build routes mounted by RegisterDefaultEndpoints.
var systemPaths = map[string]bool{
	"/health":  true,
	"/alive":   true,
	"/ready":   true,
	"/version": true,
	"/metrics": true,
}

// RegisterDefaultEndpoints mounts the probe, version and metrics routes.
// /metrics is skipped when metrics is nil.
func (s *Server) RegisterDefaultEndpoints(service string, checker endpoint.HealthChecker, metrics http.Handler) {
	s.engine.GET("/health", endpoint.Health(service, checker))
	s.engine.GET("/alive", endpoint.Liveness(service))
	s.engine.GET("/ready", endpoint.Readiness(service, checker))
	s.engine.GET("/version", endpoint.Version())
	if metrics != nil {
		s.engine.GET("/metrics", endpoint.Metrics(metrics))
	}
}

// ApplyDefaults is ApplyMiddleware followed by RegisterDefaultEndpoints.
func (s *Server) ApplyDefaults(service string, checker endpoint.HealthChecker, metrics http.Handler) {
	s.ApplyMiddleware()
	s.RegisterDefaultEndpoints(service, checker, metrics)
}
