package testutil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/eureka-sidecar/component"
	"github.com/kbukum/eureka-sidecar/logger"
	"github.com/kbukum/eureka-sidecar/server"
	"github.com/kbukum/eureka-sidecar/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Routes installs handlers on a freshly built server.
type Routes func(*server.Server)

// Component serves a sidecar server.Server through httptest. Each Start or
// Reset builds a new server, applies the standard middleware and calls
// routes, so handler state never leaks between cases.
type Component struct {
	routes Routes

	mu sync.RWMutex
	ts *httptest.Server
}

var _ testutil.TestComponent = (*Component)(nil)

// NewComponent returns a stopped component. routes may be nil.
func NewComponent(routes Routes) *Component {
	return &Component{routes: routes}
}

// BaseURL is the httptest URL, empty while stopped.
func (c *Component) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.ts == nil {
		return ""
	}
	return c.ts.URL
}

// Handler is the served handler, for requests that need a chosen RemoteAddr.
func (c *Component) Handler() http.Handler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.ts == nil {
		return nil
	}
	return c.ts.Config.Handler
}

func (c *Component) build() *httptest.Server {
	cfg := server.Config{Host: "127.0.0.1"}
	cfg.ApplyDefaults()
	srv := server.New(cfg, logger.NewNop())
	srv.ApplyMiddleware()
	if c.routes != nil {
		c.routes(srv)
	}
	return httptest.NewServer(srv.Handler())
}

func (c *Component) Name() string { return "server-test" }

func (c *Component) Start(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ts != nil {
		return errors.New("server-test already started")
	}
	c.ts = c.build()
	return nil
}

func (c *Component) Stop(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ts != nil {
		c.ts.Close()
		c.ts = nil
	}
	return nil
}

func (c *Component) Health(context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if c.BaseURL() == "" {
		h.Status, h.Message = component.StatusUnhealthy, "not started"
	}
	return h
}

// Reset rebuilds the server behind a new URL.
func (c *Component) Reset(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ts == nil {
		return errors.New("server-test not started")
	}
	c.ts.Close()
	c.ts = c.build()
	return nil
}
