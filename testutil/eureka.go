package testutil

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/eureka-sidecar/component"
)

// Call is one request seen by FakeEureka.
type Call struct {
	Method string
	App    string
	Key    string
}

// FakeEureka is an in-memory Eureka server speaking the registration,
// heartbeat and deregistration endpoints under /eureka/apps/.
type FakeEureka struct {
	mu             sync.Mutex
	ts             *httptest.Server
	registerStatus int
	down           bool
	known          map[string]bool
	calls          []Call
}

var _ TestComponent = (*FakeEureka)(nil)

// NewFakeEureka returns a stopped FakeEureka that accepts registrations.
func NewFakeEureka() *FakeEureka {
	return &FakeEureka{
		registerStatus: http.StatusNoContent,
		known:          make(map[string]bool),
	}
}

// URL returns the apps base URL, e.g. "http://127.0.0.1:PORT/eureka/apps/".
func (f *FakeEureka) URL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ts == nil {
		return ""
	}
	return f.ts.URL + "/eureka/apps/"
}

// SetRegisterStatus sets the status answered to registrations.
func (f *FakeEureka) SetRegisterStatus(code int) {
	f.mu.Lock()
	f.registerStatus = code
	f.mu.Unlock()
}

// SetDown makes every request fail with 503 until cleared.
func (f *FakeEureka) SetDown(down bool) {
	f.mu.Lock()
	f.down = down
	f.mu.Unlock()
}

// Forget evicts an instance so its next heartbeat answers 404.
func (f *FakeEureka) Forget(app, key string) {
	f.mu.Lock()
	delete(f.known, app+"/"+key)
	f.mu.Unlock()
}

// Known reports whether app/key is currently registered.
func (f *FakeEureka) Known(app, key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.known[app+"/"+key]
}

// Calls returns a copy of every request seen so far.
func (f *FakeEureka) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Count returns how many requests used method.
func (f *FakeEureka) Count(method string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (f *FakeEureka) routes() http.Handler {
	r := gin.New()
	apps := r.Group("/eureka/apps")
	apps.POST("/:app", f.register)
	apps.PUT("/:app/:key", f.heartbeat)
	apps.DELETE("/:app/:key", f.deregister)
	return r
}

type registration struct {
	XMLName    xml.Name `xml:"instance"`
	InstanceID string   `xml:"instanceId"`
}

func (f *FakeEureka) register(c *gin.Context) {
	app := c.Param("app")
	body, _ := io.ReadAll(c.Request.Body)
	var reg registration
	if err := xml.Unmarshal(body, &reg); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Method: http.MethodPost, App: app, Key: reg.InstanceID})
	if f.down {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	if f.registerStatus == http.StatusNoContent {
		f.known[app+"/"+reg.InstanceID] = true
	}
	c.Status(f.registerStatus)
}

func (f *FakeEureka) heartbeat(c *gin.Context) {
	app, key := c.Param("app"), c.Param("key")

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Method: http.MethodPut, App: app, Key: key})
	switch {
	case f.down:
		c.Status(http.StatusServiceUnavailable)
	case f.known[app+"/"+key]:
		c.Status(http.StatusOK)
	default:
		c.Status(http.StatusNotFound)
	}
}

func (f *FakeEureka) deregister(c *gin.Context) {
	app, key := c.Param("app"), c.Param("key")

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Method: http.MethodDelete, App: app, Key: key})
	delete(f.known, app+"/"+key)
	c.Status(http.StatusOK)
}

// --- component.Component ---

func (f *FakeEureka) Name() string { return "fake-eureka" }

func (f *FakeEureka) Start(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ts != nil {
		return fmt.Errorf("component already started")
	}
	gin.SetMode(gin.TestMode)
	f.ts = httptest.NewServer(f.routes())
	return nil
}

func (f *FakeEureka) Stop(_ context.Context) error {
	f.mu.Lock()
	ts := f.ts
	f.ts = nil
	f.mu.Unlock()
	if ts != nil {
		ts.Close()
	}
	return nil
}

func (f *FakeEureka) Health(_ context.Context) component.Health {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ts == nil {
		return component.Health{Name: f.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: f.Name(), Status: component.StatusHealthy}
}

// --- TestComponent ---

// Reset forgets every instance and call and accepts registrations again.
func (f *FakeEureka) Reset(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registerStatus = http.StatusNoContent
	f.down = false
	f.known = make(map[string]bool)
	f.calls = nil
	return nil
}
