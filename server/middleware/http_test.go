package middleware_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/eureka-sidecar/logger"
	"github.com/kbukum/eureka-sidecar/server/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func do(h http.Handler, method, path string, edit ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, http.NoBody)
	for _, fn := range edit {
		fn(req)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func jsonLog(buf *strings.Builder) *logger.Logger {
	return logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", buf)
}

func TestRecoveryTurnsPanicIntoInternalError(t *testing.T) {
	e := gin.New()
	e.Use(middleware.Recovery(logger.NewNop()))
	e.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	e.GET("/boom", func(*gin.Context) { panic("boom") })

	if rr := do(e, "GET", "/ok"); rr.Code != http.StatusOK {
		t.Fatalf("GET /ok: status %d", rr.Code)
	}

	rr := do(e, "GET", "/boom")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("GET /boom: status %d", rr.Code)
	}
	var body struct {
		Error struct{ Code string } `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("body %q: %v", rr.Body.String(), err)
	}
	if body.Error.Code != "INTERNAL_ERROR" {
		t.Errorf("code = %q", body.Error.Code)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	e := gin.New()
	e.Use(middleware.RequestID())
	e.GET("/", func(c *gin.Context) {
		seen = c.GetString(logger.FieldRequestID)
		if c.GetHeader(middleware.HeaderRequestID) != seen {
			t.Errorf("request header and context disagree")
		}
		c.Status(http.StatusOK)
	})

	rr := do(e, "GET", "/")
	if seen == "" || rr.Header().Get(middleware.HeaderRequestID) != seen {
		t.Errorf("generated id %q, response header %q", seen, rr.Header().Get(middleware.HeaderRequestID))
	}

	rr = do(e, "GET", "/", func(r *http.Request) { r.Header.Set(middleware.HeaderRequestID, "custom-id-123") })
	if got := rr.Header().Get(middleware.HeaderRequestID); got != "custom-id-123" || seen != got {
		t.Errorf("incoming id not kept: header %q, context %q", got, seen)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf strings.Builder
	e := gin.New()
	e.Use(middleware.RequestID(), middleware.RequestLogger(jsonLog(&buf)))
	e.PUT("/instances/update", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	e.GET("/actuator/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	do(e, "GET", "/actuator/health")
	if buf.Len() != 0 {
		t.Fatalf("health checks should not be logged, got %s", buf.String())
	}

	do(e, "PUT", "/instances/update")
	out := buf.String()
	for _, want := range []string{`"level":"warn"`, `"path":"/instances/update"`, `"request_id"`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in %s", want, out)
		}
	}
}

func TestBodySizeLimit(t *testing.T) {
	h := middleware.BodySizeLimit("1KB")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	withBody := func(n int) func(*http.Request) {
		return func(r *http.Request) { r.Body = io.NopCloser(strings.NewReader(strings.Repeat("x", n))) }
	}

	if rr := do(h, "POST", "/", withBody(2048)); rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("2KB body: status %d", rr.Code)
	}
	if rr := do(h, "POST", "/", withBody(5)); rr.Code != http.StatusOK {
		t.Errorf("small body: status %d", rr.Code)
	}
}

func TestLoopbackOnlyIgnoresForwardedFor(t *testing.T) {
	e := gin.New()
	e.PUT("/instances/update", middleware.LoopbackOnly(logger.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	cases := map[string]int{
		"127.0.0.1:50000":   http.StatusOK,
		"[::1]:50000":       http.StatusOK,
		"10.1.2.3:50000":    http.StatusForbidden,
		"[2001:db8::1]:443": http.StatusForbidden,
		"garbage":           http.StatusForbidden,
	}
	for remote, want := range cases {
		rr := do(e, "PUT", "/instances/update", func(r *http.Request) {
			r.RemoteAddr = remote
			r.Header.Set("X-Forwarded-For", "127.0.0.1")
		})
		if rr.Code != want {
			t.Errorf("%s: status %d, want %d", remote, rr.Code, want)
		}
	}
}

func TestChainRunsOutermostFirst(t *testing.T) {
	var trail []string
	tag := func(name string) middleware.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				trail = append(trail, name+">")
				next.ServeHTTP(w, r)
				trail = append(trail, "<"+name)
			})
		}
	}
	h := middleware.Chain(tag("a"), tag("b"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		trail = append(trail, "h")
	}))
	do(h, "GET", "/")

	if got := strings.Join(trail, " "); got != "a> b> h <b <a" {
		t.Errorf("trail = %q", got)
	}
}
