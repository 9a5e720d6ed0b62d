package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newClient(t *testing.T, cfg Config) *Client {
	t.Helper()
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestDo_ResolvesPathAndSendsBody(t *testing.T) {
	var gotPath, gotCT, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotCT = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newClient(t, Config{BaseURL: srv.URL + "/eureka/apps/"})
	resp, err := c.Do(context.Background(), Request{
		Method:  http.MethodPost,
		Path:    "ORDERS",
		Headers: map[string]string{"Content-Type": "application/xml"},
		Body:    []byte("<instance/>"),
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}
	if gotPath != "/eureka/apps/ORDERS" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotCT != "application/xml" || gotBody != "<instance/>" {
		t.Errorf("unexpected request %q %q", gotCT, gotBody)
	}
}

func TestDo_DefaultHeadersAndBasicAuth(t *testing.T) {
	var user, pass, accept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, _ = r.BasicAuth()
		accept = r.Header.Get("Accept")
	}))
	defer srv.Close()

	c := newClient(t, Config{
		BaseURL:  srv.URL,
		Username: "admin",
		Password: "secret",
		Headers:  map[string]string{"Accept": "application/xml"},
	})
	if _, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/"}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if user != "admin" || pass != "secret" {
		t.Errorf("expected basic auth, got %q/%q", user, pass)
	}
	if accept != "application/xml" {
		t.Errorf("expected default header, got %q", accept)
	}
}

func TestDo_StatusClassification(t *testing.T) {
	tests := []struct {
		status    int
		kind      Kind
		notFound  bool
		temporary bool
	}{
		{http.StatusNotFound, KindNotFound, true, false},
		{http.StatusInternalServerError, KindStatus, false, true},
		{http.StatusServiceUnavailable, KindStatus, false, true},
		{http.StatusTooManyRequests, KindStatus, false, true},
		{http.StatusBadRequest, KindStatus, false, false},
	}
	for _, tc := range tests {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte("nope"))
			}))
			defer srv.Close()

			resp, err := newClient(t, Config{BaseURL: srv.URL}).Do(context.Background(), Request{Method: http.MethodPut, Path: "x"})
			if resp == nil || resp.StatusCode != tc.status || string(resp.Body) != "nope" {
				t.Fatalf("expected the response to be kept, got %+v", resp)
			}
			e, ok := err.(*Error)
			if !ok {
				t.Fatalf("expected *Error, got %T", err)
			}
			if e.Kind != tc.kind {
				t.Errorf("expected kind %s, got %s", tc.kind, e.Kind)
			}
			if IsNotFound(err) != tc.notFound {
				t.Errorf("IsNotFound = %v", IsNotFound(err))
			}
			if e.Temporary() != tc.temporary {
				t.Errorf("Temporary = %v", e.Temporary())
			}
			if !strings.Contains(e.Error(), "HTTP") {
				t.Errorf("expected status in message, got %q", e.Error())
			}
		})
	}
}

func TestDo_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newClient(t, Config{BaseURL: url}).Do(context.Background(), Request{Method: http.MethodGet, Path: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if k, _ := kindOf(err); k != KindTransport {
		t.Errorf("expected transport error, got %v", err)
	}
	if IsNotFound(err) || IsTimeout(err) {
		t.Errorf("refused connection misclassified: %v", err)
	}
}

func TestDo_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	_, err := newClient(t, Config{BaseURL: srv.URL, Timeout: 20 * time.Millisecond}).
		Do(context.Background(), Request{Method: http.MethodPut, Path: "x"})
	if !IsTimeout(err) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestDo_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newClient(t, Config{BaseURL: srv.URL}).Do(ctx, Request{Method: http.MethodGet, Path: "x"})
	if !IsTimeout(err) {
		t.Fatalf("expected a canceled call to count as timeout, got %v", err)
	}
}

func TestConfig(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Timeout != defaultTimeout {
		t.Errorf("expected default timeout, got %s", cfg.Timeout)
	}

	tests := []struct {
		url     string
		wantErr bool
	}{
		{"", false},
		{"http://localhost:8761/eureka/apps/", false},
		{"https://eureka.example.com/eureka/apps/", false},
		{"ftp://eureka", true},
		{"localhost:8761", true},
		{"http://", true},
	}
	for _, tc := range tests {
		cfg := Config{BaseURL: tc.url, Timeout: time.Second}
		if err := cfg.Validate(); (err != nil) != tc.wantErr {
			t.Errorf("Validate(%q) err=%v, wantErr=%v", tc.url, err, tc.wantErr)
		}
	}
}
