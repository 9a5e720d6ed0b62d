package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/kbukum/eureka-sidecar/component"
	"github.com/kbukum/eureka-sidecar/logger"
)

func TestComponentLifecycle(t *testing.T) {
	mini := miniredis.RunT(t)
	comp := NewComponent(Config{Enabled: true, Addr: mini.Addr()}, logger.NewNop())

	if h := comp.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %s", h.Status)
	}
	if err := comp.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if comp.Client() == nil {
		t.Fatal("expected client after start")
	}
	if h := comp.Health(context.Background()); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy, got %s (%s)", h.Status, h.Message)
	}

	mini.Close()
	if h := comp.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy after server shutdown, got %s", h.Status)
	}

	if err := comp.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := comp.Stop(context.Background()); err != nil {
		t.Fatalf("second Stop failed: %v", err)
	}
}

func TestComponentStartUnreachable(t *testing.T) {
	mini := miniredis.RunT(t)
	addr := mini.Addr()
	mini.Close()

	comp := NewComponent(Config{Enabled: true, Addr: addr, MaxRetries: 1}, logger.NewNop())
	if err := comp.Start(context.Background()); err == nil {
		t.Fatal("expected start to fail against a closed server")
	}
}

func TestNewDisabled(t *testing.T) {
	_, err := New(Config{Enabled: false}, logger.NewNop())
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Enabled: true, DB: -1}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative db")
	}
	cfg = Config{}
	cfg.ApplyDefaults()
	if cfg.Addr != "localhost:6379" || cfg.PoolSize != 10 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestDescribe(t *testing.T) {
	comp := NewComponent(Config{Enabled: true, Addr: "cache:6379", DB: 2}, logger.NewNop())
	d := comp.Describe()
	if d.Type != "redis" || d.Details != "cache:6379 db=2 pool=10" {
		t.Errorf("unexpected description %+v", d)
	}
}
