package source

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/kbukum/eureka-sidecar/instance"
	"github.com/kbukum/eureka-sidecar/logger"
	"github.com/kbukum/eureka-sidecar/redis"
)

type staticProvider struct {
	client *redis.Client
}

func (p staticProvider) Client() *redis.Client { return p.client }

func newRedisSource(t *testing.T) (*RedisSource, *miniredis.Miniredis) {
	t.Helper()
	mini := miniredis.RunT(t)
	client, err := redis.New(redis.Config{Enabled: true, Addr: mini.Addr()}, logger.NewNop())
	if err != nil {
		t.Fatalf("redis.New: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSource(staticProvider{client}, "sidecar:instances", logger.NewNop()), mini
}

func TestRedisSourceRoundTrip(t *testing.T) {
	src, _ := newRedisSource(t)
	ctx := context.Background()

	want := []instance.ServiceInstance{
		{ServiceName: "orders", HostName: "h1", HTTPPort: 8080},
		{ServiceName: "billing", HostName: "h2", HTTPPort: 9000, SecurePort: 9443, SSLPreferred: true},
	}
	if err := src.Publish(ctx, want); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	got, err := src.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 || got[1] != want[1] {
		t.Errorf("unexpected list %+v", got)
	}
}

func TestRedisSourceReadsRawJSON(t *testing.T) {
	src, mini := newRedisSource(t)
	mini.Set("sidecar:instances", `[{"serviceName":"orders","hostName":"h1","httpPort":8080}]`)

	got, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || got[0].ServiceName != "orders" {
		t.Errorf("unexpected list %+v", got)
	}
}

func TestRedisSourceMissingKey(t *testing.T) {
	src, _ := newRedisSource(t)

	got, err := src.Load(context.Background())
	if err != nil || got != nil {
		t.Errorf("expected nil, nil for a missing key, got %v, %v", got, err)
	}
}

func TestRedisSourceCorruptValue(t *testing.T) {
	src, mini := newRedisSource(t)
	mini.Set("sidecar:instances", "not json")

	if _, err := src.Load(context.Background()); err == nil {
		t.Error("expected decode error")
	}
}

func TestRedisSourceNotStarted(t *testing.T) {
	src := NewRedisSource(staticProvider{}, "k", logger.NewNop())
	if _, err := src.Load(context.Background()); !errors.Is(err, ErrRedisNotStarted) {
		t.Errorf("expected ErrRedisNotStarted, got %v", err)
	}
}
