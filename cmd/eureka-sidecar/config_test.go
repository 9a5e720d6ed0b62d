package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/eureka-sidecar/registry/consul"
	"github.com/kbukum/eureka-sidecar/registry/eureka"
	"github.com/kbukum/eureka-sidecar/source"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const testConfigYAML = `
name: eureka-sidecar
registry:
  provider: eureka
  eureka:
    url: http://eureka.internal:8761/eureka/apps/
lifecycle:
  heartbeat_interval: 5s
  max_register_retries: 3
source:
  type: file
  path: /etc/sidecar/services.json
server:
  port: 9090
`

func TestLoadConfig_FileAndDefaults(t *testing.T) {
	path := writeFile(t, "config.yml", testConfigYAML)

	cfg, err := loadConfig(path, "")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Registry.Eureka.URL != "http://eureka.internal:8761/eureka/apps/" {
		t.Errorf("unexpected eureka url %q", cfg.Registry.Eureka.URL)
	}
	if cfg.Lifecycle.HeartbeatInterval != 5*time.Second {
		t.Errorf("expected 5s heartbeat, got %s", cfg.Lifecycle.HeartbeatInterval)
	}
	if got := cfg.Lifecycle.MaxRegisterRetries; got == nil || *got != 3 {
		t.Errorf("expected 3 register retries, got %v", got)
	}
	if got := cfg.Lifecycle.MaxHeartbeatRetries; got == nil || *got != 50 {
		t.Errorf("expected default 50 heartbeat retries, got %v", got)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Redis.Enabled {
		t.Error("redis should stay disabled for the file source")
	}
	if cfg.Tracing.ServiceName != "eureka-sidecar" {
		t.Errorf("expected tracing service name, got %q", cfg.Tracing.ServiceName)
	}
}

func TestLoadConfig_LegacyEnvOverrides(t *testing.T) {
	path := writeFile(t, "config.yml", testConfigYAML)
	t.Setenv("EUREKA_SERVER_URL", "http://override:8761/eureka/apps/")
	t.Setenv("STORE_JSON_PATH", "/data/instances.json")

	cfg, err := loadConfig(path, "")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Registry.Eureka.URL != "http://override:8761/eureka/apps/" {
		t.Errorf("EUREKA_SERVER_URL not applied, got %q", cfg.Registry.Eureka.URL)
	}
	if cfg.Source.Path != "/data/instances.json" {
		t.Errorf("STORE_JSON_PATH not applied, got %q", cfg.Source.Path)
	}
}

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	path := writeFile(t, "config.yml", "name: eureka-sidecar\n")

	cfg, err := loadConfig(path, "")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Registry.Provider != "eureka" {
		t.Errorf("expected eureka provider, got %q", cfg.Registry.Provider)
	}
	if cfg.Registry.Eureka.URL != "http://localhost:8761/eureka/apps/" {
		t.Errorf("expected default eureka url, got %q", cfg.Registry.Eureka.URL)
	}
	if cfg.Source.Type != source.TypeFile || cfg.Source.Path != "services.json" {
		t.Errorf("expected file source on services.json, got %+v", cfg.Source)
	}
	if cfg.Lifecycle.HeartbeatInterval != 20*time.Second {
		t.Errorf("expected 20s heartbeat, got %s", cfg.Lifecycle.HeartbeatInterval)
	}
}

func TestSidecarConfig_RedisSourceEnablesRedis(t *testing.T) {
	cfg := &SidecarConfig{}
	cfg.Source.Type = source.TypeRedis
	cfg.ApplyDefaults()

	if !cfg.Redis.Enabled {
		t.Error("expected redis to be enabled for the redis source")
	}
	if cfg.Source.RedisKey != "instances" {
		t.Errorf("expected default redis key, got %q", cfg.Source.RedisKey)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestSidecarConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SidecarConfig)
		wantErr string
	}{
		{"unknown provider", func(c *SidecarConfig) { c.Registry.Provider = "zookeeper" }, "must be one of"},
		{"bad port", func(c *SidecarConfig) { c.Server.Port = 70000 }, "server.port"},
		{"bad source", func(c *SidecarConfig) { c.Source.Type = "s3" }, "unsupported type"},
		{"bad sample rate", func(c *SidecarConfig) { c.Tracing.SampleRate = 2 }, "sample_rate"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &SidecarConfig{}
			cfg.ApplyDefaults()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestRegistryConfigFollowsProvider(t *testing.T) {
	cfg := &SidecarConfig{}
	cfg.ApplyDefaults()
	if _, ok := cfg.registryConfig().(eureka.Config); !ok {
		t.Errorf("expected eureka config, got %T", cfg.registryConfig())
	}
	cfg.Registry.Provider = "consul"
	if _, ok := cfg.registryConfig().(consul.Config); !ok {
		t.Errorf("expected consul config, got %T", cfg.registryConfig())
	}
}
