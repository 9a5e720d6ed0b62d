package main

import (
	"fmt"

	"github.com/kbukum/eureka-sidecar/config"
	"github.com/kbukum/eureka-sidecar/lifecycle"
	"github.com/kbukum/eureka-sidecar/observability"
	"github.com/kbukum/eureka-sidecar/redis"
	"github.com/kbukum/eureka-sidecar/registry/consul"
	"github.com/kbukum/eureka-sidecar/registry/eureka"
	"github.com/kbukum/eureka-sidecar/server"
	"github.com/kbukum/eureka-sidecar/source"
	"github.com/kbukum/eureka-sidecar/validation"
)

const serviceName = "eureka-sidecar"

// SidecarConfig is the full configuration of the sidecar process.
type SidecarConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server    server.Config              `yaml:"server" mapstructure:"server"`
	Registry  RegistryConfig             `yaml:"registry" mapstructure:"registry"`
	Lifecycle lifecycle.Config           `yaml:"lifecycle" mapstructure:"lifecycle"`
	Source    source.Config              `yaml:"source" mapstructure:"source"`
	Redis     redis.Config               `yaml:"redis" mapstructure:"redis"`
	Tracing   observability.TracerConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics   MetricsConfig              `yaml:"metrics" mapstructure:"metrics"`
}

// RegistryConfig selects the registry backend.
type RegistryConfig struct {
	Provider string        `yaml:"provider" mapstructure:"provider" validate:"required,oneof=eureka consul"`
	Eureka   eureka.Config `yaml:"eureka" mapstructure:"eureka"`
	Consul   consul.Config `yaml:"consul" mapstructure:"consul"`
}

// MetricsConfig configures the Prometheus endpoint and OTLP metric push.
type MetricsConfig struct {
	Prometheus bool                      `yaml:"prometheus" mapstructure:"prometheus"`
	OTLP       observability.MeterConfig `yaml:"otlp" mapstructure:"otlp"`
}

// ApplyDefaults fills every section's defaults.
func (c *SidecarConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	if c.Registry.Provider == "" {
		c.Registry.Provider = "eureka"
	}
	c.Registry.Eureka.ApplyDefaults()
	c.Registry.Consul.ApplyDefaults()
	c.Lifecycle.ApplyDefaults()
	c.Source.ApplyDefaults()
	if c.Source.Type == source.TypeRedis {
		c.Redis.Enabled = true
	}
	c.Redis.ApplyDefaults()

	tracing := observability.DefaultTracerConfig(c.Name)
	if c.Tracing.Endpoint == "" {
		c.Tracing.Endpoint = tracing.Endpoint
	}
	if c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = tracing.SampleRate
	}
	c.Tracing.ServiceName, c.Tracing.ServiceVersion, c.Tracing.Environment = c.Name, c.Version, c.Environment

	meter := observability.DefaultMeterConfig(c.Name)
	if c.Metrics.OTLP.Endpoint == "" {
		c.Metrics.OTLP.Endpoint = meter.Endpoint
	}
	if c.Metrics.OTLP.Interval == 0 {
		c.Metrics.OTLP.Interval = meter.Interval
	}
	c.Metrics.OTLP.ServiceName, c.Metrics.OTLP.ServiceVersion, c.Metrics.OTLP.Environment = c.Name, c.Version, c.Environment
}

// Validate checks struct tags first, then each section.
func (c *SidecarConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	switch c.Registry.Provider {
	case "eureka":
		if err := c.Registry.Eureka.Validate(); err != nil {
			return fmt.Errorf("registry.eureka: %w", err)
		}
	case "consul":
		if err := c.Registry.Consul.Validate(); err != nil {
			return fmt.Errorf("registry.consul: %w", err)
		}
	}
	if err := c.Lifecycle.Validate(); err != nil {
		return err
	}
	if err := c.Source.Validate(); err != nil {
		return err
	}
	if c.Redis.Enabled {
		if err := c.Redis.Validate(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be between 0 and 1 (got: %v)", c.Tracing.SampleRate)
	}
	return nil
}

// registryConfig returns the config of the selected provider.
func (c *SidecarConfig) registryConfig() any {
	if c.Registry.Provider == "consul" {
		return c.Registry.Consul
	}
	return c.Registry.Eureka
}

// loadConfig reads config.yml, .env and the environment. EUREKA_SERVER_URL
// and STORE_JSON_PATH override the registry URL and the instance file.
func loadConfig(configFile, envFile string) (*SidecarConfig, error) {
	opts := []config.LoaderOption{
		config.WithDefault("name", serviceName),
		config.WithDefault("registry.provider", "eureka"),
		config.WithDefault("registry.eureka.url", eureka.DefaultURL),
		config.WithDefault("source.type", source.TypeFile),
		config.WithDefault("source.path", "services.json"),
		config.WithEnvAlias("registry.eureka.url", "EUREKA_SERVER_URL"),
		config.WithEnvAlias("source.path", "STORE_JSON_PATH"),
	}
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}

	var cfg SidecarConfig
	if err := config.LoadConfig(serviceName, &cfg, opts...); err != nil {
		return nil, err
	}
	return &cfg, nil
}
