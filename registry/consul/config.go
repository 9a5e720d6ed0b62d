package consul

import (
	"fmt"
	"time"

	"github.com/hashicorp/consul/api"

	"github.com/kbukum/eureka-sidecar/validation"
)

// Config is the registry.consul section.
type Config struct {
	Address    string `yaml:"address" mapstructure:"address" validate:"required"`
	Scheme     string `yaml:"scheme" mapstructure:"scheme" validate:"oneof=http https"`
	Datacenter string `yaml:"datacenter" mapstructure:"datacenter"`
	Token      string `yaml:"token" mapstructure:"token"`
	// Namespace and Partition only matter on Consul Enterprise.
	Namespace string     `yaml:"namespace" mapstructure:"namespace"`
	Partition string     `yaml:"partition" mapstructure:"partition"`
	TLS       *TLSConfig `yaml:"tls" mapstructure:"tls"`

	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// CheckTTL must outlast the heartbeat interval or instances flap.
	CheckTTL        time.Duration `yaml:"check_ttl" mapstructure:"check_ttl"`
	DeregisterAfter time.Duration `yaml:"deregister_after" mapstructure:"deregister_after"`
	Tags            []string      `yaml:"tags" mapstructure:"tags"`
}

// TLSConfig points at PEM files on disk.
type TLSConfig struct {
	Enabled            bool   `yaml:"enabled" mapstructure:"enabled"`
	CACert             string `yaml:"ca_cert" mapstructure:"ca_cert"`
	ClientCert         string `yaml:"client_cert" mapstructure:"client_cert"`
	ClientKey          string `yaml:"client_key" mapstructure:"client_key"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
}

func (c *Config) ApplyDefaults() {
	setDefault(&c.Address, "localhost:8500")
	setDefault(&c.Scheme, "http")
	setDefault(&c.Timeout, 10*time.Second)
	setDefault(&c.CheckTTL, time.Minute)
	setDefault(&c.DeregisterAfter, 10*time.Minute)
}

func setDefault[T comparable](field *T, value T) {
	var zero T
	if *field == zero {
		*field = value
	}
}

func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	switch {
	case c.tlsEnabled() && c.Scheme != "https":
		return fmt.Errorf("tls.enabled needs scheme https")
	case c.Timeout < 0:
		return fmt.Errorf("timeout must not be negative")
	case c.CheckTTL < time.Second:
		return fmt.Errorf("check_ttl must be at least 1s, got %s", c.CheckTTL)
	}
	return nil
}

func (c *Config) tlsEnabled() bool { return c.TLS != nil && c.TLS.Enabled }

// apiConfig translates c into the agent client's settings, including an
// HTTP client that carries the TLS files and call timeout.
func (c *Config) apiConfig() (*api.Config, error) {
	out := api.DefaultConfig()
	out.Address, out.Scheme, out.Token = c.Address, c.Scheme, c.Token
	out.Namespace, out.Partition = c.Namespace, c.Partition
	if c.Datacenter != "" {
		out.Datacenter = c.Datacenter
	}

	var tls api.TLSConfig
	if c.tlsEnabled() {
		tls = api.TLSConfig{
			CAFile:             c.TLS.CACert,
			CertFile:           c.TLS.ClientCert,
			KeyFile:            c.TLS.ClientKey,
			InsecureSkipVerify: c.TLS.InsecureSkipVerify,
		}
	}
	hc, err := api.NewHttpClient(api.DefaultConfig().Transport, tls)
	if err != nil {
		return nil, fmt.Errorf("consul http client: %w", err)
	}
	hc.Timeout = c.Timeout
	out.HttpClient = hc
	return out, nil
}
