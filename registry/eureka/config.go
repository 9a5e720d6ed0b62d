package eureka

import (
	"fmt"
	"net/url"
	"time"
)

// DefaultURL is the apps endpoint of a local Eureka server.
const DefaultURL = "http://localhost:8761/eureka/apps/"

// Config holds Eureka connection settings.
type Config struct {
	// URL is the Eureka apps endpoint; the app name is appended to it.
	URL string `yaml:"url" mapstructure:"url"`

	// Timeout bounds each registry call. A timed-out call counts as a failure.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Username and Password enable HTTP basic auth when set.
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`

	// InsecureSkipVerify disables TLS verification for self-signed servers.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
}

// ApplyDefaults sets sensible defaults for Config.
func (c *Config) ApplyDefaults() {
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
}

// Validate checks if the Eureka configuration is valid.
func (c *Config) Validate() error {
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("eureka url %q: %w", c.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("eureka url scheme must be 'http' or 'https', got '%s'", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("eureka url %q has no host", c.URL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	return nil
}

// Host returns the server host used in log lines, falling back to the raw URL.
func (c *Config) Host() string {
	u, err := url.Parse(c.URL)
	if err != nil || u.Host == "" {
		return c.URL
	}
	return u.Hostname()
}
