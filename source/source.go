package source

import (
	"context"
	"fmt"

	"github.com/kbukum/eureka-sidecar/instance"
)

// Source types.
const (
	TypeFile  = "file"
	TypeRedis = "redis"
)

// Source yields the instance records to import.
type Source interface {
	// Load returns the current list. A missing list yields nil, nil.
	Load(ctx context.Context) ([]instance.ServiceInstance, error)
	// Describe names the source for logs and errors.
	Describe() string
}

// Config selects and configures the instance source.
type Config struct {
	// Type is "file" or "redis".
	Type string `yaml:"type" mapstructure:"type"`
	// Path is the file to read for the file source.
	Path string `yaml:"path" mapstructure:"path"`
	// Format forces "json" or "yaml"; empty picks by file extension.
	Format string `yaml:"format" mapstructure:"format"`
	// RedisKey is the key holding the JSON array for the redis source.
	RedisKey string `yaml:"redis_key" mapstructure:"redis_key"`
}

// ApplyDefaults sets sensible defaults for Config.
func (c *Config) ApplyDefaults() {
	if c.Type == "" {
		c.Type = TypeFile
	}
	if c.Type == TypeFile && c.Path == "" {
		c.Path = "services.json"
	}
	if c.Type == TypeRedis && c.RedisKey == "" {
		c.RedisKey = "instances"
	}
}

// Validate checks if the source configuration is valid.
func (c *Config) Validate() error {
	switch c.Type {
	case TypeFile:
		if c.Path == "" {
			return fmt.Errorf("source: path is required for the file source")
		}
		switch c.Format {
		case "", formatJSON, formatYAML:
		default:
			return fmt.Errorf("source: unsupported format %q", c.Format)
		}
	case TypeRedis:
		if c.RedisKey == "" {
			return fmt.Errorf("source: redis_key is required for the redis source")
		}
	default:
		return fmt.Errorf("source: unsupported type %q", c.Type)
	}
	return nil
}
