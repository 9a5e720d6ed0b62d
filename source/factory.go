package source

import (
	"fmt"

	"github.com/kbukum/eureka-sidecar/logger"
)

// New builds the Source described by cfg. provider is only needed for the
// redis source and may be nil otherwise.
func New(cfg Config, provider ClientProvider, log *logger.Logger) (Source, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Type {
	case TypeRedis:
		if provider == nil {
			return nil, fmt.Errorf("source: redis source needs a redis client")
		}
		return NewRedisSource(provider, cfg.RedisKey, log), nil
	default:
		return NewFileSource(cfg.Path, cfg.Format, log), nil
	}
}
