package source

import (
	"context"
	"errors"

	"github.com/kbukum/eureka-sidecar/instance"
	"github.com/kbukum/eureka-sidecar/logger"
	"github.com/kbukum/eureka-sidecar/redis"
)

// ErrRedisNotStarted is returned when the Redis component has no client yet.
var ErrRedisNotStarted = errors.New("source: redis client not started")

// ClientProvider hands out the Redis client once it is connected.
// *redis.Component satisfies it.
type ClientProvider interface {
	Client() *redis.Client
}

// RedisSource reads the instance list as a JSON array stored under one key.
type RedisSource struct {
	provider ClientProvider
	key      string
	log      *logger.Logger
}

var _ Source = (*RedisSource)(nil)

// NewRedisSource creates a RedisSource reading key.
func NewRedisSource(provider ClientProvider, key string, log *logger.Logger) *RedisSource {
	return &RedisSource{provider: provider, key: key, log: log.WithComponent("source")}
}

// Describe returns the Redis key.
func (s *RedisSource) Describe() string { return "redis:" + s.key }

// Load fetches and decodes the key. A missing key loads nothing.
func (s *RedisSource) Load(ctx context.Context) ([]instance.ServiceInstance, error) {
	doc, err := s.document()
	if err != nil {
		return nil, err
	}
	list, found, err := doc.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !found || len(list) == 0 {
		s.log.Warn("instance key is missing or empty, skipping import", logger.Fields("key", s.key))
		return nil, nil
	}
	return list, nil
}

// Publish replaces the stored list. It is how operators seed the key.
func (s *RedisSource) Publish(ctx context.Context, list []instance.ServiceInstance) error {
	doc, err := s.document()
	if err != nil {
		return err
	}
	return doc.Put(ctx, list)
}

func (s *RedisSource) document() (*redis.Document[[]instance.ServiceInstance], error) {
	client := s.provider.Client()
	if client == nil {
		return nil, ErrRedisNotStarted
	}
	return redis.NewDocument[[]instance.ServiceInstance](client, s.key), nil
}
