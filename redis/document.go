package redis

import (
	"context"
	"encoding/json"
	"fmt"
)

// Document is one JSON value stored under a fixed key.
type Document[T any] struct {
	client *Client
	key    string
}

// NewDocument binds a Document to key.
func NewDocument[T any](client *Client, key string) *Document[T] {
	return &Document[T]{client: client, key: key}
}

// Key returns the Redis key.
func (d *Document[T]) Key() string { return d.key }

// Get decodes the stored value. found is false when the key does not exist.
func (d *Document[T]) Get(ctx context.Context) (val T, found bool, err error) {
	raw, err := d.client.Get(ctx, d.key)
	if IsNil(err) {
		return val, false, nil
	}
	if err != nil {
		return val, false, fmt.Errorf("redis get %q: %w", d.key, err)
	}
	if err := json.Unmarshal(raw, &val); err != nil {
		return val, false, fmt.Errorf("redis decode %q: %w", d.key, err)
	}
	return val, true, nil
}

// Put replaces the stored value. It never expires.
func (d *Document[T]) Put(ctx context.Context, val T) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("redis encode %q: %w", d.key, err)
	}
	if err := d.client.Set(ctx, d.key, data); err != nil {
		return fmt.Errorf("redis set %q: %w", d.key, err)
	}
	return nil
}

// Delete removes the key.
func (d *Document[T]) Delete(ctx context.Context) error {
	return d.client.Del(ctx, d.key)
}
