// Package cache provides TTL caches used by the market data and balance feeds.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Cache stores opaque values with a time to live.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// GetOrLoad returns the cached value for key or loads, stores and returns it.
// Cache failures degrade to calling load.
func GetOrLoad[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func(ctx context.Context) (T, error)) (T, error) {
	var value T

	if c != nil && ttl > 0 {
		if raw, ok, err := c.Get(ctx, key); err == nil && ok {
			if err := json.Unmarshal(raw, &value); err == nil {
				return value, nil
			}
		}
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	if c != nil && ttl > 0 {
		raw, err := json.Marshal(value)
		if err != nil {
			return value, errors.Wrap(err, "encode cached value")
		}
		_ = c.Set(ctx, key, raw, ttl)
	}

	return value, nil
}
