package cache

import (
	"context"
	"time"
)

// NullCache disables caching: every Get misses, every Set is dropped.
// Used when the operator opts out (--no-cache, backend "none").
type NullCache struct{}

// NewNullCache returns the disabled cache.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(ctx context.Context, key string) ([]byte, bool, error) { return nil, false, nil }

func (NullCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return nil
}

func (NullCache) Delete(ctx context.Context, key string) error { return nil }

func (NullCache) Close() error { return nil }

var _ Cache = NullCache{}
