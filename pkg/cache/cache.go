// Package cache provides pluggable result caching for the engine's
// external round trips, primarily community-detection responses keyed by
// graph hash and resolution.
//
// Backends:
//   - file: local directory cache for CLI usage
//   - redis: shared cache for server deployments
//   - null: caching disabled
package cache

import (
	"context"
	"time"
)

// TTLDetection bounds how long a community-detection result stays valid.
// Partitions are pure functions of the graph payload and resolution, so a
// generous TTL is safe; it exists mostly to bound storage.
const TTLDetection = 24 * time.Hour

// Cache is the storage interface. Implementations return (nil, false, nil)
// for a miss; errors are reserved for backend failures.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// DetectionKey builds the cache key for a community-detection result.
func DetectionKey(graphHash string, resolution float64) string {
	return hashKey("detect", graphHash, resolution)
}
