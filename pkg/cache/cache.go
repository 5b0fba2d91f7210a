// Package cache provides the caching layer shared by the CLI, the explorer
// and the HTTP API.
//
// Two things are cached:
//
//   - backend responses, keyed by query ([Keyer.HTTPKey])
//   - render models, keyed by payload hash and pipeline options
//     ([Keyer.ModelKey])
//
// Implementations:
//
//   - [NullCache]: caching disabled
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [RedisCache]: shared cache for the HTTP server
//
// Render models are deterministic for a given payload and option set, so a
// cached model is indistinguishable from a freshly computed one.
package cache

import (
	"context"
	"time"
)

// Default TTLs per entry type.
const (
	// TTLHTTP bounds how stale a backend response may be. Investigations
	// work on live data, so this is short.
	TTLHTTP = 10 * time.Minute

	// TTLModel is the lifetime of a render model. Models are keyed by
	// content hash and never go stale.
	TTLModel = 24 * time.Hour
)

// Cache stores opaque byte values under string keys.
type Cache interface {
	// Get returns the value for key. hit is false on a miss.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores data under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// NullCache never stores anything.
type NullCache struct{}

// NewNullCache returns a cache that always misses.
func NewNullCache() *NullCache { return &NullCache{} }

func (*NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (*NullCache) Delete(context.Context, string) error { return nil }
func (*NullCache) Close() error { return nil }
