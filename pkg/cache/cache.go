// Package cache stores rendered artifacts so repeated runs with the same
// input, preset and seed skip the aging pipeline.
//
// Three backends share the [Cache] interface:
//   - [FileCache]: one file per entry under a local directory (CLI)
//   - [RedisCache]: a shared Redis instance (HTTP server)
//   - [NullCache]: stores nothing (--no-cache)
//
// Keys come from a [Keyer], so backends never need to know how a key is
// built. [Namespaced] gives several deployments their own corner of one
// Redis database.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// TTLArtifact is how long aged artifacts are kept. Artifacts are pure
// functions of their key, so the TTL only bounds disk and memory use.
const TTLArtifact = 30 * 24 * time.Hour
