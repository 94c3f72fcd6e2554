// Package pricing implements the cache-aside price lookup: a time-bounded
// cache store in front of a slow upstream price oracle, with per-key
// request coalescing on misses.
package pricing

import (
	"context"
	"time"
)

// Store is the cache backend. Expiry is enforced by the store itself, never
// by the service: a value returned by Get is by definition still valid.
type Store interface {
	// Get returns the cached value for key. The second return is false on
	// a miss; err reports store-level failures only, never misses.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}
