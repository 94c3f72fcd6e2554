package pricing

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and cache-less deployments.
// Like the Redis store, expiry is enforced here rather than by callers.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]memoryEntry

	// now is swappable for expiry tests.
	now func() time.Time
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]memoryEntry),
		now:  time.Now,
	}
}

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// Get returns the cached value for key if it has not expired.
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	e, ok := s.data[key]
	s.mu.RUnlock()

	if !ok || s.now().After(e.expiresAt) {
		return "", false, nil
	}
	return e.value, true, nil
}

// Set stores value under key with the given TTL.
func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = memoryEntry{value: value, expiresAt: s.now().Add(ttl)}
	return nil
}
