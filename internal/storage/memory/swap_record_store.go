package memory

import (
	"context"
	"sort"
	"sync"

	"solana-swap-service/internal/domain"
	"solana-swap-service/internal/storage"
)

// SwapRecordStore is an in-memory implementation of storage.SwapRecordStore.
type SwapRecordStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SwapRecord // keyed by request ID
}

// NewSwapRecordStore creates a new in-memory swap record store.
func NewSwapRecordStore() *SwapRecordStore {
	return &SwapRecordStore{
		data: make(map[string]*domain.SwapRecord),
	}
}

// Compile-time interface check.
var _ storage.SwapRecordStore = (*SwapRecordStore)(nil)

// Insert appends a terminal swap outcome. Returns ErrDuplicateKey if exists.
func (s *SwapRecordStore) Insert(_ context.Context, r *domain.SwapRecord) error {
	if r == nil || r.RequestID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RequestID]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *r
	s.data[r.RequestID] = &cp
	return nil
}

// GetByRequestID retrieves a record by request ID. Returns ErrNotFound if not exists.
func (s *SwapRecordStore) GetByRequestID(_ context.Context, requestID string) (*domain.SwapRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.data[requestID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

// GetByTimeRange retrieves records created within [start, end], ordered by
// creation time ASC.
func (s *SwapRecordStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.SwapRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.SwapRecord
	for _, r := range s.data {
		if r.CreatedAt >= start && r.CreatedAt <= end {
			cp := *r
			out = append(out, &cp)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt < out[j].CreatedAt
	})
	return out, nil
}
