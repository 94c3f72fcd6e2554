package memory

import (
	"context"
	"sort"
	"sync"

	"solana-swap-service/internal/domain"
	"solana-swap-service/internal/storage"
)

// PriceTickStore is an in-memory implementation of storage.PriceTickStore.
type PriceTickStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.PriceTick // keyed by pair
}

// NewPriceTickStore creates a new in-memory price tick store.
func NewPriceTickStore() *PriceTickStore {
	return &PriceTickStore{
		data: make(map[string][]*domain.PriceTick),
	}
}

// Compile-time interface check.
var _ storage.PriceTickStore = (*PriceTickStore)(nil)

// InsertBulk appends multiple ticks.
func (s *PriceTickStore) InsertBulk(_ context.Context, ticks []*domain.PriceTick) error {
	if len(ticks) == 0 {
		return nil
	}
	for _, tick := range ticks {
		if tick == nil || tick.Pair == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tick := range ticks {
		cp := *tick
		s.data[tick.Pair] = append(s.data[tick.Pair], &cp)
	}
	return nil
}

// GetByPair retrieves all ticks for a pair, ordered by observation time ASC.
func (s *PriceTickStore) GetByPair(_ context.Context, pair string) ([]*domain.PriceTick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ticks := s.data[pair]
	out := make([]*domain.PriceTick, len(ticks))
	for i, tick := range ticks {
		cp := *tick
		out[i] = &cp
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ObservedAt < out[j].ObservedAt
	})
	return out, nil
}
