package clickhouse

import (
	"context"
	"fmt"

	"solana-swap-service/internal/domain"
	"solana-swap-service/internal/storage"
)

// PriceTickStore implements storage.PriceTickStore using ClickHouse.
// MergeTree does not enforce uniqueness; the archive accepts duplicates.
type PriceTickStore struct {
	conn *Conn
}

// NewPriceTickStore creates a new PriceTickStore.
func NewPriceTickStore(conn *Conn) *PriceTickStore {
	return &PriceTickStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceTickStore = (*PriceTickStore)(nil)

// InsertBulk appends multiple ticks in one batch.
func (s *PriceTickStore) InsertBulk(ctx context.Context, ticks []*domain.PriceTick) error {
	if len(ticks) == 0 {
		return nil
	}
	for _, t := range ticks {
		if t == nil || t.Pair == "" {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_ticks (pair, price, observed_at, upstream_lag)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, t := range ticks {
		if err := batch.Append(t.Pair, t.Price, uint64(t.ObservedAt), uint64(t.UpstreamLag)); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByPair retrieves all ticks for a pair, ordered by observation time ASC.
func (s *PriceTickStore) GetByPair(ctx context.Context, pair string) ([]*domain.PriceTick, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT pair, price, observed_at, upstream_lag
		FROM price_ticks
		WHERE pair = ?
		ORDER BY observed_at ASC
	`, pair)
	if err != nil {
		return nil, fmt.Errorf("query price ticks: %w", err)
	}
	defer rows.Close()

	var out []*domain.PriceTick
	for rows.Next() {
		var (
			t           domain.PriceTick
			observedAt  uint64
			upstreamLag uint64
		)
		if err := rows.Scan(&t.Pair, &t.Price, &observedAt, &upstreamLag); err != nil {
			return nil, fmt.Errorf("scan price tick: %w", err)
		}
		t.ObservedAt = int64(observedAt)
		t.UpstreamLag = int64(upstreamLag)
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price ticks: %w", err)
	}
	return out, nil
}
