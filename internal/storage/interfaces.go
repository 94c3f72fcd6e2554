// Package storage defines the persistence interfaces for the execution
// journal and the price-tick archive. Both are async observers of the
// serving path: the swap pipeline and the price cache never read them, and
// a store failure never fails a request.
package storage

import (
	"context"

	"solana-swap-service/internal/domain"
)

// SwapRecordStore provides access to the swap execution journal.
type SwapRecordStore interface {
	// Insert appends a terminal swap outcome. Returns ErrDuplicateKey if
	// request_id exists.
	Insert(ctx context.Context, r *domain.SwapRecord) error

	// GetByRequestID retrieves a record by its request ID.
	// Returns ErrNotFound if not exists.
	GetByRequestID(ctx context.Context, requestID string) (*domain.SwapRecord, error)

	// GetByTimeRange retrieves records created within [start, end]
	// (inclusive, Unix ms), ordered by creation time ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.SwapRecord, error)
}

// PriceTickStore provides access to the price observation archive.
type PriceTickStore interface {
	// InsertBulk appends multiple ticks. Duplicates are not rejected; the
	// archive favors availability over uniqueness.
	InsertBulk(ctx context.Context, ticks []*domain.PriceTick) error

	// GetByPair retrieves all ticks for a pair, ordered by observation
	// time ASC.
	GetByPair(ctx context.Context, pair string) ([]*domain.PriceTick, error)
}
