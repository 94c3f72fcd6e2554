package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-swap-service/internal/domain"
	"solana-swap-service/internal/storage"
)

// SwapRecordStore implements storage.SwapRecordStore using PostgreSQL.
type SwapRecordStore struct {
	pool *Pool
}

// NewSwapRecordStore creates a new SwapRecordStore.
func NewSwapRecordStore(pool *Pool) *SwapRecordStore {
	return &SwapRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SwapRecordStore = (*SwapRecordStore)(nil)

// Insert appends a terminal swap outcome. Returns ErrDuplicateKey if
// request_id exists.
func (s *SwapRecordStore) Insert(ctx context.Context, r *domain.SwapRecord) error {
	if r == nil || r.RequestID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO swap_records (
			request_id, input_symbol, output_symbol, input_amount,
			predicted_output, slippage_bps, status, failure_reason,
			tx_signature, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.pool.Exec(ctx, query,
		r.RequestID,
		r.InputSymbol,
		r.OutputSymbol,
		r.InputAmount,
		r.PredictedOutput,
		r.SlippageBps,
		r.Status,
		r.FailureReason,
		r.TxSignature,
		r.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert swap record: %w", err)
	}
	return nil
}

// GetByRequestID retrieves a record by request ID. Returns ErrNotFound if
// not exists.
func (s *SwapRecordStore) GetByRequestID(ctx context.Context, requestID string) (*domain.SwapRecord, error) {
	query := `
		SELECT request_id, input_symbol, output_symbol, input_amount,
		       predicted_output, slippage_bps, status, failure_reason,
		       tx_signature, created_at
		FROM swap_records
		WHERE request_id = $1
	`

	var r domain.SwapRecord
	err := s.pool.QueryRow(ctx, query, requestID).Scan(
		&r.RequestID,
		&r.InputSymbol,
		&r.OutputSymbol,
		&r.InputAmount,
		&r.PredictedOutput,
		&r.SlippageBps,
		&r.Status,
		&r.FailureReason,
		&r.TxSignature,
		&r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get swap record: %w", err)
	}
	return &r, nil
}

// GetByTimeRange retrieves records created within [start, end] (inclusive),
// ordered by creation time ASC.
func (s *SwapRecordStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.SwapRecord, error) {
	query := `
		SELECT request_id, input_symbol, output_symbol, input_amount,
		       predicted_output, slippage_bps, status, failure_reason,
		       tx_signature, created_at
		FROM swap_records
		WHERE created_at >= $1 AND created_at <= $2
		ORDER BY created_at ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query swap records: %w", err)
	}
	defer rows.Close()

	var out []*domain.SwapRecord
	for rows.Next() {
		var r domain.SwapRecord
		if err := rows.Scan(
			&r.RequestID,
			&r.InputSymbol,
			&r.OutputSymbol,
			&r.InputAmount,
			&r.PredictedOutput,
			&r.SlippageBps,
			&r.Status,
			&r.FailureReason,
			&r.TxSignature,
			&r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan swap record: %w", err)
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swap records: %w", err)
	}
	return out, nil
}
