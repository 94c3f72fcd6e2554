package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-swap-service/internal/domain"
	"solana-swap-service/internal/storage"
	. "solana-swap-service/internal/storage/postgres"
)

func TestSwapRecordStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSwapRecordStore(pool)
	ctx := context.Background()

	rec := &domain.SwapRecord{
		RequestID:       "11111111-2222-3333-4444-555555555555",
		InputSymbol:     "USDC",
		OutputSymbol:    "SOL",
		InputAmount:     "10",
		PredictedOutput: "0.0625",
		SlippageBps:     50,
		Status:          domain.SwapStatusSuccess,
		TxSignature:     "5j7s6NiJS3JAkvgkoc18WVAsiSaci2pxB2A6ueCJP4tprA2TFg9wSyTLeYouxPBJEMzJinENTkpA52YStRW5Dia7",
		CreatedAt:       1704067200000,
	}

	require.NoError(t, store.Insert(ctx, rec))

	got, err := store.GetByRequestID(ctx, rec.RequestID)
	require.NoError(t, err)
	assert.Equal(t, rec.InputSymbol, got.InputSymbol)
	assert.Equal(t, rec.InputAmount, got.InputAmount)
	assert.Equal(t, rec.PredictedOutput, got.PredictedOutput)
	assert.Equal(t, rec.TxSignature, got.TxSignature)
	assert.Equal(t, rec.CreatedAt, got.CreatedAt)
}

func TestSwapRecordStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSwapRecordStore(pool)
	ctx := context.Background()

	rec := &domain.SwapRecord{
		RequestID:    "dup-request",
		InputSymbol:  "SOL",
		OutputSymbol: "USDC",
		InputAmount:  "1",
		SlippageBps:  50,
		Status:       domain.SwapStatusFailed,
		CreatedAt:    1000,
	}

	require.NoError(t, store.Insert(ctx, rec))
	err := store.Insert(ctx, rec)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestSwapRecordStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSwapRecordStore(pool)
	_, err := store.GetByRequestID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSwapRecordStore_GetByTimeRange(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSwapRecordStore(pool)
	ctx := context.Background()

	for i, created := range []int64{3000, 1000, 2000, 9000} {
		rec := &domain.SwapRecord{
			RequestID:    string(rune('a' + i)),
			InputSymbol:  "SOL",
			OutputSymbol: "USDC",
			InputAmount:  "1",
			SlippageBps:  50,
			Status:       domain.SwapStatusSuccess,
			CreatedAt:    created,
		}
		require.NoError(t, store.Insert(ctx, rec))
	}

	got, err := store.GetByTimeRange(ctx, 1000, 3000)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(1000), got[0].CreatedAt)
	assert.Equal(t, int64(2000), got[1].CreatedAt)
	assert.Equal(t, int64(3000), got[2].CreatedAt)
}
