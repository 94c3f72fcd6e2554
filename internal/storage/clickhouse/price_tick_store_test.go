package clickhouse_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-swap-service/internal/domain"
	"solana-swap-service/internal/storage"
	. "solana-swap-service/internal/storage/clickhouse"
)

func TestPriceTickStore_InsertBulkAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPriceTickStore(conn)
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.PriceTick{
		{Pair: "SOL-USDT", Price: 155.2, ObservedAt: 2000, UpstreamLag: 120},
		{Pair: "SOL-USDT", Price: 154.9, ObservedAt: 1000, UpstreamLag: 98},
		{Pair: "JUP-USDC", Price: 0.8, ObservedAt: 1500, UpstreamLag: 110},
	})
	require.NoError(t, err)

	got, err := store.GetByPair(ctx, "SOL-USDT")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1000), got[0].ObservedAt)
	assert.Equal(t, 154.9, got[0].Price)
	assert.Equal(t, int64(2000), got[1].ObservedAt)
}

func TestPriceTickStore_EmptyBatch(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPriceTickStore(conn)
	require.NoError(t, store.InsertBulk(context.Background(), nil))
}

func TestPriceTickStore_InvalidInput(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPriceTickStore(conn)
	err := store.InsertBulk(context.Background(), []*domain.PriceTick{{Pair: ""}})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
