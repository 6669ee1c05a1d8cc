package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surplus-food-marketplace/internal/models"
)

func TestInventoryGuard(t *testing.T) {
	store := newMockStore()
	addTestItem(store, "i1", "r1", 1, 500, time.Hour)
	ctx := context.Background()
	tx := &mockTx{state: store.state, fail: store.shouldFailOps}
	guard := InventoryGuard{}

	require.NoError(t, guard.TryReserve(ctx, tx, "i1", testNow))
	assert.ErrorIs(t, guard.TryReserve(ctx, tx, "i1", testNow), models.ErrItemSoldOut)
	assert.ErrorIs(t, guard.TryReserve(ctx, tx, "missing", testNow), models.ErrItemSoldOut)

	require.NoError(t, guard.Release(ctx, tx, "i1", 0))
	assert.Equal(t, 0, store.item("i1").QuantityAvailable)

	require.NoError(t, guard.Release(ctx, tx, "i1", 2))
	assert.Equal(t, 2, store.item("i1").QuantityAvailable)

	// expiry is rechecked by the conditional update itself
	assert.ErrorIs(t, guard.TryReserve(ctx, tx, "i1", testNow.Add(2*time.Hour)), models.ErrItemSoldOut)

	store.shouldFailOps["ReserveItem"] = true
	err := guard.TryReserve(ctx, tx, "i1", testNow)
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrItemSoldOut)
}
