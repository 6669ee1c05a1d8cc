package services

import (
	"context"
	"time"

	"surplus-food-marketplace/internal/models"
)

// StockStore is the stock subset of a store transaction
type StockStore interface {
	ReserveItem(ctx context.Context, id string, now time.Time) (bool, error)
	ReleaseItem(ctx context.Context, id string, quantity int) error
}

// InventoryGuard takes and returns item stock. Reservation is a single
// conditional decrement, never a read followed by a write.
type InventoryGuard struct{}

// TryReserve takes one unit of itemID. It fails with ErrItemSoldOut when the
// item has no stock left or expired between the caller's check and the update.
func (InventoryGuard) TryReserve(ctx context.Context, tx StockStore, itemID string, now time.Time) error {
	ok, err := tx.ReserveItem(ctx, itemID, now)
	if err != nil {
		return err
	}
	if !ok {
		return models.ErrItemSoldOut
	}
	return nil
}

// Release returns quantity units of itemID to stock
func (InventoryGuard) Release(ctx context.Context, tx StockStore, itemID string, quantity int) error {
	if quantity <= 0 {
		return nil
	}
	return tx.ReleaseItem(ctx, itemID, quantity)
}
