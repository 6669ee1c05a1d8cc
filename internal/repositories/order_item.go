package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"surplus-food-marketplace/internal/models"
)

// OrderItemRepository handles order line items
type OrderItemRepository struct {
	db dbtx
}

func NewOrderItemRepository(db *sql.DB) *OrderItemRepository {
	return &OrderItemRepository{db: db}
}

// GetOrderItem returns the line for itemID within an order
func (r *OrderItemRepository) GetOrderItem(ctx context.Context, orderID, itemID string) (*models.OrderItem, error) {
	query := `
		SELECT order_id, item_id, quantity, price_cents_at_purchase
		FROM order_items
		WHERE order_id = $1 AND item_id = $2`

	oi := &models.OrderItem{}
	err := r.db.QueryRowContext(ctx, query, orderID, itemID).Scan(
		&oi.OrderID,
		&oi.ItemID,
		&oi.Quantity,
		&oi.PriceCentsAtPurchase,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order item: %w", err)
	}
	return oi, nil
}

// UpsertOrderItem adds one unit of itemID to the order and returns the line's
// price snapshot. A new line snapshots priceCents; an existing line keeps its
// original price.
func (r *OrderItemRepository) UpsertOrderItem(ctx context.Context, orderID, itemID string, priceCents int64) (int64, error) {
	query := `
		INSERT INTO order_items (order_id, item_id, quantity, price_cents_at_purchase)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (order_id, item_id) DO UPDATE
		SET quantity = order_items.quantity + 1
		RETURNING price_cents_at_purchase`

	var snapshot int64
	if err := r.db.QueryRowContext(ctx, query, orderID, itemID, priceCents).Scan(&snapshot); err != nil {
		return 0, fmt.Errorf("failed to upsert order item: %w", err)
	}
	return snapshot, nil
}

// IncrementOrderItem changes the line quantity by delta
func (r *OrderItemRepository) IncrementOrderItem(ctx context.Context, orderID, itemID string, delta int) error {
	query := `
		UPDATE order_items
		SET quantity = quantity + $3
		WHERE order_id = $1 AND item_id = $2`

	result, err := r.db.ExecContext(ctx, query, orderID, itemID, delta)
	if err != nil {
		return fmt.Errorf("failed to update order item quantity: %w", err)
	}
	rows, err := checkRowsAffected(result)
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteOrderItem removes the line for itemID
func (r *OrderItemRepository) DeleteOrderItem(ctx context.Context, orderID, itemID string) error {
	query := `DELETE FROM order_items WHERE order_id = $1 AND item_id = $2`

	if _, err := r.db.ExecContext(ctx, query, orderID, itemID); err != nil {
		return fmt.Errorf("failed to delete order item: %w", err)
	}
	return nil
}

// CountOrderItems returns the number of lines left in an order
func (r *OrderItemRepository) CountOrderItems(ctx context.Context, orderID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM order_items WHERE order_id = $1`, orderID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count order items: %w", err)
	}
	return count, nil
}
