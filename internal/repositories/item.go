package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"surplus-food-marketplace/internal/models"
)

// ItemRepository handles catalog item stock
type ItemRepository struct {
	db dbtx
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *sql.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

const itemColumns = `id, restaurant_id, name, original_price_cents, discounted_price_cents, quantity_available, expires_at`

func scanItem(row interface{ Scan(...interface{}) error }) (*models.Item, error) {
	item := &models.Item{}
	err := row.Scan(
		&item.ID,
		&item.RestaurantID,
		&item.Name,
		&item.OriginalPriceCents,
		&item.DiscountedPriceCents,
		&item.QuantityAvailable,
		&item.ExpiresAt,
	)
	return item, err
}

// GetItem retrieves an item by ID
func (r *ItemRepository) GetItem(ctx context.Context, id string) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	item, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// ReserveItem takes one unit of stock if the item is in stock and not expired.
// The check and the decrement are a single statement.
func (r *ItemRepository) ReserveItem(ctx context.Context, id string, now time.Time) (bool, error) {
	query := `
		UPDATE items
		SET quantity_available = quantity_available - 1, updated_at = NOW()
		WHERE id = $1 AND quantity_available > 0 AND expires_at > $2`

	result, err := r.db.ExecContext(ctx, query, id, now)
	if err != nil {
		return false, fmt.Errorf("failed to reserve item: %w", err)
	}

	rows, err := checkRowsAffected(result)
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// ReleaseItem returns quantity units to stock. There is no upper bound check.
func (r *ItemRepository) ReleaseItem(ctx context.Context, id string, quantity int) error {
	query := `
		UPDATE items
		SET quantity_available = quantity_available + $2, updated_at = NOW()
		WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, quantity); err != nil {
		return fmt.Errorf("failed to release item: %w", err)
	}
	return nil
}

// UpsertItem inserts or refreshes an item keyed by (restaurant, name).
// The stored ID is returned.
func (r *ItemRepository) UpsertItem(ctx context.Context, item *models.Item) (string, error) {
	query := `
		INSERT INTO items (id, restaurant_id, name, original_price_cents, discounted_price_cents, quantity_available, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (restaurant_id, name) DO UPDATE SET
			original_price_cents = EXCLUDED.original_price_cents,
			discounted_price_cents = EXCLUDED.discounted_price_cents,
			quantity_available = EXCLUDED.quantity_available,
			expires_at = EXCLUDED.expires_at,
			updated_at = NOW()
		RETURNING id`

	var id string
	err := r.db.QueryRowContext(ctx, query,
		item.ID,
		item.RestaurantID,
		item.Name,
		item.OriginalPriceCents,
		item.DiscountedPriceCents,
		item.QuantityAvailable,
		item.ExpiresAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to upsert item %q: %w", item.Name, err)
	}
	return id, nil
}
