package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"surplus-food-marketplace/internal/models"
)

// RestaurantRepository handles restaurant reference data
type RestaurantRepository struct {
	db dbtx
}

func NewRestaurantRepository(db *sql.DB) *RestaurantRepository {
	return &RestaurantRepository{db: db}
}

// Upsert inserts or refreshes a restaurant keyed by slug and returns its stored ID
func (r *RestaurantRepository) Upsert(ctx context.Context, restaurant *models.Restaurant) (string, error) {
	query := `
		INSERT INTO restaurants (id, slug, name, city, is_active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			city = EXCLUDED.city,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()
		RETURNING id`

	var id string
	err := r.db.QueryRowContext(ctx, query,
		restaurant.ID,
		restaurant.Slug,
		restaurant.Name,
		restaurant.City,
		restaurant.IsActive,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to upsert restaurant %q: %w", restaurant.Slug, err)
	}
	return id, nil
}
