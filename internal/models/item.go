package models

import "time"

// Item is a discounted surplus food listing owned by a restaurant
type Item struct {
	ID                   string    `json:"id" db:"id"`
	RestaurantID         string    `json:"restaurantId" db:"restaurant_id"`
	Name                 string    `json:"name" db:"name"`
	OriginalPriceCents   int64     `json:"originalPriceCents" db:"original_price_cents"`
	DiscountedPriceCents int64     `json:"discountedPriceCents" db:"discounted_price_cents"`
	QuantityAvailable    int       `json:"quantityAvailable" db:"quantity_available"`
	ExpiresAt            time.Time `json:"expiresAt" db:"expires_at"`
}

// IsExpired returns true once the item can no longer be sold
func (i *Item) IsExpired(now time.Time) bool {
	return !i.ExpiresAt.After(now)
}

// Restaurant is read-only reference data for catalog items
type Restaurant struct {
	ID       string `json:"id" db:"id"`
	Slug     string `json:"slug" db:"slug"`
	Name     string `json:"name" db:"name"`
	City     string `json:"city" db:"city"`
	IsActive bool   `json:"isActive" db:"is_active"`
}
