package models

import "time"

// Order groups the line items of one restaurant within a checkout
type Order struct {
	ID           string    `json:"id" db:"id"`
	CheckoutID   string    `json:"checkoutId" db:"checkout_id"`
	CustomerID   string    `json:"customerId" db:"customer_id"`
	RestaurantID string    `json:"restaurantId" db:"restaurant_id"`
	Status       Status    `json:"status" db:"status"`
	TotalCents   int64     `json:"totalCents" db:"total_cents"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// OrderItem is a priced, quantified reference to one catalog item within an order.
// PriceCentsAtPurchase is fixed when the line is created.
type OrderItem struct {
	OrderID              string `json:"orderId" db:"order_id"`
	ItemID               string `json:"itemId" db:"item_id"`
	Quantity             int    `json:"quantity" db:"quantity"`
	PriceCentsAtPurchase int64  `json:"priceCentsAtPurchase" db:"price_cents_at_purchase"`
}

// LineTotalCents returns quantity × snapshot price
func (oi *OrderItem) LineTotalCents() int64 {
	return int64(oi.Quantity) * oi.PriceCentsAtPurchase
}
