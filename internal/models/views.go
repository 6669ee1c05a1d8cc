package models

import "time"

// CheckoutView is the pending checkout with its orders and line items
type CheckoutView struct {
	ID            string      `json:"id"`
	Status        Status      `json:"status"`
	SubtotalCents int64       `json:"subtotalCents"`
	TaxCents      int64       `json:"taxCents"`
	FeeCents      int64       `json:"feeCents"`
	TotalCents    int64       `json:"totalCents"`
	Orders        []OrderView `json:"orders"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// ItemCount sums line-item quantities across all orders
func (v *CheckoutView) ItemCount() int {
	count := 0
	for _, o := range v.Orders {
		for _, li := range o.Items {
			count += li.Quantity
		}
	}
	return count
}

// OrderView is one restaurant's order with line item details
type OrderView struct {
	ID             string         `json:"id"`
	CheckoutID     string         `json:"checkoutId"`
	RestaurantID   string         `json:"restaurantId"`
	RestaurantName string         `json:"restaurantName"`
	Status         Status         `json:"status"`
	TotalCents     int64          `json:"totalCents"`
	CreatedAt      time.Time      `json:"createdAt"`
	Items          []LineItemView `json:"items"`
}

type LineItemView struct {
	ItemID               string `json:"itemId"`
	Name                 string `json:"name"`
	Quantity             int    `json:"quantity"`
	PriceCentsAtPurchase int64  `json:"priceCentsAtPurchase"`
	LineTotalCents       int64  `json:"lineTotalCents"`
}

// OrderSummary is a row of the customer's order history
type OrderSummary struct {
	ID             string    `json:"id"`
	CheckoutID     string    `json:"checkoutId"`
	RestaurantName string    `json:"restaurantName"`
	Status         Status    `json:"status"`
	TotalCents     int64     `json:"totalCents"`
	ItemCount      int       `json:"itemCount"`
	CreatedAt      time.Time `json:"createdAt"`
}

// OrderFilter paginates order history
type OrderFilter struct {
	Limit  int
	Offset int
}

// Normalize applies default and maximum page sizes
func (f OrderFilter) Normalize() OrderFilter {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// CheckoutCompletedEvent is published after a checkout is finalized
type CheckoutCompletedEvent struct {
	CheckoutID  string               `json:"checkoutId"`
	CustomerID  string               `json:"customerId"`
	TotalCents  int64                `json:"totalCents"`
	Orders      []CompletedOrderInfo `json:"orders"`
	CompletedAt time.Time            `json:"completedAt"`
}

type CompletedOrderInfo struct {
	OrderID      string `json:"orderId"`
	RestaurantID string `json:"restaurantId"`
	TotalCents   int64  `json:"totalCents"`
}
