package models

import "time"

// Status is the lifecycle state shared by checkouts and their orders.
// PENDING is the only mutable state; COMPLETED is terminal.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Checkout is a customer's multi-restaurant cart, or its completed record
type Checkout struct {
	ID            string    `json:"id" db:"id"`
	CustomerID    string    `json:"customerId" db:"customer_id"`
	Status        Status    `json:"status" db:"status"`
	SubtotalCents int64     `json:"subtotalCents" db:"subtotal_cents"`
	TaxCents      int64     `json:"taxCents" db:"tax_cents"`
	FeeCents      int64     `json:"feeCents" db:"fee_cents"`
	TotalCents    int64     `json:"totalCents" db:"total_cents"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}
