package services

import (
	"context"

	"surplus-food-marketplace/internal/models"
	"surplus-food-marketplace/internal/repositories"
)

// TxRunner runs fn inside one store transaction
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx repositories.Tx) error) error
}

// CheckoutReader provides read-only checkout queries outside a transaction
type CheckoutReader interface {
	CountPendingQuantity(ctx context.Context, customerID string) (int, error)
	GetPendingView(ctx context.Context, customerID string) (*models.CheckoutView, error)
}

// OrderReader provides read-only order history queries
type OrderReader interface {
	ListSummaries(ctx context.Context, customerID string, filter models.OrderFilter) ([]models.OrderSummary, int, error)
	GetOrderView(ctx context.Context, customerID, orderID string) (*models.OrderView, error)
}

// CountCache caches the number of units in a customer's pending checkout.
// Set is conditional on the generation read before the count was computed;
// Invalidate advances it.
type CountCache interface {
	Get(ctx context.Context, customerID string) (int, bool)
	Generation(ctx context.Context, customerID string) (int64, error)
	Set(ctx context.Context, customerID string, count int, generation int64) error
	Invalidate(ctx context.Context, customerID string) error
}

// EventPublisher announces completed checkouts to downstream consumers
type EventPublisher interface {
	PublishCheckoutCompleted(ctx context.Context, event *models.CheckoutCompletedEvent) error
}

// CheckoutServiceInterface defines the interface for the checkout engine
type CheckoutServiceInterface interface {
	AddItem(ctx context.Context, customerID, itemID string) (string, error)
	AdjustQuantity(ctx context.Context, customerID, itemID string, delta int) (string, error)
	RemoveItem(ctx context.Context, customerID, itemID string) (string, error)
	ApplyItemCommand(ctx context.Context, customerID string, cmd models.ItemCommand) (string, error)
	Finalize(ctx context.Context, customerID, checkoutID string) error
	Count(ctx context.Context, customerID string) (int, error)
	GetPendingCheckout(ctx context.Context, customerID string) (*models.CheckoutView, error)
}

// OrderServiceInterface defines the interface for customer order history
type OrderServiceInterface interface {
	ListOrders(ctx context.Context, customerID string, filter models.OrderFilter) ([]models.OrderSummary, int, error)
	GetOrder(ctx context.Context, customerID, orderID string) (*models.OrderView, error)
}
