package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"surplus-food-marketplace/internal/models"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Tx is the set of store operations available to the checkout engine
// inside a single transaction. Every call takes the transaction handle
// explicitly through the receiver.
type Tx interface {
	GetItem(ctx context.Context, id string) (*models.Item, error)
	ReserveItem(ctx context.Context, id string, now time.Time) (bool, error)
	ReleaseItem(ctx context.Context, id string, quantity int) error

	FindPendingCheckout(ctx context.Context, customerID string) (*models.Checkout, error)
	CreatePendingCheckout(ctx context.Context, customerID string) (*models.Checkout, error)
	FindOwnedCheckout(ctx context.Context, checkoutID, customerID string, status models.Status) (*models.Checkout, error)
	AddCheckoutTotals(ctx context.Context, checkoutID string, deltaCents int64) error
	SetCheckoutStatus(ctx context.Context, checkoutID string, status models.Status) error

	FindOrderByRestaurant(ctx context.Context, checkoutID, restaurantID string) (*models.Order, error)
	CreateOrder(ctx context.Context, checkout *models.Checkout, restaurantID string) (*models.Order, error)
	FindOrderContainingItem(ctx context.Context, checkoutID, itemID string) (*models.Order, error)
	AddOrderTotal(ctx context.Context, orderID string, deltaCents int64) error
	DeleteOrder(ctx context.Context, orderID string) error
	SetOrderStatusForCheckout(ctx context.Context, checkoutID string, status models.Status) ([]*models.Order, error)

	GetOrderItem(ctx context.Context, orderID, itemID string) (*models.OrderItem, error)
	UpsertOrderItem(ctx context.Context, orderID, itemID string, priceCents int64) (int64, error)
	IncrementOrderItem(ctx context.Context, orderID, itemID string, delta int) error
	DeleteOrderItem(ctx context.Context, orderID, itemID string) error
	CountOrderItems(ctx context.Context, orderID string) (int, error)
}

// Store owns the connection pool and hands out repositories
type Store struct {
	db *sql.DB

	Items       *ItemRepository
	Restaurants *RestaurantRepository
	Checkouts   *CheckoutRepository
	Orders      *OrderRepository
}

// NewStore creates a store bound to the given pool
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:          db,
		Items:       NewItemRepository(db),
		Restaurants: NewRestaurantRepository(db),
		Checkouts:   NewCheckoutRepository(db),
		Orders:      NewOrderRepository(db),
	}
}

// readSnapshot runs fn on a read-only REPEATABLE READ transaction so that
// several statements observe one snapshot. A handle that is already a
// transaction is passed through unchanged.
func readSnapshot(ctx context.Context, db dbtx, fn func(q dbtx) error) error {
	pool, ok := db.(*sql.DB)
	if !ok {
		return fn(db)
	}

	tx, err := pool.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return fmt.Errorf("failed to begin read transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// txRepos binds every repository to one *sql.Tx
type txRepos struct {
	*ItemRepository
	*CheckoutRepository
	*OrderRepository
	*OrderItemRepository
}

// WithTx runs fn inside a transaction. Any error returned by fn rolls back.
func (s *Store) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	repos := &txRepos{
		ItemRepository:      &ItemRepository{db: sqlTx},
		CheckoutRepository:  &CheckoutRepository{db: sqlTx},
		OrderRepository:     &OrderRepository{db: sqlTx},
		OrderItemRepository: &OrderItemRepository{db: sqlTx},
	}

	if err := fn(repos); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ResetCheckouts deletes all checkouts, orders and line items
func (s *Store) ResetCheckouts(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `TRUNCATE order_items, orders, checkouts`); err != nil {
		return fmt.Errorf("failed to reset checkouts: %w", err)
	}
	return nil
}

func checkRowsAffected(result sql.Result) (int64, error) {
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}
