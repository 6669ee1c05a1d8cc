package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"surplus-food-marketplace/internal/models"
)

// CheckoutRepository handles checkout data operations
type CheckoutRepository struct {
	db dbtx
}

// NewCheckoutRepository creates a new checkout repository
func NewCheckoutRepository(db *sql.DB) *CheckoutRepository {
	return &CheckoutRepository{db: db}
}

const checkoutColumns = `id, customer_id, status, subtotal_cents, tax_cents, fee_cents, total_cents, created_at, updated_at`

func scanCheckout(row interface{ Scan(...interface{}) error }) (*models.Checkout, error) {
	c := &models.Checkout{}
	err := row.Scan(
		&c.ID,
		&c.CustomerID,
		&c.Status,
		&c.SubtotalCents,
		&c.TaxCents,
		&c.FeeCents,
		&c.TotalCents,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err == nil && !c.Status.Valid() {
		return nil, fmt.Errorf("checkout %s has unknown status %q", c.ID, c.Status)
	}
	return c, err
}

// FindPendingCheckout returns the customer's PENDING checkout and locks its row
// until the transaction ends
func (r *CheckoutRepository) FindPendingCheckout(ctx context.Context, customerID string) (*models.Checkout, error) {
	query := `SELECT ` + checkoutColumns + `
		FROM checkouts
		WHERE customer_id = $1 AND status = 'PENDING'
		FOR UPDATE`

	c, err := scanCheckout(r.db.QueryRowContext(ctx, query, customerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find pending checkout: %w", err)
	}
	return c, nil
}

// CreatePendingCheckout inserts an empty PENDING checkout. If a concurrent
// request created one first, that checkout is returned instead.
func (r *CheckoutRepository) CreatePendingCheckout(ctx context.Context, customerID string) (*models.Checkout, error) {
	query := `
		INSERT INTO checkouts (id, customer_id, status, subtotal_cents, tax_cents, fee_cents, total_cents)
		VALUES ($1, $2, 'PENDING', 0, 0, 0, 0)
		ON CONFLICT (customer_id) WHERE status = 'PENDING' DO NOTHING
		RETURNING ` + checkoutColumns

	c, err := scanCheckout(r.db.QueryRowContext(ctx, query, uuid.New().String(), customerID))
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to create checkout: %w", err)
	}

	return r.FindPendingCheckout(ctx, customerID)
}

// FindOwnedCheckout locks the checkout matching id, owner and status
func (r *CheckoutRepository) FindOwnedCheckout(ctx context.Context, checkoutID, customerID string, status models.Status) (*models.Checkout, error) {
	query := `SELECT ` + checkoutColumns + `
		FROM checkouts
		WHERE id = $1 AND customer_id = $2 AND status = $3
		FOR UPDATE`

	c, err := scanCheckout(r.db.QueryRowContext(ctx, query, checkoutID, customerID, status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find checkout: %w", err)
	}
	return c, nil
}

// AddCheckoutTotals adds deltaCents to subtotal and total
func (r *CheckoutRepository) AddCheckoutTotals(ctx context.Context, checkoutID string, deltaCents int64) error {
	query := `
		UPDATE checkouts
		SET subtotal_cents = subtotal_cents + $2,
			total_cents = total_cents + $2,
			updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, checkoutID, deltaCents)
	if err != nil {
		return fmt.Errorf("failed to update checkout totals: %w", err)
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

// SetCheckoutStatus updates the checkout status
func (r *CheckoutRepository) SetCheckoutStatus(ctx context.Context, checkoutID string, status models.Status) error {
	query := `UPDATE checkouts SET status = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, checkoutID, status)
	if err != nil {
		return fmt.Errorf("failed to update checkout status: %w", err)
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

// CountPendingQuantity sums line-item quantities in the customer's PENDING checkout
func (r *CheckoutRepository) CountPendingQuantity(ctx context.Context, customerID string) (int, error) {
	query := `
		SELECT COALESCE(SUM(oi.quantity), 0)
		FROM checkouts c
		JOIN orders o ON o.checkout_id = c.id
		JOIN order_items oi ON oi.order_id = o.id
		WHERE c.customer_id = $1 AND c.status = 'PENDING'`

	var count int
	if err := r.db.QueryRowContext(ctx, query, customerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count checkout items: %w", err)
	}
	return count, nil
}

// GetPendingView loads the PENDING checkout with orders and line items
func (r *CheckoutRepository) GetPendingView(ctx context.Context, customerID string) (*models.CheckoutView, error) {
	query := `SELECT ` + checkoutColumns + ` FROM checkouts WHERE customer_id = $1 AND status = 'PENDING'`

	var (
		c      *models.Checkout
		orders []models.OrderView
	)
	err := readSnapshot(ctx, r.db, func(q dbtx) error {
		var err error
		c, err = scanCheckout(q.QueryRowContext(ctx, query, customerID))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return models.ErrNotFound
			}
			return fmt.Errorf("failed to get pending checkout: %w", err)
		}

		orders, err = loadOrderViews(ctx, q, `o.checkout_id = $1`, c.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &models.CheckoutView{
		ID:            c.ID,
		Status:        c.Status,
		SubtotalCents: c.SubtotalCents,
		TaxCents:      c.TaxCents,
		FeeCents:      c.FeeCents,
		TotalCents:    c.TotalCents,
		Orders:        orders,
		UpdatedAt:     c.UpdatedAt,
	}, nil
}
