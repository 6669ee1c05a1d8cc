package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"surplus-food-marketplace/internal/models"
)

// OrderRepository handles per-restaurant order data operations
type OrderRepository struct {
	db dbtx
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `o.id, o.checkout_id, o.customer_id, o.restaurant_id, o.status, o.total_cents, o.created_at, o.updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (*models.Order, error) {
	o := &models.Order{}
	err := row.Scan(
		&o.ID,
		&o.CheckoutID,
		&o.CustomerID,
		&o.RestaurantID,
		&o.Status,
		&o.TotalCents,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err == nil && !o.Status.Valid() {
		return nil, fmt.Errorf("order %s has unknown status %q", o.ID, o.Status)
	}
	return o, err
}

// FindOrderByRestaurant returns the order for a restaurant within a checkout
func (r *OrderRepository) FindOrderByRestaurant(ctx context.Context, checkoutID, restaurantID string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.checkout_id = $1 AND o.restaurant_id = $2`

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, checkoutID, restaurantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return o, nil
}

// CreateOrder inserts an empty PENDING order for the restaurant, or returns
// the existing one for the same (checkout, restaurant)
func (r *OrderRepository) CreateOrder(ctx context.Context, checkout *models.Checkout, restaurantID string) (*models.Order, error) {
	query := `
		INSERT INTO orders AS o (id, checkout_id, customer_id, restaurant_id, status, total_cents)
		VALUES ($1, $2, $3, $4, 'PENDING', 0)
		ON CONFLICT (checkout_id, restaurant_id) DO NOTHING
		RETURNING ` + orderColumns

	o, err := scanOrder(r.db.QueryRowContext(ctx, query,
		uuid.New().String(),
		checkout.ID,
		checkout.CustomerID,
		restaurantID,
	))
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	return r.FindOrderByRestaurant(ctx, checkout.ID, restaurantID)
}

// FindOrderContainingItem returns the order of the checkout that holds a line for itemID
func (r *OrderRepository) FindOrderContainingItem(ctx context.Context, checkoutID, itemID string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders o
		JOIN order_items oi ON oi.order_id = o.id
		WHERE o.checkout_id = $1 AND oi.item_id = $2
		LIMIT 1`

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, checkoutID, itemID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find order for item: %w", err)
	}
	return o, nil
}

// AddOrderTotal adds deltaCents to the order total
func (r *OrderRepository) AddOrderTotal(ctx context.Context, orderID string, deltaCents int64) error {
	query := `UPDATE orders SET total_cents = total_cents + $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, orderID, deltaCents)
	if err != nil {
		return fmt.Errorf("failed to update order total: %w", err)
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

// DeleteOrder deletes an order
func (r *OrderRepository) DeleteOrder(ctx context.Context, orderID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, orderID); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}

// SetOrderStatusForCheckout moves every order of the checkout to status
// and returns the updated orders
func (r *OrderRepository) SetOrderStatusForCheckout(ctx context.Context, checkoutID string, status models.Status) ([]*models.Order, error) {
	query := `
		UPDATE orders AS o
		SET status = $2, updated_at = NOW()
		WHERE o.checkout_id = $1
		RETURNING ` + orderColumns

	rows, err := r.db.QueryContext(ctx, query, checkoutID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	return orders, nil
}

// ListSummaries returns the customer's orders, newest first, with the total count
func (r *OrderRepository) ListSummaries(ctx context.Context, customerID string, filter models.OrderFilter) ([]models.OrderSummary, int, error) {
	filter = filter.Normalize()

	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE customer_id = $1`, customerID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get order count: %w", err)
	}

	query := `
		SELECT
			o.id, o.checkout_id, r.name, o.status, o.total_cents, o.created_at,
			COALESCE(SUM(oi.quantity), 0) AS item_count
		FROM orders o
		JOIN restaurants r ON r.id = o.restaurant_id
		LEFT JOIN order_items oi ON oi.order_id = o.id
		WHERE o.customer_id = $1
		GROUP BY o.id, r.name
		ORDER BY o.created_at DESC, o.id
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, customerID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	summaries := []models.OrderSummary{}
	for rows.Next() {
		var s models.OrderSummary
		if err := rows.Scan(&s.ID, &s.CheckoutID, &s.RestaurantName, &s.Status, &s.TotalCents, &s.CreatedAt, &s.ItemCount); err != nil {
			return nil, 0, fmt.Errorf("failed to scan order summary: %w", err)
		}
		summaries = append(summaries, s)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating orders: %w", err)
	}
	return summaries, total, nil
}

// GetOrderView returns one of the customer's orders with its line items
func (r *OrderRepository) GetOrderView(ctx context.Context, customerID, orderID string) (*models.OrderView, error) {
	views, err := loadOrderViews(ctx, r.db, `o.id = $1 AND o.customer_id = $2`, orderID, customerID)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, models.ErrNotFound
	}
	return &views[0], nil
}

// loadOrderViews reads orders matching where together with their line items
func loadOrderViews(ctx context.Context, db dbtx, where string, args ...interface{}) ([]models.OrderView, error) {
	query := fmt.Sprintf(`
		SELECT
			o.id, o.checkout_id, o.restaurant_id, r.name, o.status, o.total_cents, o.created_at,
			oi.item_id, i.name, oi.quantity, oi.price_cents_at_purchase
		FROM orders o
		JOIN restaurants r ON r.id = o.restaurant_id
		LEFT JOIN order_items oi ON oi.order_id = o.id
		LEFT JOIN items i ON i.id = oi.item_id
		WHERE %s
		ORDER BY o.created_at, o.id, i.name`, strings.TrimSpace(where))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	defer rows.Close()

	views := []models.OrderView{}
	index := map[string]int{}
	for rows.Next() {
		var (
			o        models.OrderView
			itemID   sql.NullString
			itemName sql.NullString
			quantity sql.NullInt64
			price    sql.NullInt64
		)
		err := rows.Scan(
			&o.ID, &o.CheckoutID, &o.RestaurantID, &o.RestaurantName, &o.Status, &o.TotalCents, &o.CreatedAt,
			&itemID, &itemName, &quantity, &price,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}

		i, ok := index[o.ID]
		if !ok {
			o.Items = []models.LineItemView{}
			views = append(views, o)
			i = len(views) - 1
			index[o.ID] = i
		}

		if itemID.Valid {
			views[i].Items = append(views[i].Items, models.LineItemView{
				ItemID:               itemID.String,
				Name:                 itemName.String,
				Quantity:             int(quantity.Int64),
				PriceCentsAtPurchase: price.Int64,
				LineTotalCents:       quantity.Int64 * price.Int64,
			})
		}
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order lines: %w", err)
	}
	return views, nil
}
