package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"surplus-food-marketplace/internal/models"
	"surplus-food-marketplace/internal/repositories"
)

// CheckoutService reserves stock and maintains a customer's pending checkout.
// Every mutating call runs in one transaction and locks the customer's
// PENDING checkout row before touching item stock.
type CheckoutService struct {
	store     TxRunner
	checkouts CheckoutReader
	inventory InventoryGuard
	cache     CountCache
	events    EventPublisher
	logger    zerolog.Logger
	now       func() time.Time
}

// CheckoutOption customizes a CheckoutService
type CheckoutOption func(*CheckoutService)

// WithClock overrides the time source used for expiry checks
func WithClock(now func() time.Time) CheckoutOption {
	return func(s *CheckoutService) {
		s.now = now
	}
}

// WithCountCache sets the cache used by Count
func WithCountCache(cache CountCache) CheckoutOption {
	return func(s *CheckoutService) {
		s.cache = cache
	}
}

// WithEventPublisher sets the publisher notified after finalize
func WithEventPublisher(events EventPublisher) CheckoutOption {
	return func(s *CheckoutService) {
		s.events = events
	}
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(store TxRunner, checkouts CheckoutReader, logger zerolog.Logger, opts ...CheckoutOption) *CheckoutService {
	s := &CheckoutService{
		store:     store,
		checkouts: checkouts,
		cache:     NoopCountCache{},
		events:    NoopEventPublisher{},
		logger:    logger.With().Str("component", "checkout").Logger(),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// AddItem reserves one unit of itemID and adds it to the customer's pending
// checkout, creating the checkout and the restaurant's order when missing.
// It returns the checkout ID.
func (s *CheckoutService) AddItem(ctx context.Context, customerID, itemID string) (string, error) {
	if customerID == "" {
		return "", models.ErrUnauthenticated
	}
	if strings.TrimSpace(itemID) == "" {
		return "", models.ErrMissingItemID
	}

	now := s.now()
	var checkoutID string

	err := s.store.WithTx(ctx, func(tx repositories.Tx) error {
		item, err := tx.GetItem(ctx, itemID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return models.ErrItemNotFound
			}
			return err
		}
		if item.IsExpired(now) {
			return models.ErrItemExpired
		}

		// Lock an existing checkout before the item row so that every
		// operation takes locks in the same order.
		checkout, err := tx.FindPendingCheckout(ctx, customerID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return err
		}

		if err := s.inventory.TryReserve(ctx, tx, item.ID, now); err != nil {
			return err
		}

		if checkout == nil {
			checkout, err = tx.CreatePendingCheckout(ctx, customerID)
			if err != nil {
				return err
			}
		}

		order, err := tx.FindOrderByRestaurant(ctx, checkout.ID, item.RestaurantID)
		if errors.Is(err, models.ErrNotFound) {
			order, err = tx.CreateOrder(ctx, checkout, item.RestaurantID)
		}
		if err != nil {
			return err
		}

		price, err := tx.UpsertOrderItem(ctx, order.ID, item.ID, item.DiscountedPriceCents)
		if err != nil {
			return err
		}

		if err := tx.AddOrderTotal(ctx, order.ID, price); err != nil {
			return err
		}
		if err := tx.AddCheckoutTotals(ctx, checkout.ID, price); err != nil {
			return err
		}

		checkoutID = checkout.ID
		return nil
	})
	if err != nil {
		s.logFailure("add_item", customerID, itemID, err)
		return "", err
	}

	s.invalidateCount(ctx, customerID)
	s.logger.Info().Str("customer_id", customerID).Str("item_id", itemID).Str("checkout_id", checkoutID).Msg("item added to checkout")
	return checkoutID, nil
}

// AdjustQuantity changes the line quantity of itemID by one step in the
// direction of delta. Decrementing the last unit removes the line.
func (s *CheckoutService) AdjustQuantity(ctx context.Context, customerID, itemID string, delta int) (string, error) {
	op, err := models.OpFromDelta(delta)
	if err != nil {
		return "", err
	}
	return s.ApplyItemCommand(ctx, customerID, models.ItemCommand{ItemID: itemID, Op: op})
}

// RemoveItem deletes the line for itemID and returns its full quantity to stock
func (s *CheckoutService) RemoveItem(ctx context.Context, customerID, itemID string) (string, error) {
	return s.ApplyItemCommand(ctx, customerID, models.ItemCommand{ItemID: itemID, Op: models.OpRemove})
}

// ApplyItemCommand executes a normalized line-item command
func (s *CheckoutService) ApplyItemCommand(ctx context.Context, customerID string, cmd models.ItemCommand) (string, error) {
	if customerID == "" {
		return "", models.ErrUnauthenticated
	}
	if err := cmd.Validate(); err != nil {
		return "", err
	}

	now := s.now()
	var checkoutID string

	err := s.store.WithTx(ctx, func(tx repositories.Tx) error {
		line, err := s.lockLine(ctx, tx, customerID, cmd.ItemID)
		if err != nil {
			return err
		}

		if cmd.Op == models.OpRemove {
			err = s.removeLine(ctx, tx, line)
		} else {
			err = s.adjustLine(ctx, tx, line, cmd.Op.Delta(), now)
		}
		if err != nil {
			return err
		}

		checkoutID = line.checkout.ID
		return nil
	})
	if err != nil {
		s.logFailure(string(cmd.Op), customerID, cmd.ItemID, err)
		return "", err
	}

	s.invalidateCount(ctx, customerID)
	s.logger.Info().
		Str("customer_id", customerID).
		Str("item_id", cmd.ItemID).
		Str("op", string(cmd.Op)).
		Str("checkout_id", checkoutID).
		Msg("checkout line updated")
	return checkoutID, nil
}

// lockedLine is a line item together with its locked checkout and order
type lockedLine struct {
	checkout *models.Checkout
	order    *models.Order
	item     *models.OrderItem
}

func (s *CheckoutService) lockLine(ctx context.Context, tx repositories.Tx, customerID, itemID string) (*lockedLine, error) {
	checkout, err := tx.FindPendingCheckout(ctx, customerID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNoPendingCheckout
		}
		return nil, err
	}

	order, err := tx.FindOrderContainingItem(ctx, checkout.ID, itemID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrItemNotInCheckout
		}
		return nil, err
	}

	oi, err := tx.GetOrderItem(ctx, order.ID, itemID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrItemNotInCheckout
		}
		return nil, err
	}

	return &lockedLine{checkout: checkout, order: order, item: oi}, nil
}

func (s *CheckoutService) adjustLine(ctx context.Context, tx repositories.Tx, line *lockedLine, delta int, now time.Time) error {
	itemID := line.item.ItemID

	if delta > 0 {
		item, err := tx.GetItem(ctx, itemID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return err
		}
		if item == nil || item.IsExpired(now) {
			return models.ErrItemExpired
		}
		if err := s.inventory.TryReserve(ctx, tx, itemID, now); err != nil {
			return err
		}
	} else {
		// TODO: track reservations per line so a release can never exceed what was taken
		if err := s.inventory.Release(ctx, tx, itemID, 1); err != nil {
			return err
		}
	}

	applied := delta
	orderDeleted := false
	if line.item.Quantity+delta <= 0 {
		applied = -line.item.Quantity
		if err := tx.DeleteOrderItem(ctx, line.order.ID, itemID); err != nil {
			return err
		}
		var err error
		if orderDeleted, err = s.collectOrder(ctx, tx, line.order.ID); err != nil {
			return err
		}
	} else if err := tx.IncrementOrderItem(ctx, line.order.ID, itemID, delta); err != nil {
		return err
	}

	return s.applyTotals(ctx, tx, line, line.item.PriceCentsAtPurchase*int64(applied), orderDeleted)
}

func (s *CheckoutService) removeLine(ctx context.Context, tx repositories.Tx, line *lockedLine) error {
	itemID := line.item.ItemID

	if err := tx.DeleteOrderItem(ctx, line.order.ID, itemID); err != nil {
		return err
	}

	orderDeleted, err := s.collectOrder(ctx, tx, line.order.ID)
	if err != nil {
		return err
	}

	if err := s.inventory.Release(ctx, tx, itemID, line.item.Quantity); err != nil {
		return err
	}

	return s.applyTotals(ctx, tx, line, -line.item.LineTotalCents(), orderDeleted)
}

// collectOrder deletes the order once its last line is gone
func (s *CheckoutService) collectOrder(ctx context.Context, tx repositories.Tx, orderID string) (bool, error) {
	remaining, err := tx.CountOrderItems(ctx, orderID)
	if err != nil {
		return false, err
	}
	if remaining > 0 {
		return false, nil
	}
	if err := tx.DeleteOrder(ctx, orderID); err != nil {
		return false, err
	}
	return true, nil
}

func (s *CheckoutService) applyTotals(ctx context.Context, tx repositories.Tx, line *lockedLine, deltaCents int64, orderDeleted bool) error {
	if !orderDeleted {
		if err := tx.AddOrderTotal(ctx, line.order.ID, deltaCents); err != nil {
			return err
		}
	}
	return tx.AddCheckoutTotals(ctx, line.checkout.ID, deltaCents)
}

// Finalize marks the customer's PENDING checkout and all of its orders
// COMPLETED. No stock is touched.
func (s *CheckoutService) Finalize(ctx context.Context, customerID, checkoutID string) error {
	if customerID == "" {
		return models.ErrUnauthenticated
	}
	if strings.TrimSpace(checkoutID) == "" {
		return models.ErrMissingCheckoutID
	}

	var event *models.CheckoutCompletedEvent

	err := s.store.WithTx(ctx, func(tx repositories.Tx) error {
		checkout, err := tx.FindOwnedCheckout(ctx, checkoutID, customerID, models.StatusPending)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return models.ErrCheckoutNotPending
			}
			return err
		}

		orders, err := tx.SetOrderStatusForCheckout(ctx, checkout.ID, models.StatusCompleted)
		if err != nil {
			return err
		}
		if err := tx.SetCheckoutStatus(ctx, checkout.ID, models.StatusCompleted); err != nil {
			return err
		}

		event = newCheckoutCompletedEvent(checkout, orders, s.now())
		return nil
	})
	if err != nil {
		s.logFailure("finalize", customerID, "", err)
		return err
	}

	s.invalidateCount(ctx, customerID)
	s.logger.Info().Str("customer_id", customerID).Str("checkout_id", checkoutID).Int64("total_cents", event.TotalCents).Msg("checkout finalized")

	if err := s.events.PublishCheckoutCompleted(ctx, event); err != nil {
		s.logger.Error().Err(err).Str("checkout_id", checkoutID).Msg("failed to publish checkout completed event")
	}
	return nil
}

func newCheckoutCompletedEvent(checkout *models.Checkout, orders []*models.Order, completedAt time.Time) *models.CheckoutCompletedEvent {
	event := &models.CheckoutCompletedEvent{
		CheckoutID:  checkout.ID,
		CustomerID:  checkout.CustomerID,
		TotalCents:  checkout.TotalCents,
		Orders:      make([]models.CompletedOrderInfo, 0, len(orders)),
		CompletedAt: completedAt,
	}
	for _, o := range orders {
		event.Orders = append(event.Orders, models.CompletedOrderInfo{
			OrderID:      o.ID,
			RestaurantID: o.RestaurantID,
			TotalCents:   o.TotalCents,
		})
	}
	return event
}

// Count returns the number of units in the customer's pending checkout.
// Anonymous customers and customers without a checkout have zero.
func (s *CheckoutService) Count(ctx context.Context, customerID string) (int, error) {
	if customerID == "" {
		return 0, nil
	}

	if count, ok := s.cache.Get(ctx, customerID); ok {
		return count, nil
	}

	gen, genErr := s.cache.Generation(ctx, customerID)

	count, err := s.checkouts.CountPendingQuantity(ctx, customerID)
	if err != nil {
		s.logger.Error().Err(err).Str("customer_id", customerID).Msg("failed to count checkout items")
		return 0, err
	}

	if genErr != nil {
		return count, nil
	}
	if err := s.cache.Set(ctx, customerID, count, gen); err != nil {
		s.logger.Warn().Err(err).Str("customer_id", customerID).Msg("failed to cache checkout count")
	}
	return count, nil
}

// GetPendingCheckout returns the pending checkout view, or nil when there is none
func (s *CheckoutService) GetPendingCheckout(ctx context.Context, customerID string) (*models.CheckoutView, error) {
	if customerID == "" {
		return nil, models.ErrUnauthenticated
	}

	view, err := s.checkouts.GetPendingView(ctx, customerID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return view, nil
}

func (s *CheckoutService) invalidateCount(ctx context.Context, customerID string) {
	if err := s.cache.Invalidate(ctx, customerID); err != nil {
		s.logger.Warn().Err(err).Str("customer_id", customerID).Msg("failed to invalidate checkout count")
	}
}

func (s *CheckoutService) logFailure(op, customerID, itemID string, err error) {
	event := s.logger.Debug()
	if models.CodeOf(err) == models.CodeInternal {
		event = s.logger.Error()
	}
	event.Err(err).Str("op", op).Str("customer_id", customerID).Str("item_id", itemID).Msg("checkout operation failed")
}
