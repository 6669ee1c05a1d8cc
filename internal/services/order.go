package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"surplus-food-marketplace/internal/models"
)

// OrderService serves the customer's order history
type OrderService struct {
	orders OrderReader
	logger zerolog.Logger
}

// NewOrderService creates a new order service
func NewOrderService(orders OrderReader, logger zerolog.Logger) *OrderService {
	return &OrderService{
		orders: orders,
		logger: logger.With().Str("component", "orders").Logger(),
	}
}

// ListOrders returns a page of the customer's orders, newest first
func (s *OrderService) ListOrders(ctx context.Context, customerID string, filter models.OrderFilter) ([]models.OrderSummary, int, error) {
	if customerID == "" {
		return nil, 0, models.ErrUnauthenticated
	}

	summaries, total, err := s.orders.ListSummaries(ctx, customerID, filter.Normalize())
	if err != nil {
		s.logger.Error().Err(err).Str("customer_id", customerID).Msg("failed to list orders")
		return nil, 0, err
	}
	return summaries, total, nil
}

// GetOrder returns one order owned by the customer
func (s *OrderService) GetOrder(ctx context.Context, customerID, orderID string) (*models.OrderView, error) {
	if customerID == "" {
		return nil, models.ErrUnauthenticated
	}
	if strings.TrimSpace(orderID) == "" {
		return nil, models.ErrOrderNotFound
	}

	view, err := s.orders.GetOrderView(ctx, customerID, orderID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrOrderNotFound
		}
		s.logger.Error().Err(err).Str("order_id", orderID).Msg("failed to get order")
		return nil, err
	}
	return view, nil
}
