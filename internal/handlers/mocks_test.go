package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"surplus-food-marketplace/internal/models"
)

// MockCheckoutService for testing
type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) AddItem(ctx context.Context, customerID, itemID string) (string, error) {
	args := m.Called(ctx, customerID, itemID)
	return args.String(0), args.Error(1)
}

func (m *MockCheckoutService) AdjustQuantity(ctx context.Context, customerID, itemID string, delta int) (string, error) {
	args := m.Called(ctx, customerID, itemID, delta)
	return args.String(0), args.Error(1)
}

func (m *MockCheckoutService) RemoveItem(ctx context.Context, customerID, itemID string) (string, error) {
	args := m.Called(ctx, customerID, itemID)
	return args.String(0), args.Error(1)
}

func (m *MockCheckoutService) ApplyItemCommand(ctx context.Context, customerID string, cmd models.ItemCommand) (string, error) {
	args := m.Called(ctx, customerID, cmd)
	return args.String(0), args.Error(1)
}

func (m *MockCheckoutService) Finalize(ctx context.Context, customerID, checkoutID string) error {
	args := m.Called(ctx, customerID, checkoutID)
	return args.Error(0)
}

func (m *MockCheckoutService) Count(ctx context.Context, customerID string) (int, error) {
	args := m.Called(ctx, customerID)
	return args.Int(0), args.Error(1)
}

func (m *MockCheckoutService) GetPendingCheckout(ctx context.Context, customerID string) (*models.CheckoutView, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CheckoutView), args.Error(1)
}

// MockOrderService for testing
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) ListOrders(ctx context.Context, customerID string, filter models.OrderFilter) ([]models.OrderSummary, int, error) {
	args := m.Called(ctx, customerID, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]models.OrderSummary), args.Int(1), args.Error(2)
}

func (m *MockOrderService) GetOrder(ctx context.Context, customerID, orderID string) (*models.OrderView, error) {
	args := m.Called(ctx, customerID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrderView), args.Error(1)
}
