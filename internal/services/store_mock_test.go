package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"surplus-food-marketplace/internal/models"
	"surplus-food-marketplace/internal/repositories"
)

// In-memory store used by the service tests. Transactions are serialized by
// a mutex and run against a copy of the state that is swapped in on success,
// which gives the same all-or-nothing behaviour as the Postgres store.

type lineKey struct {
	orderID string
	itemID  string
}

type memState struct {
	items       map[string]*models.Item
	restaurants map[string]string
	checkouts   map[string]*models.Checkout
	orders      map[string]*models.Order
	lines       map[lineKey]*models.OrderItem
	seq         int
}

func (s *memState) clone() *memState {
	c := &memState{
		items:       make(map[string]*models.Item, len(s.items)),
		restaurants: make(map[string]string, len(s.restaurants)),
		checkouts:   make(map[string]*models.Checkout, len(s.checkouts)),
		orders:      make(map[string]*models.Order, len(s.orders)),
		lines:       make(map[lineKey]*models.OrderItem, len(s.lines)),
		seq:         s.seq,
	}
	for k, v := range s.items {
		cp := *v
		c.items[k] = &cp
	}
	for k, v := range s.restaurants {
		c.restaurants[k] = v
	}
	for k, v := range s.checkouts {
		cp := *v
		c.checkouts[k] = &cp
	}
	for k, v := range s.orders {
		cp := *v
		c.orders[k] = &cp
	}
	for k, v := range s.lines {
		cp := *v
		c.lines[k] = &cp
	}
	return c
}

func (s *memState) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *memState) tick() time.Time {
	s.seq++
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(s.seq) * time.Second)
}

type mockStore struct {
	mu            sync.Mutex
	state         *memState
	shouldFailOps map[string]bool
	txCount       int
}

func newMockStore() *mockStore {
	return &mockStore{
		state: &memState{
			items:       make(map[string]*models.Item),
			restaurants: make(map[string]string),
			checkouts:   make(map[string]*models.Checkout),
			orders:      make(map[string]*models.Order),
			lines:       make(map[lineKey]*models.OrderItem),
		},
		shouldFailOps: make(map[string]bool),
	}
}

func (m *mockStore) addRestaurant(id, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.restaurants[id] = name
}

func (m *mockStore) addItem(item models.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.items[item.ID] = &item
}

func (m *mockStore) item(id string) models.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.state.items[id]
}

func (m *mockStore) checkoutsFor(customerID string) []models.Checkout {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Checkout
	for _, c := range m.state.checkouts {
		if c.CustomerID == customerID {
			out = append(out, *c)
		}
	}
	return out
}

func (m *mockStore) ordersFor(checkoutID string) []models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.state.orders {
		if o.CheckoutID == checkoutID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *mockStore) linesFor(orderID string) []models.OrderItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.OrderItem
	for k, v := range m.state.lines {
		if k.orderID == orderID {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out
}

func (m *mockStore) setDiscountedPrice(itemID string, cents int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.items[itemID].DiscountedPriceCents = cents
}

func (m *mockStore) WithTx(ctx context.Context, fn func(tx repositories.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldFailOps["Begin"] {
		return errors.New("mock error")
	}

	work := m.state.clone()
	if err := fn(&mockTx{state: work, fail: m.shouldFailOps}); err != nil {
		return err
	}
	m.state = work
	m.txCount++
	return nil
}

func (m *mockStore) CountPendingQuantity(ctx context.Context, customerID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldFailOps["CountPendingQuantity"] {
		return 0, errors.New("mock error")
	}

	count := 0
	for _, c := range m.state.checkouts {
		if c.CustomerID != customerID || c.Status != models.StatusPending {
			continue
		}
		for _, o := range m.state.orders {
			if o.CheckoutID != c.ID {
				continue
			}
			for k, li := range m.state.lines {
				if k.orderID == o.ID {
					count += li.Quantity
				}
			}
		}
	}
	return count, nil
}

func (m *mockStore) GetPendingView(ctx context.Context, customerID string) (*models.CheckoutView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.state.checkouts {
		if c.CustomerID == customerID && c.Status == models.StatusPending {
			return &models.CheckoutView{
				ID:            c.ID,
				Status:        c.Status,
				SubtotalCents: c.SubtotalCents,
				TotalCents:    c.TotalCents,
				Orders:        m.orderViews(func(o *models.Order) bool { return o.CheckoutID == c.ID }),
				UpdatedAt:     c.UpdatedAt,
			}, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *mockStore) ListSummaries(ctx context.Context, customerID string, filter models.OrderFilter) ([]models.OrderSummary, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldFailOps["ListSummaries"] {
		return nil, 0, errors.New("mock error")
	}

	views := m.orderViews(func(o *models.Order) bool { return o.CustomerID == customerID })
	sort.SliceStable(views, func(i, j int) bool { return views[i].CreatedAt.After(views[j].CreatedAt) })

	summaries := []models.OrderSummary{}
	for _, v := range views {
		count := 0
		for _, li := range v.Items {
			count += li.Quantity
		}
		summaries = append(summaries, models.OrderSummary{
			ID:             v.ID,
			CheckoutID:     v.CheckoutID,
			RestaurantName: v.RestaurantName,
			Status:         v.Status,
			TotalCents:     v.TotalCents,
			ItemCount:      count,
			CreatedAt:      v.CreatedAt,
		})
	}

	total := len(summaries)
	if filter.Offset >= total {
		return []models.OrderSummary{}, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > total {
		end = total
	}
	return summaries[filter.Offset:end], total, nil
}

func (m *mockStore) GetOrderView(ctx context.Context, customerID, orderID string) (*models.OrderView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	views := m.orderViews(func(o *models.Order) bool { return o.ID == orderID && o.CustomerID == customerID })
	if len(views) == 0 {
		return nil, models.ErrNotFound
	}
	return &views[0], nil
}

func (m *mockStore) orderViews(match func(*models.Order) bool) []models.OrderView {
	views := []models.OrderView{}
	for _, o := range m.state.orders {
		if !match(o) {
			continue
		}
		v := models.OrderView{
			ID:             o.ID,
			CheckoutID:     o.CheckoutID,
			RestaurantID:   o.RestaurantID,
			RestaurantName: m.state.restaurants[o.RestaurantID],
			Status:         o.Status,
			TotalCents:     o.TotalCents,
			CreatedAt:      o.CreatedAt,
			Items:          []models.LineItemView{},
		}
		for k, li := range m.state.lines {
			if k.orderID != o.ID {
				continue
			}
			v.Items = append(v.Items, models.LineItemView{
				ItemID:               li.ItemID,
				Name:                 m.state.items[li.ItemID].Name,
				Quantity:             li.Quantity,
				PriceCentsAtPurchase: li.PriceCentsAtPurchase,
				LineTotalCents:       li.LineTotalCents(),
			})
		}
		sort.Slice(v.Items, func(i, j int) bool { return v.Items[i].ItemID < v.Items[j].ItemID })
		views = append(views, v)
	}
	sort.Slice(views, func(i, j int) bool { return views[i].CreatedAt.Before(views[j].CreatedAt) })
	return views
}

// mockTx implements repositories.Tx over a working copy of the state
type mockTx struct {
	state *memState
	fail  map[string]bool
}

func (t *mockTx) failed(op string) error {
	if t.fail[op] {
		return fmt.Errorf("failed to %s: mock error", op)
	}
	return nil
}

func (t *mockTx) GetItem(ctx context.Context, id string) (*models.Item, error) {
	if err := t.failed("GetItem"); err != nil {
		return nil, err
	}
	item, ok := t.state.items[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (t *mockTx) ReserveItem(ctx context.Context, id string, now time.Time) (bool, error) {
	if err := t.failed("ReserveItem"); err != nil {
		return false, err
	}
	item, ok := t.state.items[id]
	if !ok || item.QuantityAvailable <= 0 || !item.ExpiresAt.After(now) {
		return false, nil
	}
	item.QuantityAvailable--
	return true, nil
}

func (t *mockTx) ReleaseItem(ctx context.Context, id string, quantity int) error {
	if err := t.failed("ReleaseItem"); err != nil {
		return err
	}
	if item, ok := t.state.items[id]; ok {
		item.QuantityAvailable += quantity
	}
	return nil
}

func (t *mockTx) FindPendingCheckout(ctx context.Context, customerID string) (*models.Checkout, error) {
	for _, c := range t.state.checkouts {
		if c.CustomerID == customerID && c.Status == models.StatusPending {
			cp := *c
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (t *mockTx) CreatePendingCheckout(ctx context.Context, customerID string) (*models.Checkout, error) {
	if existing, err := t.FindPendingCheckout(ctx, customerID); err == nil {
		return existing, nil
	}
	now := t.state.tick()
	c := &models.Checkout{
		ID:         t.state.nextID("checkout"),
		CustomerID: customerID,
		Status:     models.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	t.state.checkouts[c.ID] = c
	cp := *c
	return &cp, nil
}

func (t *mockTx) FindOwnedCheckout(ctx context.Context, checkoutID, customerID string, status models.Status) (*models.Checkout, error) {
	c, ok := t.state.checkouts[checkoutID]
	if !ok || c.CustomerID != customerID || c.Status != status {
		return nil, models.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (t *mockTx) AddCheckoutTotals(ctx context.Context, checkoutID string, deltaCents int64) error {
	if err := t.failed("AddCheckoutTotals"); err != nil {
		return err
	}
	c, ok := t.state.checkouts[checkoutID]
	if !ok {
		return models.ErrNotFound
	}
	c.SubtotalCents += deltaCents
	c.TotalCents += deltaCents
	c.UpdatedAt = t.state.tick()
	return nil
}

func (t *mockTx) SetCheckoutStatus(ctx context.Context, checkoutID string, status models.Status) error {
	c, ok := t.state.checkouts[checkoutID]
	if !ok {
		return models.ErrNotFound
	}
	c.Status = status
	return nil
}

func (t *mockTx) FindOrderByRestaurant(ctx context.Context, checkoutID, restaurantID string) (*models.Order, error) {
	for _, o := range t.state.orders {
		if o.CheckoutID == checkoutID && o.RestaurantID == restaurantID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (t *mockTx) CreateOrder(ctx context.Context, checkout *models.Checkout, restaurantID string) (*models.Order, error) {
	if existing, err := t.FindOrderByRestaurant(ctx, checkout.ID, restaurantID); err == nil {
		return existing, nil
	}
	now := t.state.tick()
	o := &models.Order{
		ID:           t.state.nextID("order"),
		CheckoutID:   checkout.ID,
		CustomerID:   checkout.CustomerID,
		RestaurantID: restaurantID,
		Status:       models.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	t.state.orders[o.ID] = o
	cp := *o
	return &cp, nil
}

func (t *mockTx) FindOrderContainingItem(ctx context.Context, checkoutID, itemID string) (*models.Order, error) {
	for k := range t.state.lines {
		if k.itemID != itemID {
			continue
		}
		if o, ok := t.state.orders[k.orderID]; ok && o.CheckoutID == checkoutID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (t *mockTx) AddOrderTotal(ctx context.Context, orderID string, deltaCents int64) error {
	o, ok := t.state.orders[orderID]
	if !ok {
		return models.ErrNotFound
	}
	o.TotalCents += deltaCents
	return nil
}

func (t *mockTx) DeleteOrder(ctx context.Context, orderID string) error {
	delete(t.state.orders, orderID)
	return nil
}

func (t *mockTx) SetOrderStatusForCheckout(ctx context.Context, checkoutID string, status models.Status) ([]*models.Order, error) {
	var updated []*models.Order
	for _, o := range t.state.orders {
		if o.CheckoutID == checkoutID {
			o.Status = status
			cp := *o
			updated = append(updated, &cp)
		}
	}
	sort.Slice(updated, func(i, j int) bool { return updated[i].CreatedAt.Before(updated[j].CreatedAt) })
	return updated, nil
}

func (t *mockTx) GetOrderItem(ctx context.Context, orderID, itemID string) (*models.OrderItem, error) {
	li, ok := t.state.lines[lineKey{orderID, itemID}]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *li
	return &cp, nil
}

func (t *mockTx) UpsertOrderItem(ctx context.Context, orderID, itemID string, priceCents int64) (int64, error) {
	if err := t.failed("UpsertOrderItem"); err != nil {
		return 0, err
	}
	key := lineKey{orderID, itemID}
	if li, ok := t.state.lines[key]; ok {
		li.Quantity++
		return li.PriceCentsAtPurchase, nil
	}
	t.state.lines[key] = &models.OrderItem{
		OrderID:              orderID,
		ItemID:               itemID,
		Quantity:             1,
		PriceCentsAtPurchase: priceCents,
	}
	return priceCents, nil
}

func (t *mockTx) IncrementOrderItem(ctx context.Context, orderID, itemID string, delta int) error {
	li, ok := t.state.lines[lineKey{orderID, itemID}]
	if !ok {
		return models.ErrNotFound
	}
	if li.Quantity+delta <= 0 {
		return errors.New("quantity must stay positive")
	}
	li.Quantity += delta
	return nil
}

func (t *mockTx) DeleteOrderItem(ctx context.Context, orderID, itemID string) error {
	delete(t.state.lines, lineKey{orderID, itemID})
	return nil
}

func (t *mockTx) CountOrderItems(ctx context.Context, orderID string) (int, error) {
	count := 0
	for k := range t.state.lines {
		if k.orderID == orderID {
			count++
		}
	}
	return count, nil
}
