package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"surplus-food-marketplace/internal/middleware"
	"surplus-food-marketplace/internal/models"
)

func TestProfileHandler_ListOrders(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		query      string
		wantFilter models.OrderFilter
	}{
		{"defaults", "", models.OrderFilter{Limit: 20, Offset: 0}},
		{"explicit page", "?limit=5&offset=10", models.OrderFilter{Limit: 5, Offset: 10}},
		{"clamped", "?limit=500&offset=-3", models.OrderFilter{Limit: 100, Offset: 0}},
		{"garbage", "?limit=abc", models.OrderFilter{Limit: 20, Offset: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockOrderService)
			summaries := []models.OrderSummary{
				{ID: "o1", CheckoutID: "chk-1", RestaurantName: "Green Bowl", Status: models.StatusCompleted, TotalCents: 899, ItemCount: 1, CreatedAt: created},
			}
			svc.On("ListOrders", mock.Anything, "cust-a", tt.wantFilter).Return(summaries, 1, nil)

			req := newJSONRequest("GET", "/profile/orders"+tt.query, "", "cust-a")
			rr := httptest.NewRecorder()
			NewProfileHandler(svc).ListOrders(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			body := decodeBody(t, rr)
			assert.Equal(t, float64(1), body["total"])
			assert.Equal(t, float64(tt.wantFilter.Limit), body["limit"])
			assert.Len(t, body["orders"], 1)
			svc.AssertExpectations(t)
		})
	}
}

func TestProfileHandler_ListOrders_EmptyAndUnauthenticated(t *testing.T) {
	svc := new(MockOrderService)
	svc.On("ListOrders", mock.Anything, "cust-a", mock.Anything).Return(nil, 0, nil)
	svc.On("ListOrders", mock.Anything, "", mock.Anything).Return(nil, 0, models.ErrUnauthenticated)

	handler := NewProfileHandler(svc)

	rr := httptest.NewRecorder()
	handler.ListOrders(rr, newJSONRequest("GET", "/profile/orders", "", "cust-a"))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"orders":[],"total":0,"limit":20,"offset":0}`, rr.Body.String())

	rr = httptest.NewRecorder()
	handler.ListOrders(rr, newJSONRequest("GET", "/profile/orders", "", ""))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestProfileHandler_GetOrder(t *testing.T) {
	tests := []struct {
		name       string
		orderID    string
		view       *models.OrderView
		err        error
		wantStatus int
	}{
		{"own order", "o1", &models.OrderView{ID: "o1", RestaurantName: "Green Bowl"}, nil, http.StatusOK},
		{"other customer's order", "o2", nil, models.ErrOrderNotFound, http.StatusNotFound},
		{"store failure", "o3", nil, errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockOrderService)
			svc.On("GetOrder", mock.Anything, "cust-a", tt.orderID).Return(tt.view, tt.err)

			r := chi.NewRouter()
			r.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					next.ServeHTTP(w, req.WithContext(middleware.WithUserID(req.Context(), "cust-a")))
				})
			})
			r.Get("/profile/orders/{id}", NewProfileHandler(svc).GetOrder)

			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest("GET", "/profile/orders/"+tt.orderID, nil))

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.view != nil {
				body := decodeBody(t, rr)
				order := body["order"].(map[string]interface{})
				assert.Equal(t, "Green Bowl", order["restaurantName"])
			}
			svc.AssertExpectations(t)
		})
	}
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(ctx context.Context) error {
	return p.err
}

type stubStats map[string]interface{}

func (s stubStats) Stats() map[string]interface{} {
	return s
}

func TestHealthHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	NewHealthHandler(stubPinger{}, nil, zerolog.Nop()).Health(rr, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	NewHealthHandler(stubPinger{err: errors.New("down")}, nil, zerolog.Nop()).Health(rr, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestHealthHandler_CacheStats(t *testing.T) {
	stats := stubStats{"hits": 3, "misses": 1, "total_lookups": 4, "hit_rate": 0.75}

	rr := httptest.NewRecorder()
	NewHealthHandler(stubPinger{}, stats, zerolog.Nop()).Health(rr, httptest.NewRequest("GET", "/healthz", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","countCache":{"hits":3,"misses":1,"total_lookups":4,"hit_rate":0.75}}`, rr.Body.String())
}
