package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"surplus-food-marketplace/internal/middleware"
	"surplus-food-marketplace/internal/models"
	"surplus-food-marketplace/internal/services"
)

// ProfileHandler serves the customer's order history
type ProfileHandler struct {
	orders services.OrderServiceInterface
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(orders services.OrderServiceInterface) *ProfileHandler {
	return &ProfileHandler{orders: orders}
}

// ListOrders handles GET /profile/orders?limit=&offset=
func (h *ProfileHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	filter := models.OrderFilter{
		Limit:  queryInt(r, "limit", 0),
		Offset: queryInt(r, "offset", 0),
	}.Normalize()

	orders, total, err := h.orders.ListOrders(r.Context(), userID, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if orders == nil {
		orders = []models.OrderSummary{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"orders": orders,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// GetOrder handles GET /profile/orders/{id}. Orders of other customers are not found.
func (h *ProfileHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	order, err := h.orders.GetOrder(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*models.OrderView{"order": order})
}
