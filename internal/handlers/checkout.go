package handlers

import (
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"surplus-food-marketplace/internal/middleware"
	"surplus-food-marketplace/internal/models"
	"surplus-food-marketplace/internal/services"
)

const (
	checkoutPage    = "/checkout"
	profilePage     = "/profile"
	restaurantsPage = "/restaurants"
)

// CheckoutHandler adapts HTTP requests to the checkout engine
type CheckoutHandler struct {
	checkouts services.CheckoutServiceInterface
	logger    zerolog.Logger
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkouts services.CheckoutServiceInterface, logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkouts: checkouts,
		logger:    logger.With().Str("component", "checkout_handler").Logger(),
	}
}

// AddItem handles POST /checkout/add
func (h *CheckoutHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	req := decodeCheckoutRequest(r)

	checkoutID, err := h.checkouts.AddItem(r.Context(), userID, req.ItemID)
	if err != nil {
		h.fail(w, r, backTarget(r), err)
		return
	}

	if middleware.WantsHTML(r) {
		redirect(w, r, checkoutPage)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"checkoutId":  checkoutID,
		"redirectUrl": checkoutPage,
	})
}

// AdjustItem handles PATCH /checkout/items with {itemId, delta}
func (h *CheckoutHandler) AdjustItem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	req := decodeCheckoutRequest(r)

	checkoutID, err := h.checkouts.AdjustQuantity(r.Context(), userID, req.ItemID, int(req.Delta))
	h.lineResult(w, r, checkoutID, err)
}

// RemoveItem handles DELETE /checkout/items?itemId=
func (h *CheckoutHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	req := decodeCheckoutRequest(r)

	checkoutID, err := h.checkouts.RemoveItem(r.Context(), userID, req.ItemID)
	h.lineResult(w, r, checkoutID, err)
}

// ItemCommand handles POST /checkout/items. Browsers cannot send PATCH or
// DELETE from a form, so the operation comes from op or _method; a JSON
// delta is accepted as well.
func (h *CheckoutHandler) ItemCommand(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	req := decodeCheckoutRequest(r)

	op := models.ParseItemOp(req.Op, req.Method)
	if op == "" && req.Delta != 0 {
		op, _ = models.OpFromDelta(int(req.Delta))
	}

	checkoutID, err := h.checkouts.ApplyItemCommand(r.Context(), userID, models.ItemCommand{
		ItemID: req.ItemID,
		Op:     op,
	})
	h.lineResult(w, r, checkoutID, err)
}

func (h *CheckoutHandler) lineResult(w http.ResponseWriter, r *http.Request, checkoutID string, err error) {
	if err != nil {
		h.fail(w, r, checkoutPage, err)
		return
	}

	if middleware.WantsHTML(r) {
		redirect(w, r, checkoutPage)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":         true,
		"checkoutId": checkoutID,
	})
}

// Count handles GET /checkout/count. It never fails: anonymous customers and
// store errors both report zero.
func (h *CheckoutHandler) Count(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	count, err := h.checkouts.Count(r.Context(), userID)
	if err != nil {
		count = 0
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

// Finalize handles POST /checkout/finalize with {checkoutId}
func (h *CheckoutHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	req := decodeCheckoutRequest(r)

	if err := h.checkouts.Finalize(r.Context(), userID, req.CheckoutID); err != nil {
		h.fail(w, r, checkoutPage, err)
		return
	}

	if middleware.WantsHTML(r) {
		redirect(w, r, profilePage)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"redirectUrl": profilePage})
}

// View handles GET /checkout and returns the pending checkout, or null
func (h *CheckoutHandler) View(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	view, err := h.checkouts.GetPendingCheckout(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*models.CheckoutView{"checkout": view})
}

// fail answers JSON clients with {error} and redirects form clients to target
func (h *CheckoutHandler) fail(w http.ResponseWriter, r *http.Request, target string, err error) {
	if models.CodeOf(err) == models.CodeInternal {
		h.logger.Error().Err(err).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("checkout request failed")
	}

	if middleware.WantsHTML(r) {
		redirectWithError(w, r, target, err)
		return
	}
	writeError(w, err)
}

// backTarget returns the local page the request came from, or the restaurant list
func backTarget(r *http.Request) string {
	referer := r.Header.Get("Referer")
	if referer == "" {
		return restaurantsPage
	}

	u, err := url.Parse(referer)
	if err != nil || (u.Host != "" && u.Host != r.Host) {
		return restaurantsPage
	}

	local := u.Path
	if local == "" {
		local = "/"
	}
	if u.RawQuery != "" {
		local += "?" + u.RawQuery
	}
	return local
}
