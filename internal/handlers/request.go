package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
)

const maxBodyBytes = 1 << 16

// checkoutRequest is the union of the inputs accepted by the checkout routes.
// JSON bodies, form posts and query parameters all decode into it.
type checkoutRequest struct {
	ItemID     string    `json:"itemId"`
	Delta      stepDelta `json:"delta"`
	Op         string    `json:"op"`
	Method     string    `json:"_method"`
	CheckoutID string    `json:"checkoutId"`
}

// stepDelta is a quantity step reduced to its sign. Numbers are truncated
// toward zero first, so 0.5 is no step at all. Non-numeric values are zero.
type stepDelta int

func (d *stepDelta) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n, _ := v.(float64)
	*d = deltaFromFloat(n)
	return nil
}

func deltaFromFloat(n float64) stepDelta {
	n = math.Trunc(n)
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}

func parseDelta(raw string) stepDelta {
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return deltaFromFloat(n)
}

// decodeCheckoutRequest reads the request input. A body that is not valid
// JSON is treated as empty so the engine reports the missing field. Fields of
// the wrong type are skipped and the rest are kept.
func decodeCheckoutRequest(r *http.Request) checkoutRequest {
	var req checkoutRequest

	if isJSONRequest(r) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err == nil && len(body) > 0 {
			var typeErr *json.UnmarshalTypeError
			if err := json.Unmarshal(body, &req); err != nil && !errors.As(err, &typeErr) {
				req = checkoutRequest{}
			}
		}
	} else if err := r.ParseForm(); err == nil {
		req.ItemID = r.PostForm.Get("itemId")
		req.Op = r.PostForm.Get("op")
		req.Method = r.PostForm.Get("_method")
		req.CheckoutID = r.PostForm.Get("checkoutId")
		req.Delta = parseDelta(r.PostForm.Get("delta"))
	}

	// Query parameters fill anything the body left empty
	query := r.URL.Query()
	if req.ItemID == "" {
		req.ItemID = query.Get("itemId")
	}
	if req.Op == "" {
		req.Op = query.Get("op")
	}
	if req.Method == "" {
		req.Method = query.Get("_method")
	}
	if req.CheckoutID == "" {
		req.CheckoutID = query.Get("checkoutId")
	}
	if req.Delta == 0 {
		req.Delta = parseDelta(query.Get("delta"))
	}

	req.ItemID = strings.TrimSpace(req.ItemID)
	req.CheckoutID = strings.TrimSpace(req.CheckoutID)
	return req
}

func isJSONRequest(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// queryInt parses an integer query parameter, returning fallback when absent or invalid
func queryInt(r *http.Request, key string, fallback int) int {
	value, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return fallback
	}
	return value
}
