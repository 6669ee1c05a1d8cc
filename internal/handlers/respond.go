package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"

	"surplus-food-marketplace/internal/models"
)

// writeJSON writes a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps a checkout failure to its HTTP status and {error} body.
// Unexpected failures never leak their message.
func writeError(w http.ResponseWriter, err error) {
	code := models.CodeOf(err)
	message := "Internal error"
	if code != models.CodeInternal {
		message = err.Error()
	}
	writeJSON(w, statusForCode(code), map[string]string{"error": message})
}

func statusForCode(code models.ErrorCode) int {
	switch code {
	case models.CodeUnauthenticated:
		return http.StatusUnauthorized
	case models.CodeBadRequest:
		return http.StatusBadRequest
	case models.CodeNotFound:
		return http.StatusNotFound
	case models.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// isHTMXRequest reports whether the request was issued by htmx
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// redirect sends form clients to target. htmx requests get an HX-Redirect header instead.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// redirectWithError redirects to target with the short error code of err
// in the error query parameter
func redirectWithError(w http.ResponseWriter, r *http.Request, target string, err error) {
	redirect(w, r, withErrorParam(target, models.ReasonOf(err)))
}

func withErrorParam(target, reason string) string {
	u, err := url.Parse(target)
	if err != nil {
		return "/checkout?error=" + url.QueryEscape(reason)
	}
	q := u.Query()
	q.Set("error", reason)
	u.RawQuery = q.Encode()
	return u.String()
}
