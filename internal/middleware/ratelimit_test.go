package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "keys are independent")
	assert.Equal(t, time.Minute, rl.RetryAfter("a"))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.Allow("a"))
	assert.Equal(t, time.Duration(0), rl.RetryAfter("b"))

	now = now.Add(2 * time.Minute)
	rl.Cleanup()
	assert.Empty(t, rl.attempts)
}

func TestRateLimiter_Limit(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	handler := rl.Limit(okHandler())

	send := func(userID, contentType string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/checkout/add", nil)
		req.RemoteAddr = "10.0.0.1:1000"
		req.Header.Set("Content-Type", contentType)
		if userID != "" {
			req = req.WithContext(WithUserID(req.Context(), userID))
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	assert.Equal(t, http.StatusOK, send("u1", "application/json").Code)

	rr := send("u1", "application/json")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"Too many requests"}`, rr.Body.String())

	rr = send("u1", "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusSeeOther, rr.Code)

	assert.Equal(t, http.StatusOK, send("", "application/json").Code, "anonymous requests are keyed by IP")
	assert.Equal(t, http.StatusTooManyRequests, send("", "application/json").Code)
}
