package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoUserHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetUserIDFromContext(r.Context())))
	})
}

func TestIdentity_Load_FromSession(t *testing.T) {
	store := sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!!"))
	identity := NewIdentity(store, "marketplace_session", false)

	// Write the session cookie the way the auth callback would
	signIn := httptest.NewRecorder()
	require.NoError(t, identity.SignIn(signIn, httptest.NewRequest("GET", "/", nil), "user-42"))
	cookies := signIn.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest("GET", "/checkout/count", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	identity.Load(echoUserHandler()).ServeHTTP(rr, req)

	assert.Equal(t, "user-42", rr.Body.String())
}

func TestIdentity_Load_DevHeader(t *testing.T) {
	store := sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!!"))

	tests := []struct {
		name        string
		allowHeader bool
		want        string
	}{
		{"development honours header", true, "dev-user"},
		{"production ignores header", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity := NewIdentity(store, "marketplace_session", tt.allowHeader)
			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set("X-User-ID", " dev-user ")
			rr := httptest.NewRecorder()

			identity.Load(echoUserHandler()).ServeHTTP(rr, req)
			assert.Equal(t, tt.want, rr.Body.String())
		})
	}
}

func TestIdentity_Load_InvalidCookie(t *testing.T) {
	store := sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!!"))
	identity := NewIdentity(store, "marketplace_session", false)

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "marketplace_session", Value: "tampered"})
	rr := httptest.NewRecorder()

	identity.Load(echoUserHandler()).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestGetUserIDFromContext(t *testing.T) {
	assert.Equal(t, "", GetUserIDFromContext(context.Background()))
	assert.Equal(t, "u1", GetUserIDFromContext(WithUserID(context.Background(), "u1")))
}

func TestWantsHTML(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		accept      string
		want        bool
	}{
		{"form post", "application/x-www-form-urlencoded", "", true},
		{"browser navigation", "", "text/html,application/xhtml+xml", true},
		{"json", "application/json", "application/json", false},
		{"nothing", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", nil)
			req.Header.Set("Content-Type", tt.contentType)
			req.Header.Set("Accept", tt.accept)
			assert.Equal(t, tt.want, WantsHTML(req))
		})
	}
}
