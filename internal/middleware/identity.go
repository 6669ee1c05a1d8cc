package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
)

type contextKey string

const (
	UserIDContextKey    contextKey = "user_id"
	RequestIDContextKey contextKey = "request_id"

	sessionUserIDKey = "user_id"
	devUserIDHeader  = "X-User-ID"
)

// Identity resolves the authenticated customer from the session cookie written
// by the external auth provider's callback
type Identity struct {
	store       sessions.Store
	sessionName string
	allowHeader bool
}

// NewIdentity creates the identity middleware. allowHeader enables the
// X-User-ID header and must only be set in development.
func NewIdentity(store sessions.Store, sessionName string, allowHeader bool) *Identity {
	return &Identity{
		store:       store,
		sessionName: sessionName,
		allowHeader: allowHeader,
	}
}

// Load adds the user ID, if any, to the request context
func (m *Identity) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := m.fromSession(r)
		if userID == "" && m.allowHeader {
			userID = strings.TrimSpace(r.Header.Get(devUserIDHeader))
		}

		if userID != "" {
			r = r.WithContext(WithUserID(r.Context(), userID))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Identity) fromSession(r *http.Request) string {
	session, err := m.store.Get(r, m.sessionName)
	if err != nil {
		// Continue without user if session is invalid
		return ""
	}

	switch v := session.Values[sessionUserIDKey].(type) {
	case string:
		return strings.TrimSpace(v)
	case int, int64:
		return fmt.Sprintf("%d", v)
	default:
		return ""
	}
}

// SignIn stores the user ID in the session
func (m *Identity) SignIn(w http.ResponseWriter, r *http.Request, userID string) error {
	session, err := m.store.Get(r, m.sessionName)
	if err != nil && session == nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	session.Values[sessionUserIDKey] = userID
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// WithUserID returns a context carrying the user ID
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDContextKey, userID)
}

// GetUserIDFromContext returns the authenticated user ID, or "" for anonymous requests
func GetUserIDFromContext(ctx context.Context) string {
	if userID, ok := ctx.Value(UserIDContextKey).(string); ok {
		return userID
	}
	return ""
}

// WantsHTML reports whether the client is a browser form post or asks for HTML
func WantsHTML(r *http.Request) bool {
	contentType := r.Header.Get("Content-Type")
	accept := r.Header.Get("Accept")
	return strings.Contains(contentType, "application/x-www-form-urlencoded") ||
		strings.Contains(accept, "text/html")
}
