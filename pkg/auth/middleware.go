package auth

import (
	"context"
	"encoding/json"
	"net/http"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// ContextKeySession is the context key for the authenticated session
	ContextKeySession contextKey = "auth_session"
)

// Middleware returns an HTTP middleware that enforces the given permission.
func (m *Manager) Middleware(required Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			token, err := ParseBearer(authHeader)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			session, err := m.ValidateSession(token)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			if !HasPermission(session.Role, required) {
				writeAuthError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySession, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession extracts the session from the request context.
func GetSession(r *http.Request) (*Session, bool) {
	session, ok := r.Context().Value(ContextKeySession).(*Session)
	return session, ok
}

// writeAuthError writes an error response in the service envelope format.
func writeAuthError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"ok":      false,
		"error":   http.StatusText(statusCode),
		"message": message,
		"code":    statusCode,
	})
}
