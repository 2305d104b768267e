package auth

import (
	"encoding/json"
	"net/http"
	"time"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Role      Role      `json:"role"`
}

// HandleLogin handles user login and hands out a session token.
func (m *Manager) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		writeAuthError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	token, err := m.Authenticate(req.Username, req.Password)
	if err != nil {
		writeAuthError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	session, _ := m.ValidateSession(token)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(LoginResponse{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		Role:      session.Role,
	})
}

// HandleLogout invalidates the session named by the Authorization header.
func (m *Manager) HandleLogout(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		writeAuthError(w, http.StatusBadRequest, "missing authorization header")
		return
	}

	token, err := ParseBearer(authHeader)
	if err != nil {
		writeAuthError(w, http.StatusBadRequest, "invalid authorization header")
		return
	}

	m.InvalidateSession(token)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"ok":      true,
		"message": "logged out",
	})
}
