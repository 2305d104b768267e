package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func authedManager(t *testing.T, role Role) (*Manager, string) {
	t.Helper()

	m := NewManager()
	if err := m.CreateUser("user", "secret123", role); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	token, err := m.Authenticate("user", "secret123")
	if err != nil {
		t.Fatalf("Failed to authenticate: %v", err)
	}
	return m, token
}

func TestMiddleware_AllowsPermittedRole(t *testing.T) {
	m, token := authedManager(t, RoleWriter)

	var sawSession bool
	handler := m.Middleware(PermissionWrite)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawSession = GetSession(r)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/counters/x/_add", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	if !sawSession {
		t.Error("Expected session in request context")
	}
}

func TestMiddleware_MissingHeader(t *testing.T) {
	m, _ := authedManager(t, RoleWriter)

	handler := m.Middleware(PermissionRead)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be reached")
	}))

	req := httptest.NewRequest("GET", "/counters/x", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}

func TestMiddleware_MalformedHeader(t *testing.T) {
	m, token := authedManager(t, RoleWriter)

	handler := m.Middleware(PermissionRead)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be reached")
	}))

	req := httptest.NewRequest("GET", "/counters/x", nil)
	req.Header.Set("Authorization", "Basic "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}

func TestMiddleware_InvalidToken(t *testing.T) {
	m, _ := authedManager(t, RoleWriter)

	handler := m.Middleware(PermissionRead)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be reached")
	}))

	req := httptest.NewRequest("GET", "/counters/x", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}

func TestMiddleware_InsufficientPermission(t *testing.T) {
	m, token := authedManager(t, RoleReader)

	handler := m.Middleware(PermissionAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not be reached")
	}))

	req := httptest.NewRequest("DELETE", "/_counters", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", rec.Code)
	}
}

func TestGetSession_Absent(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if _, ok := GetSession(req); ok {
		t.Error("Expected no session on a bare request")
	}
}
