package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/YouBrin/BotChina/internal/config"
)

func testAPI() *API {
	return New(&config.Config{
		OperatorToken: "open-sesame",
		JWTSecret:     "test-secret",
	}, nil, nil)
}

func TestHandleHealth(t *testing.T) {
	api := testAPI()

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()

	api.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status OK, got %v", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ok") {
		t.Errorf("Expected body to contain 'ok', got %q", w.Body.String())
	}
}

func TestHandleLogin(t *testing.T) {
	api := testAPI()

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "valid token", body: `{"token":"open-sesame"}`, wantStatus: http.StatusOK},
		{name: "wrong token", body: `{"token":"nope"}`, wantStatus: http.StatusUnauthorized},
		{name: "bad body", body: `{`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			api.router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %v, got %v", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestLoginDisabledWithoutOperatorToken(t *testing.T) {
	api := New(&config.Config{JWTSecret: "test-secret"}, nil, nil)

	req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(`{"token":""}`))
	w := httptest.NewRecorder()

	api.router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status Forbidden, got %v", w.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	api := testAPI()

	// No Authorization header
	req := httptest.NewRequest("POST", "/api/params/refresh", nil)
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status Unauthorized without header, got %v", w.Code)
	}

	// Garbage token
	req = httptest.NewRequest("POST", "/api/params/refresh", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w = httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status Unauthorized with bad token, got %v", w.Code)
	}
}

func TestLoginIssuesUsableToken(t *testing.T) {
	api := testAPI()

	req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(`{"token":"open-sesame"}`))
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("login failed: %v", w.Code)
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("login returned an empty token")
	}

	// A protected route must accept the issued token; the middleware runs
	// before the handler, so reaching the handler (which needs no store)
	// proves the token was accepted.
	mw := api.authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req = httptest.NewRequest("GET", "/api/params", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	w = httptest.NewRecorder()
	mw.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected issued token to pass the middleware, got %v", w.Code)
	}
}
