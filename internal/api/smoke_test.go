// Package api_test runs HTTP-level smoke tests using net/http/httptest.
// These tests do NOT require a PostgreSQL database — they verify:
//   - Gin router routing and middleware wiring
//   - Request validation error responses (400)
//   - JWT auth middleware (401 without token, 401 with bad token)
//   - Response format consistency (success/error envelope)
//   - CORS preflight handling
package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/denizolgu/chancepool/internal/api"
	"github.com/denizolgu/chancepool/internal/config"
	"github.com/denizolgu/chancepool/internal/service"
	"github.com/google/uuid"
)

// ── Test helpers ──────────────────────────────────────────────────────────────

func testCfg() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Env:  "development",
			Port: "8080",
		},
		JWT: config.JWTConfig{
			Secret: "test-secret-abcdefghijklmnop",
			TTL:    15 * time.Minute,
		},
		Ledger: config.LedgerConfig{
			AmountScale:   11,
			FeeMultiplier: 10,
			MaxSettlers:   10,
		},
	}
}

// buildTestRouter creates a Gin engine with a real AuthService (token ops
// need only the secret) and nil for everything that requires a DB.  Tests
// only exercise paths that fail before any service call.
func buildTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := testCfg()
	authSvc := service.NewAuthService(cfg)

	return api.SetupRouter(api.RouterDeps{
		AuthSvc: authSvc,
		Cfg:     cfg,
	})
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func issueToken(t *testing.T, account uuid.UUID) string {
	t.Helper()
	token, err := service.NewAuthService(testCfg()).IssueToken(account)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	return token
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	router := buildTestRouter(t)
	w := doJSON(t, router, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d, want 200", w.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := buildTestRouter(t)

	routes := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/account/balance"},
		{http.MethodPost, "/api/pool/deposit"},
		{http.MethodPost, "/api/pool/withdraw"},
		{http.MethodGet, "/api/pool/shares"},
		{http.MethodPost, "/api/wagers"},
		{http.MethodGet, "/api/wagers/my"},
		{http.MethodPost, "/api/wagers/settle"},
		{http.MethodPost, "/api/settlers"},
	}
	for _, r := range routes {
		w := doJSON(t, router, r.method, r.path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s without token = %d, want 401", r.method, r.path, w.Code)
		}
	}
}

func TestBadTokenRejected(t *testing.T) {
	router := buildTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/wagers/my", "not-a-real-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token = %d, want 401", w.Code)
	}
}

func TestTokenEndpointAndValidation(t *testing.T) {
	router := buildTestRouter(t)

	// Dev token endpoint mints a usable token.
	w := doJSON(t, router, http.MethodPost, "/api/auth/token", "",
		map[string]string{"account": uuid.New().String()})
	if w.Code != http.StatusOK {
		t.Fatalf("POST /api/auth/token = %d, want 200: %s", w.Code, w.Body)
	}
	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.Data.AccessToken == "" {
		t.Fatalf("bad token response: %s", w.Body)
	}

	// The minted token passes the JWT middleware; a malformed body then
	// fails validation before any service is touched.
	w = doJSON(t, router, http.MethodPost, "/api/pool/deposit", resp.Data.AccessToken,
		map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("deposit with empty body = %d, want 400: %s", w.Code, w.Body)
	}
}

func TestAmountValidation(t *testing.T) {
	router := buildTestRouter(t)
	token := issueToken(t, uuid.New())

	for _, amount := range []string{"-5", "abc", "0"} {
		w := doJSON(t, router, http.MethodPost, "/api/pool/deposit", token,
			map[string]string{"amount": amount})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("deposit amount %q = %d, want 400", amount, w.Code)
		}
		var resp struct {
			Success bool   `json:"success"`
			Code    string `json:"code"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Success {
			t.Fatalf("amount %q: success = true on an error response", amount)
		}
	}
}

func TestSettleValidation(t *testing.T) {
	router := buildTestRouter(t)
	token := issueToken(t, uuid.New())

	// Missing fields
	w := doJSON(t, router, http.MethodPost, "/api/wagers/settle", token,
		map[string]interface{}{"bettor": uuid.New().String()})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("settle missing fields = %d, want 400", w.Code)
	}

	// Bad bettor id
	w = doJSON(t, router, http.MethodPost, "/api/wagers/settle", token,
		map[string]interface{}{"bettor": "nope", "net_wager": "100", "won": true})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("settle bad bettor = %d, want 400", w.Code)
	}

	// Bad wager string
	w = doJSON(t, router, http.MethodPost, "/api/wagers/settle", token,
		map[string]interface{}{"bettor": uuid.New().String(), "net_wager": "12.5", "won": true})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("settle fractional wager = %d, want 400", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	router := buildTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/pool", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Allow-Origin = %q, want * in development", got)
	}
}
