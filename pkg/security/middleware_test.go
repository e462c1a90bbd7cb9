package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func testCfg() SecConfig {
	return SecConfig{
		AllowedOrigins: []string{"https://app.example.com"},
		BackendKeys:    map[string]struct{}{"backend-key": {}},
		FrontendKeys:   map[string]struct{}{"frontend-key": {}},
		AdminKeys:      map[string]struct{}{"admin-key": {}},
	}
}

func roleEcho() (http.Handler, *string) {
	var role string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role = r.Header.Get("X-Role-Name")
		w.WriteHeader(http.StatusOK)
	})
	return h, &role
}

func TestAPIKeyRoles(t *testing.T) {
	inner, role := roleEcho()
	h := AuthenticateRequestMiddleware(testCfg())(inner)

	cases := []struct {
		key  string
		want string
	}{
		{"backend-key", "backend"},
		{"frontend-key", "frontend"},
		{"admin-key", "admin"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/v1/messages/users", nil)
		req.Header.Set("X-API-Key", tc.key)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("key %s: expected 200; got %d", tc.key, rr.Code)
		}
		if *role != tc.want {
			t.Fatalf("key %s: expected role %s; got %s", tc.key, tc.want, *role)
		}
	}
}

func TestBearerTokenAccepted(t *testing.T) {
	inner, role := roleEcho()
	h := AuthenticateRequestMiddleware(testCfg())(inner)

	req := httptest.NewRequest(http.MethodGet, "/v1/messages/users", nil)
	req.Header.Set("Authorization", "Bearer backend-key")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || *role != "backend" {
		t.Fatalf("expected backend via bearer; code=%d role=%s", rr.Code, *role)
	}
}

func TestUnauthenticatedRequests(t *testing.T) {
	inner, _ := roleEcho()
	h := AuthenticateRequestMiddleware(testCfg())(inner)

	// bare request is refused
	req := httptest.NewRequest(http.MethodGet, "/v1/messages/users", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401; got %d", rr.Code)
	}

	// signed identity headers are let through for the next layer to verify
	req = httptest.NewRequest(http.MethodGet, "/v1/messages/users", nil)
	req.Header.Set("X-User-ID", "alice")
	req.Header.Set("X-User-Signature", "sig")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected signed headers to pass; got %d", rr.Code)
	}

	// websocket connects carry identity in query params instead
	req = httptest.NewRequest(http.MethodGet, "/ws?user_id=alice&signature=sig", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected signed ws query to pass; got %d", rr.Code)
	}

	// healthz needs nothing
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected open healthz; got %d", rr.Code)
	}
}

func TestFrontendScope(t *testing.T) {
	inner, _ := roleEcho()
	h := AuthenticateRequestMiddleware(testCfg())(inner)

	for _, path := range []string{"/v1/messages/users", "/v1/messages/send/bob", "/ws"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("X-API-Key", "frontend-key")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected frontend access; got %d", path, rr.Code)
		}
	}
	for _, path := range []string{"/metrics", "/docs/"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("X-API-Key", "frontend-key")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusForbidden {
			t.Fatalf("%s: expected frontend denied; got %d", path, rr.Code)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	inner, _ := roleEcho()
	h := AuthenticateRequestMiddleware(testCfg())(inner)

	req := httptest.NewRequest(http.MethodOptions, "/v1/messages/users", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204; got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("unexpected allow-origin: %q", got)
	}

	// unknown origins get no CORS headers
	req = httptest.NewRequest(http.MethodOptions, "/v1/messages/users", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow-origin for unknown origin; got %q", got)
	}
}

func TestIPWhitelist(t *testing.T) {
	cfg := testCfg()
	cfg.IPWhitelist = []string{"10.0.0.1"}
	inner, _ := roleEcho()
	h := AuthenticateRequestMiddleware(cfg)(inner)

	req := httptest.NewRequest(http.MethodGet, "/v1/messages/users", nil)
	req.RemoteAddr = "10.0.0.2:4444"
	req.Header.Set("X-API-Key", "backend-key")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 off-whitelist; got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/messages/users", nil)
	req.RemoteAddr = "10.0.0.1:4444"
	req.Header.Set("X-API-Key", "backend-key")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected whitelisted pass; got %d", rr.Code)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testCfg()
	cfg.RPS = 1
	cfg.Burst = 2
	inner, _ := roleEcho()
	h := AuthenticateRequestMiddleware(cfg)(inner)

	var limited bool
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/messages/users", nil)
		req.Header.Set("X-API-Key", "backend-key")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code == http.StatusTooManyRequests {
			limited = true
		}
	}
	if !limited {
		t.Fatalf("burst of requests was never rate limited")
	}
}
