package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/auth-service/internal/api/handler"
	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/service"
	"github.com/99minutos/auth-service/internal/infrastructure/db/memory"
	"github.com/99minutos/auth-service/internal/infrastructure/validation"
)

type testServer struct {
	e     *echo.Echo
	store *memory.Store
	state *validation.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	state := validation.NewStore()
	tokens := service.NewTokenService("router-secret", 0, 0)
	hasher := service.BcryptHasher{Cost: bcrypt.MinCost}

	hash, err := hasher.Hash("rootpassword")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if _, err := store.SeedSuperAdmin(context.Background(), "root@example.com", hash); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	authService := service.NewAuthService(service.AuthDeps{
		Store:     store,
		Tokens:    tokens,
		Hasher:    hasher,
		Blacklist: state,
		Records:   state,
		Keys:      state,
		Log:       zerolog.Nop(),
	})

	e := NewRouter(Deps{
		Auth: authService,
		Gate: service.NewGate(tokens, state, zerolog.Nop()),
		Stats: func() handler.SystemStats {
			st := state.Stats()
			return handler.SystemStats{BlacklistedTokens: st.Blacklisted, ValidationKeys: st.Keys, TokenRecords: st.Tokens}
		},
		Checks:   map[string]handler.Check{"store": store.HealthCheck},
		Log:      zerolog.Nop(),
		Registry: prometheus.NewRegistry(),
	})
	return &testServer{e: e, store: store, state: state}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var resp map[string]any
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid json from %s %s: %v", method, path, err)
		}
	}
	return rec, resp
}

func (s *testServer) login(t *testing.T, path, email, password string) (access, refresh string) {
	t.Helper()
	rec, resp := s.do(t, http.MethodPost, path, "", `{"email":"`+email+`","password":"`+password+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d %v", email, rec.Code, resp)
	}
	return resp["access_token"].(string), resp["refresh_token"].(string)
}

func TestRouter_RegisterLoginLogout(t *testing.T) {
	s := newTestServer(t)

	rec, resp := s.do(t, http.MethodPost, "/auth/register", "",
		`{"email":"alice@example.com","username":"alice","password":"password123"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d %v", rec.Code, resp)
	}

	// fresh accounts are Pending
	rec, resp = s.do(t, http.MethodPost, "/auth/login", "", `{"email":"alice@example.com","password":"password123"}`)
	if rec.Code != http.StatusForbidden || resp["code"] != "ACCOUNT_INACTIVE" {
		t.Fatalf("expected ACCOUNT_INACTIVE, got %d %v", rec.Code, resp)
	}

	user, err := s.store.UserByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	s.store.PutAccount(&domain.Account{UserID: user.ID, Tier: domain.TierPremium, Status: domain.StatusActive})

	access, _ := s.login(t, "/auth/login", "alice@example.com", "password123")

	rec, resp = s.do(t, http.MethodGet, "/auth/me", access, "")
	if rec.Code != http.StatusOK || resp["user_id"] != user.ID {
		t.Fatalf("me: %d %v", rec.Code, resp)
	}

	rec, resp = s.do(t, http.MethodGet, "/api/v1/analytics", access, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("premium analytics: %d %v", rec.Code, resp)
	}
	rec, resp = s.do(t, http.MethodGet, "/api/v1/integrations", access, "")
	if rec.Code != http.StatusForbidden || resp["code"] != "MISSING_CAPABILITY" {
		t.Fatalf("premium integrations: %d %v", rec.Code, resp)
	}
	rec, resp = s.do(t, http.MethodGet, "/admin/system/status", access, "")
	if rec.Code != http.StatusForbidden || resp["code"] != "NOT_ADMIN" {
		t.Fatalf("user on admin route: %d %v", rec.Code, resp)
	}

	rec, _ = s.do(t, http.MethodPost, "/auth/logout", access, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: %d", rec.Code)
	}
	rec, resp = s.do(t, http.MethodGet, "/auth/me", access, "")
	if rec.Code != http.StatusUnauthorized || resp["code"] != "TOKEN_REVOKED" {
		t.Fatalf("revoked token still accepted: %d %v", rec.Code, resp)
	}
}

func TestRouter_RefreshRotation(t *testing.T) {
	s := newTestServer(t)
	_, refresh := s.login(t, "/auth/login", "root@example.com", "rootpassword")

	rec, resp := s.do(t, http.MethodPost, "/auth/refresh", "", `{"refresh_token":"`+refresh+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: %d %v", rec.Code, resp)
	}

	rec, resp = s.do(t, http.MethodPost, "/auth/refresh", "", `{"refresh_token":"`+refresh+`"}`)
	if rec.Code != http.StatusUnauthorized || resp["code"] != "TOKEN_REVOKED" {
		t.Fatalf("replayed refresh: %d %v", rec.Code, resp)
	}
}

func TestRouter_AdminRoutes(t *testing.T) {
	s := newTestServer(t)

	// a user login does not grant admin access even for admins
	userAccess, _ := s.login(t, "/auth/login", "root@example.com", "rootpassword")
	rec, _ := s.do(t, http.MethodGet, "/admin/dashboard", userAccess, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("user token on dashboard: %d", rec.Code)
	}

	adminAccess, _ := s.login(t, "/auth/admin/login", "root@example.com", "rootpassword")
	rec, resp := s.do(t, http.MethodGet, "/admin/dashboard", adminAccess, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: %d %v", rec.Code, resp)
	}
	rec, _ = s.do(t, http.MethodGet, "/admin/system/status", adminAccess, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("system status: %d", rec.Code)
	}
	rec, resp = s.do(t, http.MethodGet, "/api/v1/integrations", adminAccess, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("enterprise integrations: %d %v", rec.Code, resp)
	}

	rec, resp = s.do(t, http.MethodPost, "/admin/keys", adminAccess, `{"purpose":"admin_invite","ttl_minutes":30}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("issue key: %d %v", rec.Code, resp)
	}
	key := resp["key"].(string)

	rec, _ = s.do(t, http.MethodPost, "/auth/keys/redeem", "", `{"key":"`+key+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("redeem: %d", rec.Code)
	}
	rec, resp = s.do(t, http.MethodPost, "/auth/keys/redeem", "", `{"key":"`+key+`"}`)
	if rec.Code != http.StatusBadRequest || resp["code"] != "KEY_NOT_REDEEMABLE" {
		t.Fatalf("second redeem: %d %v", rec.Code, resp)
	}
}

func TestRouter_LoginFailures(t *testing.T) {
	s := newTestServer(t)

	rec, resp := s.do(t, http.MethodPost, "/auth/login", "", `{"email":"root@example.com","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized || resp["code"] != "INVALID_CREDENTIALS" {
		t.Fatalf("wrong password: %d %v", rec.Code, resp)
	}
	rec, resp = s.do(t, http.MethodPost, "/auth/login", "", `{"email":"ghost@example.com","password":"whatever"}`)
	if rec.Code != http.StatusUnauthorized || resp["code"] != "INVALID_CREDENTIALS" {
		t.Fatalf("unknown email: %d %v", rec.Code, resp)
	}
	rec, _ = s.do(t, http.MethodPost, "/auth/login", "", `{"email":"root@example.com"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing password: %d", rec.Code)
	}
	rec, resp = s.do(t, http.MethodGet, "/auth/me", "", "")
	if rec.Code != http.StatusUnauthorized || resp["code"] != "MISSING_TOKEN" {
		t.Fatalf("no token: %d %v", rec.Code, resp)
	}
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("liveness: %d", rec.Code)
	}
	rec, resp := s.do(t, http.MethodGet, "/health/ready", "", "")
	if rec.Code != http.StatusOK || resp["status"] != "ok" {
		t.Fatalf("readiness: %d %v", rec.Code, resp)
	}
	rec, _ = s.do(t, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rec.Code)
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	s := newTestServer(t)
	rec, resp := s.do(t, http.MethodGet, "/nope", "", "")
	if rec.Code != http.StatusNotFound || resp["error"] == "" {
		t.Fatalf("unknown route: %d %v", rec.Code, resp)
	}
}
