package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/api/metrics"
	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/service"
	"github.com/99minutos/auth-service/internal/infrastructure/validation"
)

type gateFixture struct {
	tokens    *service.TokenService
	blacklist *validation.Store
	gate      *service.Gate
}

func newGateFixture() *gateFixture {
	tokens := service.NewTokenService("middleware-secret", 15*time.Minute, 24*time.Hour)
	blacklist := validation.NewStore()
	return &gateFixture{
		tokens:    tokens,
		blacklist: blacklist,
		gate:      service.NewGate(tokens, blacklist, zerolog.Nop()),
	}
}

func (f *gateFixture) issue(t *testing.T, tier domain.Tier, admin *domain.Admin) *domain.TokenPair {
	t.Helper()
	user := &domain.User{ID: "user-1", Email: "alice@example.com", IsActive: true}
	account := &domain.Account{UserID: "user-1", Tier: tier, Status: domain.StatusActive}
	pair, err := f.tokens.Issue(user, account, admin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return pair
}

func serve(t *testing.T, mw echo.MiddlewareFunc, header string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	h := mw(func(c echo.Context) error {
		called = true
		if _, ok := ClaimsFrom(c); !ok {
			t.Fatalf("claims not set on context")
		}
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, called
}

func decodeDenial(t *testing.T, rec *httptest.ResponseRecorder) denial {
	t.Helper()
	var body denial
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return body
}

func TestRequireAuth_ValidToken(t *testing.T) {
	f := newGateFixture()
	pair := f.issue(t, domain.TierFree, nil)

	rec, called := serve(t, RequireAuth(f.gate), "Bearer "+pair.AccessToken)
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireAuth_Denials(t *testing.T) {
	f := newGateFixture()
	pair := f.issue(t, domain.TierFree, nil)

	revoked := f.issue(t, domain.TierFree, nil)
	if err := f.blacklist.BlacklistJTI(context.Background(), revoked.AccessID, revoked.AccessExpiresAt); err != nil {
		t.Fatalf("blacklist: %v", err)
	}

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", "MISSING_TOKEN"},
		{"wrong scheme", "Token " + pair.AccessToken, "MISSING_TOKEN"},
		{"garbage", "Bearer not-a-token", "INVALID_TOKEN"},
		{"refresh token", "Bearer " + pair.RefreshToken, "INVALID_TOKEN"},
		{"revoked", "Bearer " + revoked.AccessToken, "TOKEN_REVOKED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, called := serve(t, RequireAuth(f.gate), tt.header)
			if called {
				t.Fatalf("should not reach next")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			if got := decodeDenial(t, rec).Code; got != tt.code {
				t.Fatalf("expected code %s, got %s", tt.code, got)
			}
		})
	}
}

func TestRequireAuth_DenialMessagesAreFixed(t *testing.T) {
	f := newGateFixture()
	pair := f.issue(t, domain.TierFree, nil)

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"missing header", "", "missing bearer token"},
		{"garbage", "Bearer not-a-token", "invalid or expired token"},
		{"refresh token", "Bearer " + pair.RefreshToken, "invalid or expired token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := serve(t, RequireAuth(f.gate), tt.header)
			body := decodeDenial(t, rec)
			if body.Error != tt.want {
				t.Fatalf("expected message %q, got %q", tt.want, body.Error)
			}
			if strings.Contains(body.Error, "malformed") || strings.Contains(body.Error, "decoding") {
				t.Fatalf("parser detail leaked to client: %q", body.Error)
			}
		})
	}

	rec, _ := serve(t, RequireCapability(f.gate, domain.CapAPIAccess), "Bearer "+pair.AccessToken)
	if got := decodeDenial(t, rec).Error; got != "missing capability: "+domain.CapAPIAccess {
		t.Fatalf("unexpected capability message %q", got)
	}
}

func TestRequireAuth_CountsVerifications(t *testing.T) {
	f := newGateFixture()
	pair := f.issue(t, domain.TierFree, nil)
	revoked := f.issue(t, domain.TierFree, nil)
	if err := f.blacklist.BlacklistJTI(context.Background(), revoked.AccessID, revoked.AccessExpiresAt); err != nil {
		t.Fatalf("blacklist: %v", err)
	}

	tests := []struct {
		header string
		result string
	}{
		{"Bearer " + pair.AccessToken, "valid"},
		{"Bearer not-a-token", "invalid"},
		{"Bearer " + revoked.AccessToken, "revoked"},
	}
	for _, tt := range tests {
		counter := metrics.TokenVerificationsTotal.WithLabelValues(tt.result)
		before := testutil.ToFloat64(counter)
		serve(t, RequireAuth(f.gate), tt.header)
		if got := testutil.ToFloat64(counter) - before; got != 1 {
			t.Fatalf("%s: counter moved by %v, want 1", tt.result, got)
		}
	}

	valid := testutil.ToFloat64(metrics.TokenVerificationsTotal.WithLabelValues("valid"))
	serve(t, RequireAuth(f.gate), "")
	if testutil.ToFloat64(metrics.TokenVerificationsTotal.WithLabelValues("valid")) != valid {
		t.Fatalf("a request without a token must not count as a verification")
	}
}

func TestRequireAdmin(t *testing.T) {
	f := newGateFixture()
	user := f.issue(t, domain.TierEnterprise, nil)
	admin := f.issue(t, domain.TierFree, &domain.Admin{UserID: "user-1", Role: domain.AdminRoleModerator})

	rec, called := serve(t, RequireAdmin(f.gate), "Bearer "+user.AccessToken)
	if called || rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a user token, got %d", rec.Code)
	}
	if got := decodeDenial(t, rec).Code; got != "NOT_ADMIN" {
		t.Fatalf("expected NOT_ADMIN, got %s", got)
	}

	rec, called = serve(t, RequireAdmin(f.gate), "Bearer "+admin.AccessToken)
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected admin token to pass, got %d", rec.Code)
	}
}

func TestRequireCapability(t *testing.T) {
	f := newGateFixture()
	free := f.issue(t, domain.TierFree, nil)
	enterprise := f.issue(t, domain.TierEnterprise, nil)

	rec, called := serve(t, RequireCapability(f.gate, domain.CapAPIAccess), "Bearer "+free.AccessToken)
	if called || rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for free tier, got %d", rec.Code)
	}
	if got := decodeDenial(t, rec).Code; got != "MISSING_CAPABILITY" {
		t.Fatalf("expected MISSING_CAPABILITY, got %s", got)
	}

	rec, called = serve(t, RequireCapability(f.gate, domain.CapAPIAccess), "Bearer "+enterprise.AccessToken)
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected enterprise token to pass, got %d", rec.Code)
	}
}

func TestClaimsFrom_Missing(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if _, ok := ClaimsFrom(c); ok {
		t.Fatalf("expected no claims on a fresh context")
	}
}
