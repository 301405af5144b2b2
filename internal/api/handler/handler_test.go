package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/99minutos/auth-service/internal/api/middleware"
	"github.com/99minutos/auth-service/internal/core/domain"
)

func TestResolveError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrMissingToken, http.StatusUnauthorized, "MISSING_TOKEN"},
		{domain.ErrTokenExpired, http.StatusUnauthorized, "INVALID_TOKEN"},
		{domain.ErrDecodingFailed, http.StatusUnauthorized, "INVALID_TOKEN"},
		{domain.ErrTokenRevoked, http.StatusUnauthorized, "TOKEN_REVOKED"},
		{domain.ErrNotAdmin, http.StatusForbidden, "NOT_ADMIN"},
		{fmt.Errorf("%w: api_access", domain.ErrMissingCapability), http.StatusForbidden, "MISSING_CAPABILITY"},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{domain.ErrAccountInactive, http.StatusForbidden, "ACCOUNT_INACTIVE"},
		{domain.ErrEmailExists, http.StatusConflict, "EMAIL_EXISTS"},
		{domain.ErrWeakPassword, http.StatusBadRequest, "WEAK_PASSWORD"},
		{domain.ErrKeyNotRedeemable, http.StatusBadRequest, "KEY_NOT_REDEEMABLE"},
		{fmt.Errorf("login: %w", domain.ErrConnection), http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE"},
	}
	for _, tt := range tests {
		status, body, ok := ResolveError(tt.err)
		if !ok || status != tt.status || body.Code != tt.code {
			t.Errorf("ResolveError(%v) = %d %q %v, want %d %q", tt.err, status, body.Code, ok, tt.status, tt.code)
		}
	}

	if status, _, ok := ResolveError(errors.New("boom")); ok || status != http.StatusInternalServerError {
		t.Fatalf("unknown errors must resolve to an unhandled 500")
	}
}

func TestKeyHandler_Issue(t *testing.T) {
	stub := &stubAuthService{
		issueKeyFn: func(ctx context.Context, userID string, purpose domain.KeyPurpose, ttl time.Duration) (*domain.ValidationKey, error) {
			if userID != "user-1" || purpose != domain.KeyAdminInvite || ttl != time.Hour {
				t.Fatalf("unexpected args: %s %s %s", userID, purpose, ttl)
			}
			return &domain.ValidationKey{ID: "k1", UserID: userID, Purpose: purpose, Value: "secret"}, nil
		},
	}
	handler := NewKeyHandler(stub)

	c, rec := newTestContext(http.MethodPost, "/admin/keys", `{"user_id":"user-1","purpose":"admin_invite","ttl_minutes":60}`)
	if err := handler.Issue(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var resp keyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Key != "secret" {
		t.Fatalf("issued key value must be returned, got %+v", resp)
	}

	c, _ = newTestContext(http.MethodPost, "/admin/keys", `{"purpose":"magic_link"}`)
	expectHTTPError(t, handler.Issue(c), http.StatusBadRequest)
}

func TestKeyHandler_Redeem(t *testing.T) {
	redeemed := false
	stub := &stubAuthService{
		redeemKeyFn: func(ctx context.Context, value string) (*domain.ValidationKey, error) {
			if redeemed || value != "secret" {
				return nil, domain.ErrKeyNotRedeemable
			}
			redeemed = true
			return &domain.ValidationKey{ID: "k1", Purpose: domain.KeyPasswordReset, Value: value, Used: true}, nil
		},
	}
	handler := NewKeyHandler(stub)

	c, rec := newTestContext(http.MethodPost, "/auth/keys/redeem", `{"key":"secret"}`)
	if err := handler.Redeem(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp keyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Key != "" || resp.Purpose != domain.KeyPasswordReset {
		t.Fatalf("redeem must not echo the key value: %+v", resp)
	}

	c, _ = newTestContext(http.MethodPost, "/auth/keys/redeem", `{"key":"secret"}`)
	if err := handler.Redeem(c); !errors.Is(err, domain.ErrKeyNotRedeemable) {
		t.Fatalf("expected ErrKeyNotRedeemable, got %v", err)
	}
}

func TestHealthHandler(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	c, rec := newTestContext(http.MethodGet, "/health", "")
	if err := NewHealthHandler(nil).Liveness(c); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("liveness: %v %d", err, rec.Code)
	}

	c, rec = newTestContext(http.MethodGet, "/health/ready", "")
	if err := NewHealthHandler(map[string]Check{"store": ok}).Readiness(c); err != nil {
		t.Fatalf("readiness: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	c, rec = newTestContext(http.MethodGet, "/health/ready", "")
	_ = NewHealthHandler(map[string]Check{"store": ok, "redis": down}).Readiness(c)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var resp readinessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Dependencies["redis"].Status != "unhealthy" || resp.Dependencies["store"].Status != "ok" {
		t.Fatalf("unexpected dependencies: %+v", resp.Dependencies)
	}
}

func TestAdminHandler(t *testing.T) {
	stats := SystemStats{BlacklistedTokens: 2, ValidationKeys: 1, TokenRecords: 5}
	handler := NewAdminHandler(func() SystemStats { return stats })

	c, rec := newTestContext(http.MethodGet, "/admin/system/status", "")
	if err := handler.SystemStatus(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var status systemStatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if status.Stats != stats {
		t.Fatalf("unexpected stats: %+v", status.Stats)
	}

	role := domain.AdminRoleSuperAdmin
	c, rec = newTestContext(http.MethodGet, "/admin/dashboard", "")
	c.Set(middleware.ClaimsKey, &domain.Claims{Subject: "root", IsAdmin: true, AdminRole: &role})
	if err := handler.Dashboard(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var dash dashboardResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &dash); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if dash.Admin.UserID != "root" || !dash.Admin.IsAdmin {
		t.Fatalf("unexpected dashboard: %+v", dash)
	}
}

func TestResourceHandler(t *testing.T) {
	handler := NewResourceHandler()
	claims := &domain.Claims{
		Subject:      "user-1",
		AccountTier:  domain.TierEnterprise,
		Capabilities: domain.DefaultCapabilities(domain.TierEnterprise),
	}

	c, rec := newTestContext(http.MethodGet, "/api/v1/analytics", "")
	c.Set(middleware.ClaimsKey, claims)
	if err := handler.Analytics(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var analytics analyticsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &analytics); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if analytics.MaxStorageMB != 10000 || analytics.MaxSites != domain.UnlimitedSites {
		t.Fatalf("unexpected analytics: %+v", analytics)
	}

	c, rec = newTestContext(http.MethodGet, "/api/v1/integrations", "")
	c.Set(middleware.ClaimsKey, claims)
	if err := handler.Integrations(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var integrations integrationsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &integrations); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !integrations.APIAccess || !integrations.PrioritySupport {
		t.Fatalf("unexpected integrations: %+v", integrations)
	}
}
