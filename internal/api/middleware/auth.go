package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-service/internal/api/metrics"
	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/service"
)

// ClaimsKey is the echo context key holding the verified *domain.Claims.
const ClaimsKey = "auth.claims"

// Authorizer runs the authorization pipeline for one request.
type Authorizer interface {
	Authorize(ctx context.Context, header string, req service.Requirement) (*domain.Claims, error)
}

// denial is the JSON body written when the gate rejects a request.
type denial struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// RequireAuth accepts any caller holding a valid, unrevoked access token.
func RequireAuth(gate Authorizer) echo.MiddlewareFunc {
	return guard(gate, service.Requirement{})
}

// RequireAdmin additionally requires an admin token.
func RequireAdmin(gate Authorizer) echo.MiddlewareFunc {
	return guard(gate, service.Requirement{Admin: true})
}

// RequireCapability additionally requires capability in the token snapshot.
func RequireCapability(gate Authorizer, capability string) echo.MiddlewareFunc {
	return guard(gate, service.Requirement{Capability: capability})
}

func guard(gate Authorizer, req service.Requirement) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			claims, err := gate.Authorize(c.Request().Context(), header, req)
			recordVerification(err)
			if err != nil {
				return deny(c, err, req)
			}
			c.Set(ClaimsKey, claims)
			return next(c)
		}
	}
}

// ClaimsFrom returns the claims stored by one of the Require middlewares.
func ClaimsFrom(c echo.Context) (*domain.Claims, bool) {
	claims, ok := c.Get(ClaimsKey).(*domain.Claims)
	return claims, ok && claims != nil
}

// recordVerification counts the outcome of checking the presented token.
// Requests without a token never reach verification.
func recordVerification(err error) {
	var result string
	switch {
	case err == nil, errors.Is(err, domain.ErrNotAdmin), errors.Is(err, domain.ErrMissingCapability):
		result = "valid"
	case errors.Is(err, domain.ErrMissingToken):
		return
	case errors.Is(err, domain.ErrTokenRevoked):
		result = "revoked"
	case errors.Is(err, domain.ErrTokenExpired):
		result = "expired"
	default:
		result = "invalid"
	}
	metrics.TokenVerificationsTotal.WithLabelValues(result).Inc()
}

// deny writes a fixed message per code. Parser and storage errors never reach
// the client.
func deny(c echo.Context, err error, req service.Requirement) error {
	status, code, msg := denialCode(err)
	if code == "MISSING_CAPABILITY" && req.Capability != "" {
		msg += ": " + req.Capability
	}
	metrics.AuthorizationDenialsTotal.WithLabelValues(code).Inc()
	return c.JSON(status, denial{Error: msg, Code: code})
}

func denialCode(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrMissingToken):
		return http.StatusUnauthorized, "MISSING_TOKEN", "missing bearer token"
	case errors.Is(err, domain.ErrTokenRevoked):
		return http.StatusUnauthorized, "TOKEN_REVOKED", "token has been revoked"
	case errors.Is(err, domain.ErrNotAdmin):
		return http.StatusForbidden, "NOT_ADMIN", "admin access required"
	case errors.Is(err, domain.ErrMissingCapability):
		return http.StatusForbidden, "MISSING_CAPABILITY", "missing capability"
	default:
		// expired, malformed, wrong signature, wrong token kind
		return http.StatusUnauthorized, "INVALID_TOKEN", "invalid or expired token"
	}
}
