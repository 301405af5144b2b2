package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-service/internal/api/metrics"
	"github.com/99minutos/auth-service/internal/core/domain"
)

// RequireAdminRole restricts a route to admins holding one of the given
// roles. It must run after RequireAdmin.
func RequireAdminRole(roles ...domain.AdminRole) echo.MiddlewareFunc {
	allowed := make(map[domain.AdminRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFrom(c)
			if !ok || claims.AdminRole == nil {
				metrics.AuthorizationDenialsTotal.WithLabelValues("NOT_ADMIN").Inc()
				return c.JSON(http.StatusForbidden, denial{Error: "admin access required", Code: "NOT_ADMIN"})
			}
			if _, ok := allowed[*claims.AdminRole]; !ok {
				metrics.AuthorizationDenialsTotal.WithLabelValues("ADMIN_ROLE").Inc()
				return c.JSON(http.StatusForbidden, denial{Error: "admin role not permitted", Code: "NOT_ADMIN"})
			}
			return next(c)
		}
	}
}
