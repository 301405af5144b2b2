package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/auth-service/docs"
	"github.com/99minutos/auth-service/internal/api/handler"
	"github.com/99minutos/auth-service/internal/api/middleware"
	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Auth   ports.AuthService
	Gate   middleware.Authorizer
	Stats  func() handler.SystemStats
	Checks map[string]handler.Check
	Log    zerolog.Logger
	// Registry receives the HTTP metrics and backs /metrics. Nil uses the
	// process-wide default registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(promConfig(d.Registry)))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Auth)
	keyHandler := handler.NewKeyHandler(d.Auth)
	adminHandler := handler.NewAdminHandler(d.Stats)
	resourceHandler := handler.NewResourceHandler()
	healthHandler := handler.NewHealthHandler(d.Checks)

	requireAuth := middleware.RequireAuth(d.Gate)
	requireAdmin := middleware.RequireAdmin(d.Gate)

	// --- Auth routes ---
	auth := e.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/admin/login", authHandler.AdminLogin)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/keys/redeem", keyHandler.Redeem)
	auth.POST("/logout", authHandler.Logout, requireAuth)
	auth.POST("/logout-all", authHandler.LogoutAll, requireAuth)
	auth.GET("/me", authHandler.Me, requireAuth)

	// --- Admin routes ---
	admin := e.Group("/admin", requireAdmin)
	admin.GET("/system/status", adminHandler.SystemStatus)
	admin.GET("/dashboard", adminHandler.Dashboard,
		middleware.RequireAdminRole(domain.AdminRoleSuperAdmin, domain.AdminRoleAdmin))
	admin.POST("/keys", keyHandler.Issue,
		middleware.RequireAdminRole(domain.AdminRoleSuperAdmin, domain.AdminRoleAdmin))

	// --- Capability-gated resources ---
	v1 := e.Group("/api/v1")
	v1.GET("/analytics", resourceHandler.Analytics, middleware.RequireCapability(d.Gate, domain.CapAccessAnalytics))
	v1.GET("/integrations", resourceHandler.Integrations, middleware.RequireCapability(d.Gate, domain.CapAPIAccess))

	// --- Health probes and tooling (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", promHandler(d.Registry))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger feeds echo's request log into zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil {
				evt = log.Warn().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

func promConfig(reg *prometheus.Registry) echoprometheus.MiddlewareConfig {
	cfg := echoprometheus.MiddlewareConfig{Subsystem: "auth"}
	if reg != nil {
		cfg.Registerer = reg
	}
	return cfg
}

func promHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}
