package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// ResourceHandler serves the capability-gated resources. The handlers only
// describe what the caller's token grants; the gate does the checking.
type ResourceHandler struct{}

func NewResourceHandler() *ResourceHandler {
	return &ResourceHandler{}
}

type analyticsResponse struct {
	UserID       string      `json:"user_id"`
	AccountLevel domain.Tier `json:"account_level"`
	MaxSites     int         `json:"max_sites"`
	MaxStorageMB int         `json:"max_storage_mb"`
}

type integrationsResponse struct {
	UserID          string `json:"user_id"`
	APIAccess       bool   `json:"api_access"`
	PrioritySupport bool   `json:"priority_support"`
}

// Analytics requires the access_analytics capability.
//
// @Summary      Analytics overview
// @Tags         resources
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  analyticsResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /api/v1/analytics [get]
func (h *ResourceHandler) Analytics(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, analyticsResponse{
		UserID:       claims.Subject,
		AccountLevel: claims.AccountTier,
		MaxSites:     claims.AccountTier.MaxSites(),
		MaxStorageMB: claims.AccountTier.MaxStorageMB(),
	})
}

// Integrations requires the api_access capability.
//
// @Summary      API integrations
// @Tags         resources
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  integrationsResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /api/v1/integrations [get]
func (h *ResourceHandler) Integrations(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, integrationsResponse{
		UserID:          claims.Subject,
		APIAccess:       claims.HasCapability(domain.CapAPIAccess),
		PrioritySupport: claims.HasCapability(domain.CapPrioritySupport),
	})
}
