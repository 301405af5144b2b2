package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-service/internal/api/metrics"
	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

// KeyHandler exposes one-time validation keys.
type KeyHandler struct {
	authService ports.AuthService
}

func NewKeyHandler(authService ports.AuthService) *KeyHandler {
	return &KeyHandler{authService: authService}
}

// Issue creates a validation key. The key value is returned once.
//
// @Summary      Issue a validation key
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      issueKeyRequest  true  "Key purpose and lifetime"
// @Success      201   {object}  keyResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Router       /admin/keys [post]
func (h *KeyHandler) Issue(c echo.Context) error {
	var req issueKeyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ttl := time.Duration(req.TTLMinutes) * time.Minute
	key, err := h.authService.IssueValidationKey(c.Request().Context(), req.UserID, domain.KeyPurpose(req.Purpose), ttl)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toKeyResponse(key, true))
}

// Redeem consumes a validation key. A key redeems at most once.
//
// @Summary      Redeem a validation key
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      redeemKeyRequest  true  "Key value"
// @Success      200   {object}  keyResponse
// @Failure      400   {object}  ErrorResponse
// @Router       /auth/keys/redeem [post]
func (h *KeyHandler) Redeem(c echo.Context) error {
	var req redeemKeyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	key, err := h.authService.RedeemValidationKey(c.Request().Context(), req.Key)
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotRedeemable) {
			metrics.KeyRedemptionsTotal.WithLabelValues("rejected").Inc()
		}
		return err
	}
	metrics.KeyRedemptionsTotal.WithLabelValues("redeemed").Inc()
	return c.JSON(http.StatusOK, toKeyResponse(key, false))
}
