package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-service/internal/api/metrics"
	"github.com/99minutos/auth-service/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new user with a default Free account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), toRegisterInput(req))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, registerResponse{
		User:    toUserResponse(user),
		Message: "registration successful",
	})
}

// Login authenticates a user and returns a user token pair.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	return h.login(c, false)
}

// AdminLogin authenticates a user holding an admin record and returns an
// admin token pair.
//
// @Summary      Admin login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Router       /auth/admin/login [post]
func (h *AuthHandler) AdminLogin(c echo.Context) error {
	return h.login(c, true)
}

func (h *AuthHandler) login(c echo.Context, asAdmin bool) error {
	kind := "user"
	if asAdmin {
		kind = "admin"
	}

	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.LoginsTotal.WithLabelValues(kind, "BAD_REQUEST").Inc()
		return err
	}

	login := h.authService.Login
	if asAdmin {
		login = h.authService.AdminLogin
	}
	result, err := login(c.Request().Context(), toLoginInput(req))
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(kind, errorCode(err)).Inc()
		return err
	}

	metrics.LoginsTotal.WithLabelValues(kind, "success").Inc()
	metrics.TokensIssuedTotal.WithLabelValues(kind).Inc()
	return c.JSON(http.StatusOK, toLoginResponse(result))
}

// Refresh rotates a refresh token into a new token pair.
//
// @Summary      Refresh tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  true  "Refresh token"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.authService.Refresh(c.Request().Context(), req.RefreshToken, req.DeviceInfo)
	if err != nil {
		return err
	}

	kind := "user"
	if result.Admin != nil {
		kind = "admin"
	}
	metrics.TokensIssuedTotal.WithLabelValues(kind).Inc()
	return c.JSON(http.StatusOK, toLoginResponse(result))
}

// Logout revokes the caller's access token and the supplied refresh token.
// Without a refresh token every session of the caller is revoked.
//
// @Summary      Logout
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      logoutRequest  false  "Refresh token to revoke"
// @Success      200   {object}  messageResponse
// @Failure      401   {object}  ErrorResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	// the body is optional
	var req logoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	if err := h.authService.Logout(c.Request().Context(), claims, req.RefreshToken); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

// LogoutAll revokes the caller's access token and every refresh token.
//
// @Summary      Logout from all devices
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/logout-all [post]
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	if err := h.authService.LogoutAll(c.Request().Context(), claims); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "logged out from all devices"})
}

// Me returns the caller's token claims.
//
// @Summary      Current caller
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  meResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toMeResponse(claims))
}
