package handler

import (
	"time"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// ErrorResponse is the error envelope returned on all 4xx/5xx responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// --- Request types ---

type registerRequest struct {
	Email     string `json:"email"      validate:"required"`
	Username  string `json:"username"   validate:"omitempty,max=64"`
	Password  string `json:"password"   validate:"required"`
	FirstName string `json:"first_name" validate:"max=128"`
	LastName  string `json:"last_name"  validate:"max=128"`
}

type loginRequest struct {
	Email      string `json:"email"       validate:"required"`
	Password   string `json:"password"    validate:"required"`
	DeviceInfo string `json:"device_info" validate:"max=256"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	DeviceInfo   string `json:"device_info"   validate:"max=256"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type issueKeyRequest struct {
	UserID     string `json:"user_id"`
	Purpose    string `json:"purpose"     validate:"required,oneof=email_verification password_reset two_factor_auth admin_invite account_activation"`
	TTLMinutes int    `json:"ttl_minutes" validate:"gte=0,lte=10080"`
}

type redeemKeyRequest struct {
	Key string `json:"key" validate:"required"`
}

// --- Response types ---

type userResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Username  string     `json:"username,omitempty"`
	FirstName string     `json:"first_name,omitempty"`
	LastName  string     `json:"last_name,omitempty"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

type accountResponse struct {
	Level        domain.Tier          `json:"level"`
	Status       domain.AccountStatus `json:"status"`
	Capabilities []string             `json:"capabilities"`
	MaxSites     int                  `json:"max_sites"`
	MaxStorageMB int                  `json:"max_storage_mb"`
}

type adminResponse struct {
	Role        domain.AdminRole `json:"role"`
	Permissions []string         `json:"permissions"`
}

type loginResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	TokenType    string          `json:"token_type"`
	ExpiresIn    int64           `json:"expires_in"`
	User         userResponse    `json:"user"`
	Account      accountResponse `json:"account"`
	Admin        *adminResponse  `json:"admin,omitempty"`
}

type registerResponse struct {
	User    userResponse `json:"user"`
	Message string       `json:"message"`
}

type meResponse struct {
	UserID        string               `json:"user_id"`
	Email         string               `json:"email"`
	AccountLevel  domain.Tier          `json:"account_level"`
	AccountStatus domain.AccountStatus `json:"account_status"`
	Capabilities  []string             `json:"capabilities"`
	Role          domain.UserRole      `json:"role"`
	IsAdmin       bool                 `json:"is_admin"`
	AdminRole     *domain.AdminRole    `json:"admin_role,omitempty"`
	ExpiresAt     time.Time            `json:"expires_at"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type keyResponse struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id,omitempty"`
	Purpose   domain.KeyPurpose `json:"purpose"`
	Key       string            `json:"key,omitempty"`
	ExpiresAt time.Time         `json:"expires_at"`
}
