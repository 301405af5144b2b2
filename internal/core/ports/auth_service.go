package ports

import (
	"context"
	"time"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// RegisterInput carries the data needed to create a user.
type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
}

// LoginInput carries credentials plus an optional device descriptor that is
// stored on the refresh token record.
type LoginInput struct {
	Email      string
	Password   string
	DeviceInfo string
}

// LoginResult is returned by login and refresh.
type LoginResult struct {
	Tokens  *domain.TokenPair
	User    *domain.User
	Account domain.AccountInfo
	Admin   *domain.Admin
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	AdminLogin(ctx context.Context, in LoginInput) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken, deviceInfo string) (*LoginResult, error)
	// Logout revokes the caller's access token and the given refresh token,
	// or every refresh token of the caller when refreshToken is empty.
	Logout(ctx context.Context, claims *domain.Claims, refreshToken string) error
	LogoutAll(ctx context.Context, claims *domain.Claims) error
	IssueValidationKey(ctx context.Context, userID string, purpose domain.KeyPurpose, ttl time.Duration) (*domain.ValidationKey, error)
	RedeemValidationKey(ctx context.Context, value string) (*domain.ValidationKey, error)
}
