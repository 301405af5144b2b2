package ports

import "github.com/99minutos/auth-service/internal/core/domain"

// TokenService issues and verifies signed token pairs.
type TokenService interface {
	// Issue mints an access/refresh pair. A nil admin issues user tokens.
	Issue(user *domain.User, account *domain.Account, admin *domain.Admin) (*domain.TokenPair, error)
	VerifyAccess(token string) (*domain.Claims, error)
	VerifyRefresh(token string) (*domain.RefreshClaims, error)
	// BuildRecord hashes the raw token into a record suitable for persistence.
	BuildRecord(userID, rawToken string, isAdmin, isRefresh bool, deviceInfo string) *domain.TokenRecord
}

// PasswordHasher is the opaque password primitive used by the auth flows.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}
