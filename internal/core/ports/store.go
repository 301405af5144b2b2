package ports

import (
	"context"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// UserRepository persists users. Lookups return domain.ErrNotFound when no
// user matches; Create returns domain.ErrDuplicate on email or username clash.
type UserRepository interface {
	UserByEmail(ctx context.Context, email string) (*domain.User, error)
	UserByID(ctx context.Context, id string) (*domain.User, error)
	UserByUsername(ctx context.Context, username string) (*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	UpdateLastLogin(ctx context.Context, userID string) error
}

// AccountRepository persists the 1:1 subscription account of a user.
type AccountRepository interface {
	AccountByUserID(ctx context.Context, userID string) (*domain.Account, error)
	// CreateAccount creates the default account (Free, Pending) for a user.
	CreateAccount(ctx context.Context, userID string) (*domain.Account, error)
}

// AdminRepository reads the optional admin record of a user.
type AdminRepository interface {
	AdminByUserID(ctx context.Context, userID string) (*domain.Admin, error)
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// TokenRepository persists hashed token records. Records are only mutated by
// setting their revocation time.
//
// RevokeToken is a conditional update: it returns domain.ErrTokenRevoked when
// the record was already revoked and domain.ErrNotFound when it does not
// exist, so concurrent callers can tell which of them revoked it.
type TokenRepository interface {
	StoreToken(ctx context.Context, record *domain.TokenRecord) error
	TokenByHash(ctx context.Context, hash string) (*domain.TokenRecord, error)
	RevokeToken(ctx context.Context, hash string) error
	RevokeAllUserTokens(ctx context.Context, userID string) error
}

// Store is the persistence collaborator of the auth flows.
type Store interface {
	UserRepository
	AccountRepository
	AdminRepository
	TokenRepository

	HealthCheck(ctx context.Context) error
}

// TokenPurger is implemented by stores that can physically delete expired
// token records. The sweeper calls it on its schedule.
type TokenPurger interface {
	DeleteExpiredTokens(ctx context.Context) (int, error)
}
