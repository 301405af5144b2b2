package ports

import (
	"context"
	"time"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// Blacklist tracks revoked access-token ids. An entry only needs to live
// until expiresAt, the natural expiry of the revoked token.
type Blacklist interface {
	BlacklistJTI(ctx context.Context, jti string, expiresAt time.Time) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// KeyStore holds one-time validation keys.
type KeyStore interface {
	StoreKey(key *domain.ValidationKey)
	// RedeemKey marks the matching unused, unexpired key as used and returns
	// it. Concurrent redemptions of the same value succeed at most once.
	RedeemKey(value string) (*domain.ValidationKey, bool)
}

// TokenValidation is the result of checking a token hash against the
// in-process record cache.
type TokenValidation struct {
	UserID    string
	Type      domain.TokenType
	Valid     bool
	ExpiresAt time.Time
}

// RecordCache is the in-process mirror of issued token records. It is
// independent of the blacklist: revoking a record never blacklists a jti.
type RecordCache interface {
	StoreToken(record *domain.TokenRecord)
	ValidateToken(hash string) (TokenValidation, bool)
	RevokeToken(hash string) bool
	RevokeAllForUser(userID string) int
}
