package domain

import "time"

// TokenType tags a persisted token record.
type TokenType string

const (
	TokenAccess       TokenType = "access"
	TokenRefresh      TokenType = "refresh"
	TokenAdminAccess  TokenType = "admin_access"
	TokenAdminRefresh TokenType = "admin_refresh"
)

// TokenTypeFor selects the record tag for an (isAdmin, isRefresh) pair.
func TokenTypeFor(isAdmin, isRefresh bool) TokenType {
	switch {
	case isAdmin && isRefresh:
		return TokenAdminRefresh
	case isAdmin:
		return TokenAdminAccess
	case isRefresh:
		return TokenRefresh
	default:
		return TokenAccess
	}
}

// IsAdmin reports whether the tag belongs to an admin token.
func (t TokenType) IsAdmin() bool {
	return t == TokenAdminAccess || t == TokenAdminRefresh
}

// TokenPair is the result of a successful issuance.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessID         string
	AccessExpiresAt  time.Time
	AccessExpiresIn  time.Duration
	RefreshExpiresIn time.Duration
}

// TokenRecord is the persisted form of an issued token. Only a one-way hash
// of the raw token is kept, so a record can identify and revoke a token but
// never reproduce it.
type TokenRecord struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	TokenHash  string     `json:"token_hash"`
	Type       TokenType  `json:"token_type"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	DeviceInfo string     `json:"device_info,omitempty"`
}

// Active reports whether the record is neither revoked nor expired at now.
func (r *TokenRecord) Active(now time.Time) bool {
	return r.RevokedAt == nil && now.Before(r.ExpiresAt)
}
