package domain

import "time"

// UserRole is the coarse role carried in access tokens.
type UserRole string

const (
	RoleUser  UserRole = "User"
	RoleAdmin UserRole = "Admin"
)

// Claims is the verified payload of an access token.
//
// Claims are a snapshot taken at issuance: tier, status and capability
// changes made afterwards are not visible until the token expires and a new
// one is issued. The staleness window is bounded by the access token TTL.
type Claims struct {
	Subject       string        `json:"sub"`
	ID            string        `json:"jti"`
	Email         string        `json:"email"`
	AccountTier   Tier          `json:"account_level"`
	AccountStatus AccountStatus `json:"account_status"`
	Capabilities  []string      `json:"capabilities"`
	Role          UserRole      `json:"role"`
	IsAdmin       bool          `json:"is_admin"`
	AdminRole     *AdminRole    `json:"admin_role"`
	IssuedAt      time.Time     `json:"iat"`
	ExpiresAt     time.Time     `json:"exp"`
}

// HasCapability checks the capability snapshot of the token.
func (c *Claims) HasCapability(name string) bool {
	for _, have := range c.Capabilities {
		if have == name {
			return true
		}
	}
	return false
}

// RefreshClaims is the minimal payload of a refresh token. It is a renewal
// credential only and carries no authorization data.
type RefreshClaims struct {
	Subject   string    `json:"sub"`
	ID        string    `json:"jti"`
	IsAdmin   bool      `json:"is_admin"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}
