package service

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/99minutos/auth-service/internal/core/domain"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour

	bearerPrefix = "Bearer "
)

// accessClaims is the wire form of an access token payload.
type accessClaims struct {
	Email         string               `json:"email"`
	AccountTier   domain.Tier          `json:"account_level"`
	AccountStatus domain.AccountStatus `json:"account_status"`
	Capabilities  []string             `json:"capabilities"`
	Role          domain.UserRole      `json:"role"`
	IsAdmin       bool                 `json:"is_admin"`
	AdminRole     *domain.AdminRole    `json:"admin_role"`
	jwt.RegisteredClaims
}

// refreshClaims is the wire form of a refresh token payload. Role is only
// decoded to tell an access token apart; refresh tokens never set it.
type refreshClaims struct {
	IsAdmin bool            `json:"is_admin"`
	Role    domain.UserRole `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 token pairs.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	parser     *jwt.Parser
	now        func() time.Time
}

// NewTokenService builds a token service. Non-positive TTLs fall back to the
// 15 minute / 7 day defaults.
func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	s := &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	return s
}

func (s *TokenService) AccessTTL() time.Duration  { return s.accessTTL }
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// Issue mints an access/refresh pair for an active account. The access token
// carries a snapshot of the account's effective capabilities.
func (s *TokenService) Issue(user *domain.User, account *domain.Account, admin *domain.Admin) (*domain.TokenPair, error) {
	if user == nil {
		return nil, domain.ErrTokenInvalid
	}
	if !account.IsActive() {
		return nil, domain.ErrAccountInactive
	}

	now := s.now()
	accessExp := now.Add(s.accessTTL)
	accessID := uuid.NewString()

	access := accessClaims{
		Email:         user.Email,
		AccountTier:   account.Tier,
		AccountStatus: account.Status,
		Capabilities:  domain.EffectiveCapabilities(account),
		Role:          domain.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        accessID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExp),
		},
	}
	if admin != nil {
		role := admin.Role
		access.Role = domain.RoleAdmin
		access.IsAdmin = true
		access.AdminRole = &role
	}

	refresh := refreshClaims{
		IsAdmin: admin != nil,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
		},
	}

	accessToken, err := s.sign(access)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.sign(refresh)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessID:         accessID,
		AccessExpiresAt:  access.ExpiresAt.Time,
		AccessExpiresIn:  s.accessTTL,
		RefreshExpiresIn: s.refreshTTL,
	}, nil
}

func (s *TokenService) sign(claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrEncodingFailed, err)
	}
	return signed, nil
}

// VerifyAccess checks signature first, then expiry, and returns the claims.
func (s *TokenService) VerifyAccess(token string) (*domain.Claims, error) {
	var claims accessClaims
	if err := s.parse(token, &claims); err != nil {
		return nil, err
	}
	if claims.Subject == "" || claims.ID == "" || claims.Role == "" || claims.IssuedAt == nil {
		return nil, domain.ErrTokenInvalid
	}
	return &domain.Claims{
		Subject:       claims.Subject,
		ID:            claims.ID,
		Email:         claims.Email,
		AccountTier:   claims.AccountTier,
		AccountStatus: claims.AccountStatus,
		Capabilities:  claims.Capabilities,
		Role:          claims.Role,
		IsAdmin:       claims.IsAdmin,
		AdminRole:     claims.AdminRole,
		IssuedAt:      claims.IssuedAt.Time,
		ExpiresAt:     claims.ExpiresAt.Time,
	}, nil
}

// VerifyRefresh verifies a refresh token. Access tokens are rejected.
func (s *TokenService) VerifyRefresh(token string) (*domain.RefreshClaims, error) {
	var claims refreshClaims
	if err := s.parse(token, &claims); err != nil {
		return nil, err
	}
	if claims.Subject == "" || claims.ID == "" || claims.Role != "" || claims.IssuedAt == nil {
		return nil, domain.ErrTokenInvalid
	}
	return &domain.RefreshClaims{
		Subject:   claims.Subject,
		ID:        claims.ID,
		IsAdmin:   claims.IsAdmin,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *TokenService) parse(token string, claims jwt.Claims) error {
	_, err := s.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenInvalidClaims):
		return fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	default:
		return fmt.Errorf("%w: %v", domain.ErrDecodingFailed, err)
	}
}

// BuildRecord hashes rawToken into a persistable record. The raw token is not
// kept.
func (s *TokenService) BuildRecord(userID, rawToken string, isAdmin, isRefresh bool, deviceInfo string) *domain.TokenRecord {
	ttl := s.accessTTL
	if isRefresh {
		ttl = s.refreshTTL
	}
	now := s.now().UTC()
	return &domain.TokenRecord{
		ID:         uuid.NewString(),
		UserID:     userID,
		TokenHash:  HashToken(rawToken),
		Type:       domain.TokenTypeFor(isAdmin, isRefresh),
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
		DeviceInfo: deviceInfo,
	}
}

// HashToken returns the hex SHA-256 of a raw token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// ExtractBearer returns the token following an exact "Bearer " prefix.
// A header without the prefix reports false.
func ExtractBearer(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	return header[len(bearerPrefix):], true
}
