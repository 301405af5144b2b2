package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

const (
	minPasswordLength    = 8
	defaultValidationTTL = 24 * time.Hour
)

// AuthDeps groups the collaborators of the auth flows.
type AuthDeps struct {
	Store     ports.Store
	Tokens    ports.TokenService
	Hasher    ports.PasswordHasher
	Blacklist ports.Blacklist
	Records   ports.RecordCache
	Keys      ports.KeyStore
	Events    ports.AuthEventSink
	Log       zerolog.Logger
}

type authService struct {
	store     ports.Store
	tokens    ports.TokenService
	hasher    ports.PasswordHasher
	blacklist ports.Blacklist
	records   ports.RecordCache
	keys      ports.KeyStore
	events    ports.AuthEventSink
	log       zerolog.Logger
	now       func() time.Time
}

// NewAuthService returns an AuthService implementation.
func NewAuthService(deps AuthDeps) ports.AuthService {
	return &authService{
		store:     deps.Store,
		tokens:    deps.Tokens,
		hasher:    deps.Hasher,
		blacklist: deps.Blacklist,
		records:   deps.Records,
		keys:      deps.Keys,
		events:    deps.Events,
		log:       deps.Log,
		now:       time.Now,
	}
}

func (s *authService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	if !strings.Contains(in.Email, "@") || !strings.Contains(in.Email, ".") {
		return nil, domain.ErrInvalidEmail
	}
	if len(in.Password) < minPasswordLength {
		return nil, domain.ErrWeakPassword
	}

	if _, err := s.store.UserByEmail(ctx, in.Email); err == nil {
		return nil, domain.ErrEmailExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("register: %w", err)
	}
	if in.Username != "" {
		if _, err := s.store.UserByUsername(ctx, in.Username); err == nil {
			return nil, domain.ErrUsernameExists
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("register: %w", err)
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := s.now().UTC()
	created, err := s.store.CreateUser(ctx, &domain.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.ErrEmailExists
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	if _, err := s.store.CreateAccount(ctx, created.ID); err != nil {
		s.log.Warn().Err(err).Str("user_id", created.ID).Msg("failed to create default account")
	}

	s.emit(ports.EventRegistration, created.ID, "", "")
	return created, nil
}

func (s *authService) Login(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	return s.login(ctx, in, false)
}

func (s *authService) AdminLogin(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	return s.login(ctx, in, true)
}

func (s *authService) login(ctx context.Context, in ports.LoginInput, asAdmin bool) (*ports.LoginResult, error) {
	if in.Email == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.store.UserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.emit(ports.EventLoginFailed, "", "", in.DeviceInfo)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}
	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		s.emit(ports.EventLoginFailed, user.ID, "", in.DeviceInfo)
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, domain.ErrAccountInactive
	}

	var admin *domain.Admin
	if asAdmin {
		admin, err = s.loadAdmin(ctx, user.ID)
		if err != nil {
			return nil, err
		}
	}

	result, err := s.issue(ctx, user, admin, in.DeviceInfo)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateLastLogin(ctx, user.ID); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to update last login")
	}

	eventType := ports.EventLogin
	if asAdmin {
		eventType = ports.EventAdminLogin
	}
	s.emit(eventType, user.ID, result.Tokens.AccessID, in.DeviceInfo)
	return result, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken, deviceInfo string) (*ports.LoginResult, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	if err := s.claimRefresh(ctx, HashToken(refreshToken), claims.Subject); err != nil {
		return nil, err
	}

	user, err := s.store.UserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if !user.IsActive {
		return nil, domain.ErrAccountInactive
	}

	var admin *domain.Admin
	if claims.IsAdmin {
		admin, err = s.loadAdmin(ctx, user.ID)
		if err != nil {
			return nil, err
		}
	}

	result, err := s.issue(ctx, user, admin, deviceInfo)
	if err != nil {
		return nil, err
	}
	s.emit(ports.EventRefresh, user.ID, result.Tokens.AccessID, deviceInfo)
	return result, nil
}

func (s *authService) Logout(ctx context.Context, claims *domain.Claims, refreshToken string) error {
	if err := s.blacklist.BlacklistJTI(ctx, claims.ID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	if refreshToken == "" {
		s.revokeAll(ctx, claims.Subject)
	} else {
		s.revokeRefresh(ctx, claims.Subject, HashToken(refreshToken))
	}

	s.emit(ports.EventLogout, claims.Subject, claims.ID, "")
	return nil
}

func (s *authService) LogoutAll(ctx context.Context, claims *domain.Claims) error {
	if err := s.blacklist.BlacklistJTI(ctx, claims.ID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("logout all: %w", err)
	}
	s.revokeAll(ctx, claims.Subject)
	s.emit(ports.EventLogoutAll, claims.Subject, claims.ID, "")
	return nil
}

func (s *authService) IssueValidationKey(_ context.Context, userID string, purpose domain.KeyPurpose, ttl time.Duration) (*domain.ValidationKey, error) {
	if ttl <= 0 {
		ttl = defaultValidationTTL
	}
	value, err := randomHex(32)
	if err != nil {
		return nil, fmt.Errorf("issue validation key: %w", err)
	}
	now := s.now().UTC()
	key := &domain.ValidationKey{
		ID:        uuid.NewString(),
		UserID:    userID,
		Purpose:   purpose,
		Value:     value,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	s.keys.StoreKey(key)
	return key, nil
}

func (s *authService) RedeemValidationKey(_ context.Context, value string) (*domain.ValidationKey, error) {
	key, ok := s.keys.RedeemKey(value)
	if !ok {
		return nil, domain.ErrKeyNotRedeemable
	}
	return key, nil
}

// issue loads the account, mints a pair and persists the refresh record on a
// best-effort basis.
func (s *authService) issue(ctx context.Context, user *domain.User, admin *domain.Admin, deviceInfo string) (*ports.LoginResult, error) {
	account, err := s.store.AccountByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrAccountInactive
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	pair, err := s.tokens.Issue(user, account, admin)
	if err != nil {
		return nil, err
	}

	rec := s.tokens.BuildRecord(user.ID, pair.RefreshToken, admin != nil, true, deviceInfo)
	s.records.StoreToken(rec)
	if err := s.store.StoreToken(ctx, rec); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to persist refresh token")
	}

	return &ports.LoginResult{
		Tokens:  pair,
		User:    user,
		Account: account.Info(),
		Admin:   admin,
	}, nil
}

func (s *authService) loadAdmin(ctx context.Context, userID string) (*domain.Admin, error) {
	admin, err := s.store.AdminByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotAdmin
		}
		return nil, fmt.Errorf("load admin: %w", err)
	}
	return admin, nil
}

// claimRefresh revokes the refresh record behind hash. The cache and the
// store each revoke conditionally, so of N concurrent callers at most one gets
// nil; the rest see ErrTokenRevoked.
func (s *authService) claimRefresh(ctx context.Context, hash, userID string) error {
	cached, inCache := s.records.ValidateToken(hash)
	if inCache && cached.UserID != userID {
		return domain.ErrTokenInvalid
	}
	claimed := inCache && s.records.RevokeToken(hash)
	if inCache && !claimed {
		return domain.ErrTokenRevoked
	}

	err := s.store.RevokeToken(ctx, hash)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrTokenRevoked):
		return domain.ErrTokenRevoked
	case errors.Is(err, domain.ErrNotFound):
		// Persistence is best-effort, so the cache alone may know the record.
		if claimed {
			return nil
		}
		return domain.ErrTokenInvalid
	default:
		if claimed {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("failed to revoke rotated refresh token")
			return nil
		}
		return fmt.Errorf("refresh: %w", err)
	}
}

// revokeRefresh revokes one refresh record of userID. Records that belong to
// another user are left untouched.
func (s *authService) revokeRefresh(ctx context.Context, userID, hash string) {
	if v, ok := s.records.ValidateToken(hash); ok && v.UserID != userID {
		s.log.Warn().Str("user_id", userID).Msg("refresh token belongs to another user; not revoked")
		return
	}
	rec, err := s.store.TokenByHash(ctx, hash)
	switch {
	case err == nil && rec.UserID != userID:
		s.log.Warn().Str("user_id", userID).Msg("refresh token belongs to another user; not revoked")
		return
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		s.log.Warn().Err(err).Str("user_id", userID).Msg("failed to load refresh token")
		return
	}

	s.records.RevokeToken(hash)
	if err := s.store.RevokeToken(ctx, hash); err != nil &&
		!errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrTokenRevoked) {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("failed to revoke refresh token")
	}
}

func (s *authService) revokeAll(ctx context.Context, userID string) {
	n := s.records.RevokeAllForUser(userID)
	if err := s.store.RevokeAllUserTokens(ctx, userID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("failed to revoke user tokens")
		return
	}
	s.log.Debug().Str("user_id", userID).Int("cached", n).Msg("revoked all user tokens")
}

func (s *authService) emit(t ports.AuthEventType, userID, jti, device string) {
	if s.events == nil {
		return
	}
	s.events.Enqueue(ports.AuthEvent{
		Type:       t,
		UserID:     userID,
		JTI:        jti,
		DeviceInfo: device,
		OccurredAt: s.now().UTC(),
	})
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
