// Package memory is a thread-safe in-memory ports.Store for local runs and
// tests. Values are copied in and out so callers never share state with it.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/99minutos/auth-service/internal/core/domain"
)

type Store struct {
	mu sync.RWMutex

	users       map[string]*domain.User
	usersByMail map[string]string
	usersByName map[string]string
	accounts    map[string]*domain.Account // key: user id
	admins      map[string]*domain.Admin   // key: user id
	tokens      map[string]*domain.TokenRecord

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:       make(map[string]*domain.User),
		usersByMail: make(map[string]string),
		usersByName: make(map[string]string),
		accounts:    make(map[string]*domain.Account),
		admins:      make(map[string]*domain.Admin),
		tokens:      make(map[string]*domain.TokenRecord),
		now:         time.Now,
	}
}

// SeedSuperAdmin creates an active Enterprise user holding a SuperAdmin
// record with the wildcard permission. It is a no-op when the email exists.
func (s *Store) SeedSuperAdmin(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	if existing, err := s.UserByEmail(ctx, email); err == nil {
		return existing, nil
	}

	now := s.now().UTC()
	user, err := s.CreateUser(ctx, &domain.User{
		Email:        email,
		Username:     "admin",
		PasswordHash: passwordHash,
		FirstName:    "System",
		LastName:     "Administrator",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[user.ID] = &domain.Account{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Tier:      domain.TierEnterprise,
		Status:    domain.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.admins[user.ID] = &domain.Admin{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Role:        domain.AdminRoleSuperAdmin,
		Permissions: []string{"*"},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return user, nil
}

// ---------- Users ----------

func (s *Store) UserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userLocked(s.usersByMail[email])
}

func (s *Store) UserByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userLocked(id)
}

func (s *Store) UserByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userLocked(s.usersByName[username])
}

func (s *Store) userLocked(id string) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *Store) CreateUser(_ context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByMail[user.Email]; exists {
		return nil, fmt.Errorf("%w: email %s", domain.ErrDuplicate, user.Email)
	}
	if user.Username != "" {
		if _, exists := s.usersByName[user.Username]; exists {
			return nil, fmt.Errorf("%w: username %s", domain.ErrDuplicate, user.Username)
		}
	}

	created := *user
	created.ID = uuid.NewString()
	s.users[created.ID] = &created
	s.usersByMail[created.Email] = created.ID
	if created.Username != "" {
		s.usersByName[created.Username] = created.ID
	}
	out := created
	return &out, nil
}

func (s *Store) UpdateLastLogin(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	now := s.now().UTC()
	u.LastLogin = &now
	u.UpdatedAt = now
	return nil
}

// ---------- Accounts & admins ----------

func (s *Store) AccountByUserID(_ context.Context, userID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *a
	clone.Capabilities = append([]string(nil), a.Capabilities...)
	return &clone, nil
}

func (s *Store) CreateAccount(_ context.Context, userID string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[userID]; exists {
		return nil, fmt.Errorf("%w: account for %s", domain.ErrDuplicate, userID)
	}
	now := s.now().UTC()
	acc := &domain.Account{
		ID:           uuid.NewString(),
		UserID:       userID,
		Tier:         domain.TierFree,
		Status:       domain.StatusPending,
		Capabilities: []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.accounts[userID] = acc
	clone := *acc
	return &clone, nil
}

// PutAccount replaces the account of a user. Status and tier changes are
// governed by callers.
func (s *Store) PutAccount(account *domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *account
	s.accounts[account.UserID] = &clone
}

func (s *Store) AdminByUserID(_ context.Context, userID string) (*domain.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.admins[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *a
	clone.Permissions = append([]string(nil), a.Permissions...)
	return &clone, nil
}

func (s *Store) IsAdmin(_ context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.admins[userID]
	return ok, nil
}

// ---------- Token records ----------

func (s *Store) StoreToken(_ context.Context, record *domain.TokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tokens[record.TokenHash]; exists {
		return fmt.Errorf("%w: token record", domain.ErrDuplicate)
	}
	clone := *record
	s.tokens[record.TokenHash] = &clone
	return nil
}

func (s *Store) TokenByHash(_ context.Context, hash string) (*domain.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.tokens[hash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *rec
	return &clone, nil
}

func (s *Store) RevokeToken(_ context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tokens[hash]
	if !ok {
		return domain.ErrNotFound
	}
	if rec.RevokedAt != nil {
		return domain.ErrTokenRevoked
	}
	now := s.now().UTC()
	rec.RevokedAt = &now
	return nil
}

func (s *Store) RevokeAllUserTokens(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	for _, rec := range s.tokens {
		if rec.UserID == userID && rec.RevokedAt == nil {
			rec.RevokedAt = &now
		}
	}
	return nil
}

// DeleteExpiredTokens physically removes records past their expiry and
// returns how many were removed.
func (s *Store) DeleteExpiredTokens(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for hash, rec := range s.tokens {
		if !now.Before(rec.ExpiresAt) {
			delete(s.tokens, hash)
			n++
		}
	}
	return n, nil
}

func (s *Store) HealthCheck(context.Context) error { return nil }
