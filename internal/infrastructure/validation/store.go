// Package validation holds the in-process validation state: revoked access
// token ids, one-time validation keys and the token record cache.
//
// The three maps are locked independently; no invariant spans them.
package validation

import (
	"context"
	"sync"
	"time"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

// SweepResult counts the entries removed by a sweep.
type SweepResult struct {
	Keys      int
	Tokens    int
	Blacklist int
}

// Stats reports the current size of each map.
type Stats struct {
	Blacklisted int
	Keys        int
	Tokens      int
}

// Store is safe for concurrent use.
type Store struct {
	blMu      sync.RWMutex
	blacklist map[string]time.Time

	keyMu sync.RWMutex
	keys  map[string]*domain.ValidationKey

	recMu   sync.RWMutex
	records map[string]*domain.TokenRecord

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		blacklist: make(map[string]time.Time),
		keys:      make(map[string]*domain.ValidationKey),
		records:   make(map[string]*domain.TokenRecord),
		now:       time.Now,
	}
}

// ---------- Blacklist ----------

// BlacklistJTI marks jti as revoked until expiresAt. Re-adding keeps the
// later expiry. A zero expiresAt is never swept.
func (s *Store) BlacklistJTI(_ context.Context, jti string, expiresAt time.Time) error {
	s.blMu.Lock()
	defer s.blMu.Unlock()

	if prev, ok := s.blacklist[jti]; ok {
		if prev.IsZero() || (!expiresAt.IsZero() && prev.After(expiresAt)) {
			return nil
		}
	}
	s.blacklist[jti] = expiresAt
	return nil
}

func (s *Store) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	s.blMu.RLock()
	defer s.blMu.RUnlock()

	_, ok := s.blacklist[jti]
	return ok, nil
}

// ---------- Validation keys ----------

func (s *Store) StoreKey(key *domain.ValidationKey) {
	stored := *key

	s.keyMu.Lock()
	defer s.keyMu.Unlock()
	s.keys[key.Value] = &stored
}

// LookupKey returns the key stored under value without redeeming it.
func (s *Store) LookupKey(value string) (*domain.ValidationKey, bool) {
	s.keyMu.RLock()
	defer s.keyMu.RUnlock()

	key, ok := s.keys[value]
	if !ok {
		return nil, false
	}
	stored := *key
	return &stored, true
}

// RedeemKey marks an unused, unexpired key as used and returns it. The check
// and the mark happen under one write lock.
func (s *Store) RedeemKey(value string) (*domain.ValidationKey, bool) {
	s.keyMu.Lock()
	defer s.keyMu.Unlock()

	key, ok := s.keys[value]
	if !ok || !key.Redeemable(s.now()) {
		return nil, false
	}
	key.Used = true
	stored := *key
	return &stored, true
}

// ---------- Token records ----------

func (s *Store) StoreToken(record *domain.TokenRecord) {
	stored := *record

	s.recMu.Lock()
	defer s.recMu.Unlock()
	s.records[record.TokenHash] = &stored
}

func (s *Store) ValidateToken(hash string) (ports.TokenValidation, bool) {
	s.recMu.RLock()
	defer s.recMu.RUnlock()

	rec, ok := s.records[hash]
	if !ok {
		return ports.TokenValidation{}, false
	}
	return ports.TokenValidation{
		UserID:    rec.UserID,
		Type:      rec.Type,
		Valid:     rec.Active(s.now()),
		ExpiresAt: rec.ExpiresAt,
	}, true
}

// IsAdminToken reports whether hash belongs to an active admin record.
func (s *Store) IsAdminToken(hash string) bool {
	v, ok := s.ValidateToken(hash)
	return ok && v.Valid && v.Type.IsAdmin()
}

// RevokeToken sets the revocation time of an active record. It reports false
// when the record is unknown or already revoked.
func (s *Store) RevokeToken(hash string) bool {
	s.recMu.Lock()
	defer s.recMu.Unlock()

	rec, ok := s.records[hash]
	if !ok || rec.RevokedAt != nil {
		return false
	}
	now := s.now().UTC()
	rec.RevokedAt = &now
	return true
}

// RevokeAllForUser revokes every unrevoked record of userID and returns how
// many were changed.
func (s *Store) RevokeAllForUser(userID string) int {
	s.recMu.Lock()
	defer s.recMu.Unlock()

	now := s.now().UTC()
	n := 0
	for _, rec := range s.records {
		if rec.UserID == userID && rec.RevokedAt == nil {
			rec.RevokedAt = &now
			n++
		}
	}
	return n
}

// ---------- Maintenance ----------

// SweepExpired drops expired keys, expired token records and blacklist
// entries whose token has expired on its own.
func (s *Store) SweepExpired() SweepResult {
	now := s.now()
	var res SweepResult

	s.keyMu.Lock()
	for value, key := range s.keys {
		if !now.Before(key.ExpiresAt) {
			delete(s.keys, value)
			res.Keys++
		}
	}
	s.keyMu.Unlock()

	s.recMu.Lock()
	for hash, rec := range s.records {
		if !now.Before(rec.ExpiresAt) {
			delete(s.records, hash)
			res.Tokens++
		}
	}
	s.recMu.Unlock()

	s.blMu.Lock()
	for jti, exp := range s.blacklist {
		if !exp.IsZero() && !now.Before(exp) {
			delete(s.blacklist, jti)
			res.Blacklist++
		}
	}
	s.blMu.Unlock()

	return res
}

func (s *Store) Stats() Stats {
	var st Stats
	s.blMu.RLock()
	st.Blacklisted = len(s.blacklist)
	s.blMu.RUnlock()
	s.keyMu.RLock()
	st.Keys = len(s.keys)
	s.keyMu.RUnlock()
	s.recMu.RLock()
	st.Tokens = len(s.records)
	s.recMu.RUnlock()
	return st
}
