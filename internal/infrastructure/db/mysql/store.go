package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/99minutos/auth-service/internal/core/domain"
)

const (
	sqlUserColumns = `id, email, username, password_hash, first_name, last_name, is_active, created_at, updated_at, last_login`

	sqlSelectUserByEmail    = `SELECT ` + sqlUserColumns + ` FROM users WHERE email = ?`
	sqlSelectUserByID       = `SELECT ` + sqlUserColumns + ` FROM users WHERE id = ?`
	sqlSelectUserByUsername = `SELECT ` + sqlUserColumns + ` FROM users WHERE username = ?`
	sqlInsertUser           = `INSERT INTO users (` + sqlUserColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	sqlUpdateLastLogin      = `UPDATE users SET last_login = ?, updated_at = ? WHERE id = ?`

	sqlSelectAccount = `SELECT id, user_id, account_level, account_status, capabilities, status_reason, ` +
		`status_changed_at, status_changed_by, created_at, updated_at FROM accounts WHERE user_id = ?`
	sqlInsertAccount = `INSERT INTO accounts (id, user_id, account_level, account_status, capabilities, created_at, updated_at) ` +
		`VALUES (?, ?, ?, ?, ?, ?, ?)`

	sqlSelectAdmin = `SELECT id, user_id, role, permissions, created_at, updated_at, created_by FROM admins WHERE user_id = ?`
	sqlCountAdmin  = `SELECT COUNT(*) FROM admins WHERE user_id = ?`

	sqlInsertToken = `INSERT INTO token_records (id, user_id, token_hash, token_type, expires_at, created_at, revoked_at, device_info) ` +
		`VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	sqlSelectToken = `SELECT id, user_id, token_hash, token_type, expires_at, created_at, revoked_at, device_info ` +
		`FROM token_records WHERE token_hash = ?`
	sqlRevokeToken        = `UPDATE token_records SET revoked_at = ? WHERE token_hash = ? AND revoked_at IS NULL`
	sqlCountToken         = `SELECT COUNT(*) FROM token_records WHERE token_hash = ?`
	sqlRevokeUserTokens   = `UPDATE token_records SET revoked_at = ? WHERE user_id = ? AND revoked_at IS NULL`
	sqlDeleteExpiredToken = `DELETE FROM token_records WHERE expires_at <= ?`
)

// Store implements ports.Store on MySQL.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u         domain.User
		username  sql.NullString
		lastLogin sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Email, &username, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt, &lastLogin); err != nil {
		return nil, err
	}
	u.Username = username.String
	if lastLogin.Valid {
		t := lastLogin.Time.UTC()
		u.LastLogin = &t
	}
	return &u, nil
}

func (s *Store) queryUser(ctx context.Context, query, arg string) (*domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, classify("select user", err)
	}
	return u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.queryUser(ctx, sqlSelectUserByEmail, email)
}

func (s *Store) UserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.queryUser(ctx, sqlSelectUserByID, id)
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.queryUser(ctx, sqlSelectUserByUsername, username)
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	created := *user
	created.ID = uuid.NewString()
	username := sql.NullString{String: created.Username, Valid: created.Username != ""}

	_, err := s.db.ExecContext(ctx, sqlInsertUser,
		created.ID, created.Email, username, created.PasswordHash, created.FirstName, created.LastName,
		created.IsActive, created.CreatedAt, created.UpdatedAt, nullTime(created.LastLogin))
	if err != nil {
		return nil, classify("insert user", err)
	}
	return &created, nil
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	now := s.now().UTC()
	_, err := s.db.ExecContext(ctx, sqlUpdateLastLogin, now, now, userID)
	return classify("update last login", err)
}

func (s *Store) AccountByUserID(ctx context.Context, userID string) (*domain.Account, error) {
	var (
		a         domain.Account
		caps      string
		changedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, sqlSelectAccount, userID).Scan(
		&a.ID, &a.UserID, &a.Tier, &a.Status, &caps, &a.StatusReason,
		&changedAt, &a.StatusChangedBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, classify("select account", err)
	}
	if a.Capabilities, err = decodeList(caps); err != nil {
		return nil, fmt.Errorf("%w: decode capabilities: %v", domain.ErrOther, err)
	}
	if changedAt.Valid {
		t := changedAt.Time.UTC()
		a.StatusChangedAt = &t
	}
	return &a, nil
}

func (s *Store) CreateAccount(ctx context.Context, userID string) (*domain.Account, error) {
	now := s.now().UTC()
	a := &domain.Account{
		ID:           uuid.NewString(),
		UserID:       userID,
		Tier:         domain.TierFree,
		Status:       domain.StatusPending,
		Capabilities: []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := s.db.ExecContext(ctx, sqlInsertAccount,
		a.ID, a.UserID, string(a.Tier), string(a.Status), "[]", a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return nil, classify("insert account", err)
	}
	return a, nil
}

func (s *Store) AdminByUserID(ctx context.Context, userID string) (*domain.Admin, error) {
	var (
		a     domain.Admin
		perms string
	)
	err := s.db.QueryRowContext(ctx, sqlSelectAdmin, userID).Scan(
		&a.ID, &a.UserID, &a.Role, &perms, &a.CreatedAt, &a.UpdatedAt, &a.CreatedBy)
	if err != nil {
		return nil, classify("select admin", err)
	}
	if a.Permissions, err = decodeList(perms); err != nil {
		return nil, fmt.Errorf("%w: decode permissions: %v", domain.ErrOther, err)
	}
	return &a, nil
}

func (s *Store) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, sqlCountAdmin, userID).Scan(&n); err != nil {
		return false, classify("count admin", err)
	}
	return n > 0, nil
}

func (s *Store) StoreToken(ctx context.Context, r *domain.TokenRecord) error {
	_, err := s.db.ExecContext(ctx, sqlInsertToken,
		r.ID, r.UserID, r.TokenHash, string(r.Type), r.ExpiresAt, r.CreatedAt, nullTime(r.RevokedAt), r.DeviceInfo)
	return classify("insert token", err)
}

func (s *Store) TokenByHash(ctx context.Context, hash string) (*domain.TokenRecord, error) {
	var (
		r         domain.TokenRecord
		revokedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, sqlSelectToken, hash).Scan(
		&r.ID, &r.UserID, &r.TokenHash, &r.Type, &r.ExpiresAt, &r.CreatedAt, &revokedAt, &r.DeviceInfo)
	if err != nil {
		return nil, classify("select token", err)
	}
	if revokedAt.Valid {
		t := revokedAt.Time.UTC()
		r.RevokedAt = &t
	}
	return &r, nil
}

// RevokeToken sets revoked_at on an unrevoked record. Zero affected rows
// means another caller got there first, or the record does not exist.
func (s *Store) RevokeToken(ctx context.Context, hash string) error {
	res, err := s.db.ExecContext(ctx, sqlRevokeToken, s.now().UTC(), hash)
	if err != nil {
		return classify("revoke token", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	var count int
	if err := s.db.QueryRowContext(ctx, sqlCountToken, hash).Scan(&count); err != nil {
		return classify("count token", err)
	}
	if count == 0 {
		return domain.ErrNotFound
	}
	return domain.ErrTokenRevoked
}

func (s *Store) RevokeAllUserTokens(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, sqlRevokeUserTokens, s.now().UTC(), userID)
	return classify("revoke user tokens", err)
}

func (s *Store) DeleteExpiredTokens(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, sqlDeleteExpiredToken, s.now().UTC())
	if err != nil {
		return 0, classify("delete expired tokens", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, classify("delete expired tokens", err)
	}
	return int(n), nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return classify("ping", s.db.PingContext(ctx))
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func decodeList(raw string) ([]string, error) {
	out := []string{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}
