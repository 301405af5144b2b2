package mongo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/99minutos/auth-service/internal/core/domain"
)

type mongoAccount struct {
	ID              string   `bson:"_id"`
	UserID          string   `bson:"user_id"`
	Tier            string   `bson:"account_level"`
	Status          string   `bson:"account_status"`
	Capabilities    []string `bson:"capabilities"`
	StatusReason    string   `bson:"status_reason,omitempty"`
	StatusChangedAt *int64   `bson:"status_changed_at,omitempty"`
	StatusChangedBy string   `bson:"status_changed_by,omitempty"`
	CreatedAt       int64    `bson:"created_at"`
	UpdatedAt       int64    `bson:"updated_at"`
}

func (ma *mongoAccount) toDomain() *domain.Account {
	caps := ma.Capabilities
	if caps == nil {
		caps = []string{}
	}
	return &domain.Account{
		ID:              ma.ID,
		UserID:          ma.UserID,
		Tier:            domain.Tier(ma.Tier),
		Status:          domain.AccountStatus(ma.Status),
		Capabilities:    caps,
		StatusReason:    ma.StatusReason,
		StatusChangedAt: optionalTime(ma.StatusChangedAt),
		StatusChangedBy: ma.StatusChangedBy,
		CreatedAt:       unixToTime(ma.CreatedAt),
		UpdatedAt:       unixToTime(ma.UpdatedAt),
	}
}

type mongoAdmin struct {
	ID          string   `bson:"_id"`
	UserID      string   `bson:"user_id"`
	Role        string   `bson:"role"`
	Permissions []string `bson:"permissions"`
	CreatedAt   int64    `bson:"created_at"`
	UpdatedAt   int64    `bson:"updated_at"`
	CreatedBy   string   `bson:"created_by,omitempty"`
}

func (s *Store) AccountByUserID(ctx context.Context, userID string) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ma mongoAccount
	if err := s.accounts.FindOne(ctx, bson.M{"user_id": userID}).Decode(&ma); err != nil {
		return nil, classify("find account", err)
	}
	return ma.toDomain(), nil
}

func (s *Store) CreateAccount(ctx context.Context, userID string) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := s.now().Unix()
	doc := mongoAccount{
		ID:           uuid.NewString(),
		UserID:       userID,
		Tier:         string(domain.TierFree),
		Status:       string(domain.StatusPending),
		Capabilities: []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.accounts.InsertOne(ctx, doc); err != nil {
		return nil, classify("insert account", err)
	}
	return doc.toDomain(), nil
}

func (s *Store) AdminByUserID(ctx context.Context, userID string) (*domain.Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ma mongoAdmin
	if err := s.admins.FindOne(ctx, bson.M{"user_id": userID}).Decode(&ma); err != nil {
		return nil, classify("find admin", err)
	}
	return &domain.Admin{
		ID:          ma.ID,
		UserID:      ma.UserID,
		Role:        domain.AdminRole(ma.Role),
		Permissions: ma.Permissions,
		CreatedAt:   unixToTime(ma.CreatedAt),
		UpdatedAt:   unixToTime(ma.UpdatedAt),
		CreatedBy:   ma.CreatedBy,
	}, nil
}

func (s *Store) IsAdmin(ctx context.Context, userID string) (bool, error) {
	_, err := s.AdminByUserID(ctx, userID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
