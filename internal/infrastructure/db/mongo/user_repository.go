package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/99minutos/auth-service/internal/core/domain"
)

type mongoUser struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	Username     string             `bson:"username,omitempty"`
	PasswordHash string             `bson:"password_hash"`
	FirstName    string             `bson:"first_name,omitempty"`
	LastName     string             `bson:"last_name,omitempty"`
	IsActive     bool               `bson:"is_active"`
	CreatedAt    int64              `bson:"created_at"`
	UpdatedAt    int64              `bson:"updated_at"`
	LastLogin    *int64             `bson:"last_login,omitempty"`
}

func (mu *mongoUser) toDomain() *domain.User {
	return &domain.User{
		ID:           mu.ID.Hex(),
		Email:        mu.Email,
		Username:     mu.Username,
		PasswordHash: mu.PasswordHash,
		FirstName:    mu.FirstName,
		LastName:     mu.LastName,
		IsActive:     mu.IsActive,
		CreatedAt:    unixToTime(mu.CreatedAt),
		UpdatedAt:    unixToTime(mu.UpdatedAt),
		LastLogin:    optionalTime(mu.LastLogin),
	}
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := s.users.FindOne(ctx, filter).Decode(&mu); err != nil {
		return nil, classify("find user", err)
	}
	return mu.toDomain(), nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.findUser(ctx, bson.M{"username": username})
}

func (s *Store) UserByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	return s.findUser(ctx, bson.M{"_id": oid})
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoUser{
		ID:           primitive.NewObjectID(),
		Email:        user.Email,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		IsActive:     user.IsActive,
		CreatedAt:    user.CreatedAt.Unix(),
		UpdatedAt:    user.UpdatedAt.Unix(),
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		return nil, classify("insert user", err)
	}
	return doc.toDomain(), nil
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := s.now().Unix()
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{"last_login": now, "updated_at": now},
	})
	if err != nil {
		return classify("update last login", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
