package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	collectionUsers    = "users"
	collectionAccounts = "accounts"
	collectionAdmins   = "admins"
	collectionTokens   = "token_records"
)

// Store implements ports.Store on four MongoDB collections.
type Store struct {
	client   *mongo.Client
	users    *mongo.Collection
	accounts *mongo.Collection
	admins   *mongo.Collection
	tokens   *mongo.Collection
	now      func() time.Time
}

func NewStore(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		client:   client,
		users:    db.Collection(collectionUsers),
		accounts: db.Collection(collectionAccounts),
		admins:   db.Collection(collectionAdmins),
		tokens:   db.Collection(collectionTokens),
		now:      time.Now,
	}
}

// EnsureIndexes creates the unique and lookup indexes the store relies on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	unique := options.Index().SetUnique(true)
	sparseUnique := options.Index().SetUnique(true).SetSparse(true)

	plan := []struct {
		col     *mongo.Collection
		indexes []mongo.IndexModel
	}{
		{s.users, []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: sparseUnique},
		}},
		{s.accounts, []mongo.IndexModel{
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: unique},
		}},
		{s.admins, []mongo.IndexModel{
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: unique},
		}},
		{s.tokens, []mongo.IndexModel{
			{Keys: bson.D{{Key: "token_hash", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
			{Keys: bson.D{{Key: "expires_at", Value: 1}}},
		}},
	}
	for _, p := range plan {
		if _, err := p.col.Indexes().CreateMany(ctx, p.indexes); err != nil {
			return classify("create indexes", err)
		}
	}
	return nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return classify("ping", s.client.Ping(ctx, readpref.Primary()))
}
