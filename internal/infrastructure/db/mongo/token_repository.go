package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/99minutos/auth-service/internal/core/domain"
)

type mongoToken struct {
	ID         string `bson:"_id"`
	UserID     string `bson:"user_id"`
	TokenHash  string `bson:"token_hash"`
	Type       string `bson:"token_type"`
	ExpiresAt  int64  `bson:"expires_at"`
	CreatedAt  int64  `bson:"created_at"`
	RevokedAt  *int64 `bson:"revoked_at,omitempty"`
	DeviceInfo string `bson:"device_info,omitempty"`
}

func (s *Store) StoreToken(ctx context.Context, record *domain.TokenRecord) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoToken{
		ID:         record.ID,
		UserID:     record.UserID,
		TokenHash:  record.TokenHash,
		Type:       string(record.Type),
		ExpiresAt:  record.ExpiresAt.Unix(),
		CreatedAt:  record.CreatedAt.Unix(),
		RevokedAt:  optionalUnix(record.RevokedAt),
		DeviceInfo: record.DeviceInfo,
	}
	_, err := s.tokens.InsertOne(ctx, doc)
	return classify("insert token", err)
}

func (s *Store) TokenByHash(ctx context.Context, hash string) (*domain.TokenRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mt mongoToken
	if err := s.tokens.FindOne(ctx, bson.M{"token_hash": hash}).Decode(&mt); err != nil {
		return nil, classify("find token", err)
	}
	return &domain.TokenRecord{
		ID:         mt.ID,
		UserID:     mt.UserID,
		TokenHash:  mt.TokenHash,
		Type:       domain.TokenType(mt.Type),
		ExpiresAt:  unixToTime(mt.ExpiresAt),
		CreatedAt:  unixToTime(mt.CreatedAt),
		RevokedAt:  optionalTime(mt.RevokedAt),
		DeviceInfo: mt.DeviceInfo,
	}, nil
}

// RevokeToken sets revoked_at on an unrevoked record. The filter on
// revoked_at makes the update the single point where a record is claimed.
func (s *Store) RevokeToken(ctx context.Context, hash string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := s.tokens.UpdateOne(ctx,
		bson.M{"token_hash": hash, "revoked_at": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"revoked_at": s.now().Unix()}},
	)
	if err != nil {
		return classify("revoke token", err)
	}
	if res.MatchedCount == 0 {
		n, err := s.tokens.CountDocuments(ctx, bson.M{"token_hash": hash})
		if err != nil {
			return classify("revoke token", err)
		}
		if n == 0 {
			return domain.ErrNotFound
		}
		return domain.ErrTokenRevoked
	}
	return nil
}

func (s *Store) RevokeAllUserTokens(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := s.tokens.UpdateMany(ctx,
		bson.M{"user_id": userID, "revoked_at": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"revoked_at": s.now().Unix()}},
	)
	return classify("revoke user tokens", err)
}

func (s *Store) DeleteExpiredTokens(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := s.tokens.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": s.now().Unix()}})
	if err != nil {
		return 0, classify("delete expired tokens", err)
	}
	return int(res.DeletedCount), nil
}
