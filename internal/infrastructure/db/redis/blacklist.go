package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "blacklist:jti:"

// Blacklist stores revoked jtis in Redis so every instance sees them.
// Key format: blacklist:jti:<jti>, expiring with the revoked token.
type Blacklist struct {
	client *redis.Client
	now    func() time.Time
}

func NewBlacklist(client *redis.Client) *Blacklist {
	return &Blacklist{client: client, now: time.Now}
}

// BlacklistJTI marks jti as revoked for the remaining lifetime of its token.
// A zero expiresAt stores the entry without expiry. An entry is never
// shortened by a later call.
func (b *Blacklist) BlacklistJTI(ctx context.Context, jti string, expiresAt time.Time) error {
	key := keyPrefix + jti

	var ttl time.Duration
	if !expiresAt.IsZero() {
		ttl = expiresAt.Sub(b.now())
		if ttl < time.Second {
			// The token is already past its natural expiry.
			ttl = time.Second
		}
	}

	current, err := b.client.PTTL(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("blacklist ttl: %w", err)
	}
	// PTTL reports -1 for a key without expiry and -2 for a missing key.
	if current == -1 || (ttl > 0 && current > ttl) {
		return nil
	}

	if err := b.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist set: %w", err)
	}
	return nil
}

func (b *Blacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, keyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("blacklist check: %w", err)
	}
	return n > 0, nil
}
