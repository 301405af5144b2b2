package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestBlacklist(t *testing.T) (*miniredis.Miniredis, *Blacklist) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})

	b := NewBlacklist(client)
	b.now = func() time.Time { return t0 }
	return mr, b
}

func TestBlacklist_Roundtrip(t *testing.T) {
	mr, b := newTestBlacklist(t)
	ctx := context.Background()

	if ok, err := b.IsBlacklisted(ctx, "jti-1"); err != nil || ok {
		t.Fatalf("fresh jti: got %v %v", ok, err)
	}
	if err := b.BlacklistJTI(ctx, "jti-1", t0.Add(10*time.Minute)); err != nil {
		t.Fatalf("BlacklistJTI: %v", err)
	}
	if err := b.BlacklistJTI(ctx, "jti-1", t0.Add(10*time.Minute)); err != nil {
		t.Fatalf("BlacklistJTI twice: %v", err)
	}
	if ok, err := b.IsBlacklisted(ctx, "jti-1"); err != nil || !ok {
		t.Fatalf("expected blacklisted, got %v %v", ok, err)
	}
	if got := mr.TTL("blacklist:jti:jti-1"); got != 10*time.Minute {
		t.Fatalf("unexpected ttl: %s", got)
	}
}

func TestBlacklist_EntryExpiresWithToken(t *testing.T) {
	mr, b := newTestBlacklist(t)
	ctx := context.Background()

	if err := b.BlacklistJTI(ctx, "jti-1", t0.Add(15*time.Minute)); err != nil {
		t.Fatalf("BlacklistJTI: %v", err)
	}
	mr.FastForward(14 * time.Minute)
	if ok, _ := b.IsBlacklisted(ctx, "jti-1"); !ok {
		t.Fatalf("entry evicted before the token expired")
	}
	mr.FastForward(2 * time.Minute)
	if ok, _ := b.IsBlacklisted(ctx, "jti-1"); ok {
		t.Fatalf("entry outlived its token")
	}
}

func TestBlacklist_NeverShortened(t *testing.T) {
	mr, b := newTestBlacklist(t)
	ctx := context.Background()

	_ = b.BlacklistJTI(ctx, "jti-1", t0.Add(time.Hour))
	_ = b.BlacklistJTI(ctx, "jti-1", t0.Add(time.Minute))
	if got := mr.TTL("blacklist:jti:jti-1"); got != time.Hour {
		t.Fatalf("ttl shortened to %s", got)
	}

	_ = b.BlacklistJTI(ctx, "jti-2", time.Time{})
	_ = b.BlacklistJTI(ctx, "jti-2", t0.Add(time.Minute))
	if got := mr.TTL("blacklist:jti:jti-2"); got != 0 {
		t.Fatalf("permanent entry gained a ttl: %s", got)
	}
}

func TestBlacklist_ConnectionError(t *testing.T) {
	mr, b := newTestBlacklist(t)
	mr.Close()

	if _, err := b.IsBlacklisted(context.Background(), "jti-1"); err == nil {
		t.Fatalf("expected an error from a closed server")
	}
}
