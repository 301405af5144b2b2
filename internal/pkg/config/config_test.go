package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "secret",
	}))
	if err != nil {
		t.Fatalf("LoadWith: %v", err)
	}
	if cfg.Port != "8080" || cfg.Storage.Backend != "memory" || cfg.Storage.BlacklistBackend != "memory" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.AccessTTL() != 15*time.Minute || cfg.RefreshTTL() != 7*24*time.Hour {
		t.Fatalf("unexpected token lifetimes: %s %s", cfg.AccessTTL(), cfg.RefreshTTL())
	}
	if cfg.Sweep.Schedule != "@every 5m" {
		t.Fatalf("unexpected sweep schedule %q", cfg.Sweep.Schedule)
	}
	if cfg.AMQP.Queue != "auth.events" || cfg.AMQP.URL != "" {
		t.Fatalf("unexpected amqp config: %+v", cfg.AMQP)
	}
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":               "secret",
		"ACCESS_TOKEN_TTL_MINUTES": "5",
		"STORE_BACKEND":            "mysql",
		"BLACKLIST_BACKEND":        "redis",
		"REDIS_DB":                 "3",
	}))
	if err != nil {
		t.Fatalf("LoadWith: %v", err)
	}
	if cfg.AccessTTL() != 5*time.Minute || cfg.Storage.Backend != "mysql" || cfg.Redis.DB != 3 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadWith_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"missing secret":    {},
		"unknown store":     {"JWT_SECRET": "s", "STORE_BACKEND": "postgres"},
		"unknown blacklist": {"JWT_SECRET": "s", "BLACKLIST_BACKEND": "memcached"},
		"zero ttl":          {"JWT_SECRET": "s", "ACCESS_TOKEN_TTL_MINUTES": "0"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadWith(context.Background(), envconfig.MapLookuper(env)); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}
