package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET, required"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Tokens    TokenConfig
	Storage   StorageConfig
	Sweep     SweepConfig
	Audit     AuditConfig
	Bootstrap BootstrapConfig

	Mongo MongoConfig
	Redis RedisConfig
	MySQL MySQLConfig
	AMQP  AMQPConfig
}

type TokenConfig struct {
	AccessTTLMinutes int `env:"ACCESS_TOKEN_TTL_MINUTES, default=15"`
	RefreshTTLDays   int `env:"REFRESH_TOKEN_TTL_DAYS,   default=7"`
	BcryptCost       int `env:"BCRYPT_COST,              default=10"`
}

// StorageConfig selects the persistence and blacklist backends.
type StorageConfig struct {
	Backend          string `env:"STORE_BACKEND,     default=memory"` // memory | mongo | mysql
	BlacklistBackend string `env:"BLACKLIST_BACKEND, default=memory"` // memory | redis
}

type SweepConfig struct {
	Schedule string `env:"SWEEP_SCHEDULE, default=@every 5m"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

// BootstrapConfig seeds a SuperAdmin on the memory backend when both values
// are set.
type BootstrapConfig struct {
	AdminEmail    string `env:"DEFAULT_ADMIN_EMAIL"`
	AdminPassword string `env:"DEFAULT_ADMIN_PASSWORD"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=auth_service"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type MySQLConfig struct {
	DSN          string `env:"MYSQL_DSN, default=auth:auth@tcp(localhost:3306)/auth_service"`
	MaxOpenConns int    `env:"MYSQL_MAX_OPEN_CONNS, default=10"`
}

// AMQPConfig enables RabbitMQ publishing of audit events when URL is set.
type AMQPConfig struct {
	URL   string `env:"AMQP_URL"`
	Queue string `env:"AMQP_QUEUE, default=auth.events"`
}

func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.Tokens.AccessTTLMinutes) * time.Minute
}

func (c *Config) RefreshTTL() time.Duration {
	return time.Duration(c.Tokens.RefreshTTLDays) * 24 * time.Hour
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration from lookuper and validates it.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case "memory", "mongo", "mysql":
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Storage.Backend)
	}
	switch c.Storage.BlacklistBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown BLACKLIST_BACKEND %q", c.Storage.BlacklistBackend)
	}
	if c.Tokens.AccessTTLMinutes <= 0 || c.Tokens.RefreshTTLDays <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	return nil
}
