// Command server runs the auth service HTTP API.
//
// @title                       Auth Service API
// @version                     1.0
// @description                 Session and authorization service: token issuance, verification and revocation.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/api"
	"github.com/99minutos/auth-service/internal/api/handler"
	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
	"github.com/99minutos/auth-service/internal/core/service"
	"github.com/99minutos/auth-service/internal/infrastructure/db/memory"
	mongostore "github.com/99minutos/auth-service/internal/infrastructure/db/mongo"
	mysqlstore "github.com/99minutos/auth-service/internal/infrastructure/db/mysql"
	redisstore "github.com/99minutos/auth-service/internal/infrastructure/db/redis"
	"github.com/99minutos/auth-service/internal/infrastructure/queue"
	"github.com/99minutos/auth-service/internal/infrastructure/scheduler"
	"github.com/99minutos/auth-service/internal/infrastructure/validation"
	"github.com/99minutos/auth-service/internal/pkg/config"
	"github.com/99minutos/auth-service/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// backend is a persistence backend plus the hooks main needs around it.
type backend struct {
	store  ports.Store
	purger ports.TokenPurger
	close  func(context.Context) error
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	state := validation.NewStore()
	checks := map[string]handler.Check{}

	be, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := be.close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("failed to close store")
		}
	}()
	checks["store"] = be.store.HealthCheck

	var blacklist ports.Blacklist = state
	if cfg.Storage.BlacklistBackend == "redis" {
		client, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer client.Close()
		blacklist = redisstore.NewBlacklist(client)
		checks["redis"] = func(ctx context.Context) error {
			return redisstore.Ping(ctx, client, 0)
		}
	}

	var publisher ports.EventPublisher = queue.LogPublisher{Log: logger.Component("audit")}
	if cfg.AMQP.URL != "" {
		amqpPublisher, err := queue.DialAMQP(cfg.AMQP.URL, cfg.AMQP.Queue)
		if err != nil {
			return err
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
	}
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, publisher, logger.Component("dispatcher"))
	dispatcher.Start(ctx)

	tokens := service.NewTokenService(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())
	hasher := service.BcryptHasher{Cost: cfg.Tokens.BcryptCost}

	if err := seedAdmin(ctx, cfg, be.store, hasher, log); err != nil {
		return err
	}

	authService := service.NewAuthService(service.AuthDeps{
		Store:     be.store,
		Tokens:    tokens,
		Hasher:    hasher,
		Blacklist: blacklist,
		Records:   state,
		Keys:      state,
		Events:    dispatcher,
		Log:       logger.Component("auth"),
	})
	gate := service.NewGate(tokens, blacklist, logger.Component("gate"))

	sweeper := scheduler.NewSweeper(cfg.Sweep.Schedule, state, be.purger, logger.Component("sweeper"))
	sweeper.ReportBlacklistSize(cfg.Storage.BlacklistBackend != "redis")
	if err := sweeper.Start(); err != nil {
		return err
	}
	defer sweeper.Stop()

	e := api.NewRouter(api.Deps{
		Auth: authService,
		Gate: gate,
		Stats: func() handler.SystemStats {
			st := state.Stats()
			return handler.SystemStats{
				BlacklistedTokens: st.Blacklisted,
				ValidationKeys:    st.Keys,
				TokenRecords:      st.Tokens,
				AuditDropped:      dispatcher.Dropped(),
			}
		},
		Checks: checks,
		Log:    logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("store", cfg.Storage.Backend).
			Str("blacklist", cfg.Storage.BlacklistBackend).
			Msg("auth service listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.Storage.Backend {
	case "mongo":
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		store := mongostore.NewStore(client, db)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return &backend{store: store, purger: store, close: client.Disconnect}, nil

	case "mysql":
		db, err := mysqlstore.Open(ctx, mysqlstore.Config{DSN: cfg.MySQL.DSN, MaxOpenConns: cfg.MySQL.MaxOpenConns})
		if err != nil {
			return nil, err
		}
		if err := mysqlstore.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		store := mysqlstore.NewStore(db)
		return &backend{store: store, purger: store, close: func(context.Context) error { return db.Close() }}, nil

	default:
		store := memory.NewStore()
		return &backend{store: store, purger: store, close: func(context.Context) error { return nil }}, nil
	}
}

type adminSeeder interface {
	SeedSuperAdmin(ctx context.Context, email, passwordHash string) (*domain.User, error)
}

// seedAdmin creates the bootstrap SuperAdmin on stores that support it.
func seedAdmin(ctx context.Context, cfg *config.Config, store ports.Store, hasher service.BcryptHasher, log zerolog.Logger) error {
	email, password := cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword
	if email == "" || password == "" {
		return nil
	}
	seeder, ok := store.(adminSeeder)
	if !ok {
		log.Warn().Str("store", cfg.Storage.Backend).Msg("store does not support admin seeding; skipping")
		return nil
	}
	hash, err := hasher.Hash(password)
	if err != nil {
		return err
	}
	user, err := seeder.SeedSuperAdmin(ctx, email, hash)
	if err != nil {
		return err
	}
	log.Info().Str("user_id", user.ID).Str("email", email).Msg("bootstrap admin ready")
	return nil
}
