package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/99minutos/auth-service/internal/core/domain"
)

const (
	defaultTimeout = 5 * time.Second
	errDupEntry    = 1062
)

// Config holds the MySQL connection settings. Open forces parseTime and UTC.
type Config struct {
	DSN          string
	MaxOpenConns int
	Timeout      time.Duration
}

// Open connects to MySQL, applies pool settings and verifies the connection.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	parsed, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mysql dsn: %w", err)
	}
	parsed.ParseTime = true
	parsed.Loc = time.UTC

	db, err := sql.Open("mysql", parsed.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("%w: mysql open: %v", domain.ErrConnection, err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxLifetime(30 * time.Minute)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: mysql ping: %v", domain.ErrConnection, err)
	}
	return db, nil
}

// classify maps a database/sql or driver error onto the storage taxonomy.
func classify(op string, err error) error {
	var myErr *mysql.MySQLError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return domain.ErrNotFound
	case errors.As(err, &myErr) && myErr.Number == errDupEntry:
		return fmt.Errorf("%w: %s", domain.ErrDuplicate, op)
	case errors.Is(err, mysql.ErrInvalidConn), errors.Is(err, sql.ErrConnDone),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %s: %v", domain.ErrConnection, op, err)
	default:
		return fmt.Errorf("%w: %s: %v", domain.ErrQuery, op, err)
	}
}
