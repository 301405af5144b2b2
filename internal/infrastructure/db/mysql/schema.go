package mysql

import (
	"context"
	"database/sql"
)

// schema creates the tables the store reads and writes.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            CHAR(36)     NOT NULL PRIMARY KEY,
		email         VARCHAR(255) NOT NULL UNIQUE,
		username      VARCHAR(64)  NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		first_name    VARCHAR(100) NOT NULL DEFAULT '',
		last_name     VARCHAR(100) NOT NULL DEFAULT '',
		is_active     BOOLEAN      NOT NULL DEFAULT TRUE,
		created_at    DATETIME     NOT NULL,
		updated_at    DATETIME     NOT NULL,
		last_login    DATETIME     NULL
	)`,
	`CREATE TABLE IF NOT EXISTS accounts (
		id                CHAR(36)    NOT NULL PRIMARY KEY,
		user_id           CHAR(36)    NOT NULL UNIQUE,
		account_level     VARCHAR(32) NOT NULL,
		account_status    VARCHAR(32) NOT NULL,
		capabilities      TEXT        NOT NULL,
		status_reason     VARCHAR(255) NOT NULL DEFAULT '',
		status_changed_at DATETIME    NULL,
		status_changed_by VARCHAR(36) NOT NULL DEFAULT '',
		created_at        DATETIME    NOT NULL,
		updated_at        DATETIME    NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS admins (
		id          CHAR(36)    NOT NULL PRIMARY KEY,
		user_id     CHAR(36)    NOT NULL UNIQUE,
		role        VARCHAR(32) NOT NULL,
		permissions TEXT        NOT NULL,
		created_at  DATETIME    NOT NULL,
		updated_at  DATETIME    NOT NULL,
		created_by  VARCHAR(36) NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS token_records (
		id          CHAR(36)    NOT NULL PRIMARY KEY,
		user_id     CHAR(36)    NOT NULL,
		token_hash  CHAR(64)    NOT NULL UNIQUE,
		token_type  VARCHAR(16) NOT NULL,
		expires_at  DATETIME    NOT NULL,
		created_at  DATETIME    NOT NULL,
		revoked_at  DATETIME    NULL,
		device_info VARCHAR(255) NOT NULL DEFAULT '',
		INDEX idx_token_records_user (user_id),
		INDEX idx_token_records_expiry (expires_at)
	)`,
}

// Migrate applies the schema. Statements are idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return classify("migrate", err)
		}
	}
	return nil
}
