package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS credentials (
		id UUID PRIMARY KEY,
		login_id TEXT NOT NULL UNIQUE,
		secret TEXT NOT NULL,
		role TEXT NOT NULL,
		is_locked BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id UUID PRIMARY KEY,
		token_hash TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL,
		user_id TEXT NOT NULL,
		credential_id UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS site_settings (
		id SMALLINT PRIMARY KEY CHECK (id = 1),
		version BIGINT NOT NULL,
		form_disabled BOOLEAN NOT NULL,
		maintenance_lock_enabled BOOLEAN NOT NULL,
		maintenance_pin TEXT NOT NULL,
		master_reset_pin TEXT NOT NULL,
		admin_action_pin TEXT NOT NULL,
		admin_download_pin TEXT NOT NULL,
		fallback_openai_key TEXT NOT NULL DEFAULT '',
		fallback_cerebras_key TEXT NOT NULL DEFAULT '',
		lock_epoch BIGINT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`INSERT INTO site_settings (
		id, version, form_disabled, maintenance_lock_enabled,
		maintenance_pin, master_reset_pin, admin_action_pin, admin_download_pin,
		lock_epoch, updated_at
	) VALUES (1, 1, FALSE, FALSE, '', '', '', '', 0, NOW())
	ON CONFLICT (id) DO NOTHING`,
	`CREATE TABLE IF NOT EXISTS reports (
		id UUID PRIMARY KEY,
		report_type TEXT NOT NULL,
		content TEXT NOT NULL,
		analysis TEXT NOT NULL DEFAULT '',
		media_url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
}

// EnsureSchema creates the tables on first boot and seeds the singleton
// settings row.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
