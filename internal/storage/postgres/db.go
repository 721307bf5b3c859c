// Package postgres provides shared-deployment persistence. The local
// JSON and SQLite stores cover single-machine use; this backend is for
// hubs serving many users from one database.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB wraps a sql.DB connection to PostgreSQL.
type DB struct {
	*sql.DB
}

// Open connects to PostgreSQL using the pgx driver.
func Open(ctx context.Context, databaseURL string) (*DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &DB{DB: db}, nil
}

// EnsureSchema creates the tables this backend needs.
func (db *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            UUID PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			name          TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS progress (
			user_id            TEXT PRIMARY KEY,
			schema_version     INTEGER NOT NULL DEFAULT 1,
			problems_solved    INTEGER[] NOT NULL DEFAULT '{}',
			problems_attempted INTEGER[] NOT NULL DEFAULT '{}',
			current_streak     INTEGER NOT NULL DEFAULT 0,
			longest_streak     INTEGER NOT NULL DEFAULT 0,
			total_time_seconds INTEGER NOT NULL DEFAULT 0,
			accuracy           DOUBLE PRECISION NOT NULL DEFAULT 0,
			points             INTEGER NOT NULL DEFAULT 0,
			level              TEXT NOT NULL DEFAULT 'Bronze',
			achievements       TEXT[] NOT NULL DEFAULT '{}',
			weekly_goal        INTEGER NOT NULL DEFAULT 15,
			weekly_progress    INTEGER NOT NULL DEFAULT 0,
			last_activity_date TIMESTAMPTZ,
			learning_paths     JSONB,
			recent_activity    JSONB,
			created_at         TIMESTAMPTZ NOT NULL,
			updated_at         TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_progress_points ON progress(points DESC)`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
