package database

import (
	"context"
	"database/sql"
	"fmt"
)

type migration struct {
	version int
	name    string
	sql     string
}

// migrations are applied in order; never edit an applied entry, append a new one.
var migrations = []migration{
	{
		version: 1,
		name:    "users",
		sql: `
CREATE EXTENSION IF NOT EXISTS citext;
CREATE TABLE IF NOT EXISTS users (
  id BIGSERIAL PRIMARY KEY,
  username TEXT UNIQUE,
  email CITEXT UNIQUE,
  password_hash TEXT,
  password_algo TEXT,
  status TEXT NOT NULL DEFAULT 'active',
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
`,
	},
	{
		version: 2,
		name:    "fasting_sessions",
		sql: `
CREATE TABLE IF NOT EXISTS fasting_sessions (
  id varchar(32) PRIMARY KEY,
  user_id BIGINT NOT NULL REFERENCES users(id),
  fasting_type TEXT NOT NULL,
  start_time TIMESTAMPTZ NOT NULL,
  planned_end_time TIMESTAMPTZ NOT NULL,
  actual_end_time TIMESTAMPTZ,
  status TEXT NOT NULL DEFAULT 'active',
  current_phase TEXT NOT NULL DEFAULT 'preparation',
  start_glucose DOUBLE PRECISION,
  end_glucose DOUBLE PRECISION,
  start_weight DOUBLE PRECISION,
  end_weight DOUBLE PRECISION,
  start_energy INT,
  end_energy INT,
  notes TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_fasting_sessions_user_start ON fasting_sessions(user_id, start_time DESC);
CREATE INDEX IF NOT EXISTS idx_fasting_sessions_user_status ON fasting_sessions(user_id, status);
`,
	},
	{
		version: 3,
		name:    "fasting_logs",
		sql: `
CREATE TABLE IF NOT EXISTS fasting_logs (
  id varchar(32) PRIMARY KEY,
  session_id varchar(32) NOT NULL REFERENCES fasting_sessions(id),
  user_id BIGINT NOT NULL REFERENCES users(id),
  logged_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  log_type TEXT NOT NULL,
  value JSONB NOT NULL DEFAULT '{}'::jsonb,
  ai_response TEXT
);
CREATE INDEX IF NOT EXISTS idx_fasting_logs_session ON fasting_logs(session_id, logged_at DESC);
CREATE INDEX IF NOT EXISTS idx_fasting_logs_user ON fasting_logs(user_id, logged_at DESC);
`,
	},
	{
		version: 4,
		name:    "fasting_achievements",
		sql: `
CREATE TABLE IF NOT EXISTS fasting_achievements (
  id varchar(32) PRIMARY KEY,
  user_id BIGINT NOT NULL REFERENCES users(id),
  achievement_type TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  earned_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  UNIQUE (user_id, achievement_type)
);
`,
	},
}

// Migrate creates schema_migrations if needed and applies pending migrations,
// each in its own transaction.
func Migrate(ctx context.Context, db *sql.DB) error {
	const bootstrap = `CREATE TABLE IF NOT EXISTS schema_migrations (
  version INT PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	if _, err := db.ExecContext(ctx, bootstrap); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := map[int]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("query schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scan schema_migrations: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate schema_migrations: %w", err)
	}
	rows.Close()

	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		if err := apply(ctx, db, m); err != nil {
			return err
		}
	}
	return nil
}

func apply(ctx context.Context, db *sql.DB, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", m.version, err)
	}
	if _, err := tx.ExecContext(ctx, m.sql); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("apply migration %d (%s): %w", m.version, m.name, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.version, m.name); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration %d: %w", m.version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", m.version, err)
	}
	return nil
}
