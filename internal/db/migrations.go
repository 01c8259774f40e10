package db

import (
	"database/sql"
	"fmt"
)

// migrations is an ordered list of SQL statements to run.
// The DDL sticks to types both SQLite and PostgreSQL accept. Timestamps
// are written in UTC by the stores.
var migrations = []string{
	// Device-local key/value slots for the travel state.
	`CREATE TABLE IF NOT EXISTS local_state (
		key        TEXT      PRIMARY KEY,
		value      TEXT      NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT      PRIMARY KEY,
		email         TEXT      NOT NULL UNIQUE,
		password_hash TEXT      NOT NULL DEFAULT '',
		confirmed     INTEGER   NOT NULL DEFAULT 0,
		created_at    TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		token_hash TEXT      PRIMARY KEY,
		user_id    TEXT      NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		expires_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS auth_tokens (
		token      TEXT      PRIMARY KEY,
		user_id    TEXT      NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		expires_at TIMESTAMP NOT NULL,
		used       INTEGER   NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS passkey_credentials (
		id              TEXT      PRIMARY KEY,
		user_id         TEXT      NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name            TEXT      NOT NULL DEFAULT '',
		credential_json TEXT      NOT NULL,
		created_at      TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	// One record per account, fully overwritten on every upsert.
	`CREATE TABLE IF NOT EXISTS travel_data (
		user_id       TEXT      PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		countries     TEXT      NOT NULL DEFAULT '[]',
		cities        TEXT      NOT NULL DEFAULT '{}',
		recent_visits TEXT      NOT NULL DEFAULT '[]',
		updated_at    TIMESTAMP NOT NULL
	)`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
