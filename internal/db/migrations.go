package db

import (
	"database/sql"
	"fmt"
)

const baseSchema = `
CREATE TABLE IF NOT EXISTS slots (
  id INTEGER PRIMARY KEY,
  session_id TEXT NOT NULL,
  key TEXT NOT NULL,
  value BLOB NOT NULL,
  expires_at TEXT NOT NULL,
  created_at TEXT NOT NULL,
  UNIQUE (session_id, key)
);
`

func Migrate(db *sql.DB) error {
	if _, err := db.Exec(baseSchema); err != nil {
		return fmt.Errorf("migrate base schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func runMigrations(db *sql.DB) error {
	// Migration 1: purge scans by expiry
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_slots_expires_at ON slots(expires_at)`); err != nil {
		return fmt.Errorf("create idx_slots_expires_at: %w", err)
	}

	return nil
}
