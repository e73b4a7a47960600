package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
// Note: WAL mode is configured in db.go's New function.
func InitSchema(db *sql.DB) error {
	return createUserSettingsTable(db)
}

// createUserSettingsTable creates the per-user key/value settings table.
// Values are JSON documents so a key can hold anything from a string to
// a list, and new setting kinds need no migration.
func createUserSettingsTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS user_settings (
		user_id INTEGER NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (user_id, key)
	);
	CREATE INDEX IF NOT EXISTS idx_user_settings_updated_at ON user_settings(updated_at);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create user_settings table: %w", err)
	}

	return nil
}
