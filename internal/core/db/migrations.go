package db

import (
	"fmt"
)

// runMigrations applies database migrations for existing databases
func (db *DB) runMigrations() error {
	// Migration 1: kv.updated_at was added after the first release
	if err := db.migration001AddKVUpdatedAt(); err != nil {
		return fmt.Errorf("migration 001: %w", err)
	}

	return nil
}

// migration001AddKVUpdatedAt adds updated_at to kv tables created without it
func (db *DB) migration001AddKVUpdatedAt() error {
	var hasUpdatedAt bool
	err := db.conn.QueryRow(`
		SELECT COUNT(*) FROM pragma_table_info('kv')
		WHERE name='updated_at'
	`).Scan(&hasUpdatedAt)
	if err != nil {
		return err
	}

	if hasUpdatedAt {
		return nil
	}

	// SQLite rejects non-constant defaults in ALTER TABLE, so backfill instead
	if _, err := db.conn.Exec(`ALTER TABLE kv ADD COLUMN updated_at DATETIME;`); err != nil {
		return fmt.Errorf("add updated_at column: %w", err)
	}
	if _, err := db.conn.Exec(`UPDATE kv SET updated_at = CURRENT_TIMESTAMP WHERE updated_at IS NULL;`); err != nil {
		return fmt.Errorf("populate updated_at: %w", err)
	}

	return nil
}
