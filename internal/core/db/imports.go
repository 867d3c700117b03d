package db

import "fmt"

// WasImported reports whether a file with this content hash was imported before
func (db *DB) WasImported(hash string) (bool, error) {
	var exists bool
	err := db.conn.QueryRow("SELECT EXISTS(SELECT 1 FROM import_log WHERE file_hash = ?)", hash).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check import log: %w", err)
	}
	return exists, nil
}

// RecordImport remembers an imported file so it is skipped next time
func (db *DB) RecordImport(path, hash string, sessions int) error {
	_, err := db.conn.Exec(`
		INSERT INTO import_log (file_path, file_hash, sessions_imported)
		VALUES (?, ?, ?)
		ON CONFLICT(file_hash) DO NOTHING
	`, path, hash, sessions)
	if err != nil {
		return fmt.Errorf("failed to record import: %w", err)
	}
	return nil
}
