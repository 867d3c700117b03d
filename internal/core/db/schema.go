package db

func (db *DB) initSchema() error {
	schema := `
	-- One JSON document per collection key
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Payloads that failed validation on load, kept for manual recovery
	CREATE TABLE IF NOT EXISTS kv_quarantine (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		reason TEXT,
		quarantined_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_kv_quarantine_key ON kv_quarantine(key);

	-- Files already imported, by content hash
	CREATE TABLE IF NOT EXISTS import_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_path TEXT NOT NULL,
		file_hash TEXT NOT NULL UNIQUE,
		sessions_imported INTEGER NOT NULL DEFAULT 0,
		imported_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := db.conn.Exec(schema)
	return err
}
