package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/neilberkman/vigil/internal/core/errvalues"
)

// Well-known collection keys
const (
	KeySessions    = "prayer_sessions"
	KeyNovenas     = "active_novenas"
	KeyDeviceID    = "device_id"
	KeyStreakState = "streak_state"
)

// Get returns the raw value stored under key, or errvalues.ErrNotFound
func (db *DB) Get(key string) ([]byte, error) {
	var value string
	err := db.conn.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errvalues.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return []byte(value), nil
}

// Put replaces the value stored under key. The write is committed before
// Put returns.
func (db *DB) Put(key string, value []byte) error {
	_, err := db.conn.Exec(`
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, key, string(value))
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (db *DB) Delete(key string) error {
	if _, err := db.conn.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Quarantine copies a malformed payload aside so that a fallback to the
// default state does not destroy it.
func (db *DB) Quarantine(key string, value []byte, reason string) error {
	_, err := db.conn.Exec(`
		INSERT INTO kv_quarantine (key, value, reason)
		VALUES (?, ?, ?)
	`, key, string(value), reason)
	if err != nil {
		return fmt.Errorf("quarantine %s: %w", key, err)
	}
	return nil
}

// QuarantineCount returns how many payloads were set aside for key
func (db *DB) QuarantineCount(key string) (int, error) {
	var count int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM kv_quarantine WHERE key = ?`, key).Scan(&count)
	return count, err
}
