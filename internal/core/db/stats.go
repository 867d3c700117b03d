package db

import (
	"database/sql"
	"time"
)

// Stats represents database statistics
type Stats struct {
	Keys          int
	Quarantined   int
	LastWrite     time.Time
	SizeOnDiskKiB int64
}

// GetStats returns storage statistics for the stats command
func (db *DB) GetStats() (*Stats, error) {
	stats := &Stats{}

	err := db.conn.QueryRow("SELECT COUNT(*) FROM kv").Scan(&stats.Keys)
	if err != nil {
		return nil, err
	}

	err = db.conn.QueryRow("SELECT COUNT(*) FROM kv_quarantine").Scan(&stats.Quarantined)
	if err != nil {
		return nil, err
	}

	var lastWrite sql.NullString
	err = db.conn.QueryRow("SELECT MAX(updated_at) FROM kv").Scan(&lastWrite)
	if err != nil {
		return nil, err
	}
	if lastWrite.Valid {
		stats.LastWrite = parseTimestamp(lastWrite.String)
	}

	var pageCount, pageSize int64
	if err := db.conn.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return nil, err
	}
	stats.SizeOnDiskKiB = pageCount * pageSize / 1024

	return stats, nil
}

// parseTimestamp attempts to parse timestamps from the formats SQLite hands back
func parseTimestamp(s string) time.Time {
	formats := []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999 -0700 MST",
		"2006-01-02 15:04:05",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}

	return time.Time{}
}
