package gallery

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const createKVTableSQL = `
CREATE TABLE IF NOT EXISTS kv (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// SQLiteKV implements KV backed by a SQLite database.
type SQLiteKV struct {
	db    *sql.DB
	quota int64
}

var _ KV = (*SQLiteKV)(nil)

// OpenSQLiteKV opens (or creates) a SQLite database at dbPath and ensures the
// schema exists. Use ":memory:" for a throwaway store.
func OpenSQLiteKV(dbPath string, quota int64) (*SQLiteKV, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec(createKVTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &SQLiteKV{db: db, quota: quota}, nil
}

// Get returns the value stored under key.
func (s *SQLiteKV) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts key. The quota check and the write share one transaction.
func (s *SQLiteKV) Set(key, value string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if s.quota > 0 {
		var used, oldSize int64
		err := tx.QueryRow(`
			SELECT
				COALESCE(SUM(length(CAST(key AS BLOB)) + length(CAST(value AS BLOB))), 0),
				COALESCE(SUM(CASE WHEN key = ? THEN length(CAST(key AS BLOB)) + length(CAST(value AS BLOB)) ELSE 0 END), 0)
			FROM kv`, key).Scan(&used, &oldSize)
		if err != nil {
			return fmt.Errorf("measure store: %w", err)
		}
		if !quotaAllows(s.quota, used, int(oldSize), len(key)+len(value)) {
			return ErrQuotaExceeded
		}
	}

	if _, err := tx.Exec(`INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)`, key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteKV) Close() error {
	return s.db.Close()
}
