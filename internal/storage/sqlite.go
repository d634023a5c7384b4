package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/planinsta/internal/apperr"
	"github.com/starford/planinsta/internal/checksum"
)

const slotSchemaSQL = `
CREATE TABLE IF NOT EXISTS slots (
	key        TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	revision   TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLite implements Provider on a single SQLite table. The revision check and
// the write happen in one statement, so swaps are atomic across processes.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the SQLite database and applies the schema.
func OpenSQLite(dsn string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("storage: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	if _, err := conn.Exec(slotSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: apply schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// Read returns the slot payload and its revision.
func (s *SQLite) Read(ctx context.Context, key string) ([]byte, string, error) {
	if err := validKey(key); err != nil {
		return nil, "", err
	}
	var (
		data []byte
		rev  string
	)
	err := s.conn.QueryRowContext(ctx, `SELECT data, revision FROM slots WHERE key = ?`, key).Scan(&data, &rev)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("storage: read %s: %w", key, err)
	}
	return data, rev, nil
}

// CompareAndSwap replaces the slot when its stored revision equals expected.
func (s *SQLite) CompareAndSwap(ctx context.Context, key, expected string, data []byte) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	rev := checksum.Revision(data)

	var (
		res sql.Result
		err error
	)
	if expected == "" {
		res, err = s.conn.ExecContext(ctx, `
			INSERT INTO slots (key, data, revision, updated_at)
			VALUES (?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET
				data       = excluded.data,
				revision   = excluded.revision,
				updated_at = excluded.updated_at
			WHERE slots.revision = ''
		`, key, data, rev)
	} else {
		res, err = s.conn.ExecContext(ctx, `
			UPDATE slots SET data = ?, revision = ?, updated_at = CURRENT_TIMESTAMP
			WHERE key = ? AND revision = ?
		`, data, rev, key, expected)
	}
	if err != nil {
		return "", fmt.Errorf("storage: write %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("storage: rows affected: %w", err)
	}
	if n == 0 {
		return "", fmt.Errorf("storage: %s revision changed: %w", key, apperr.ErrConflict)
	}
	return rev, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}
