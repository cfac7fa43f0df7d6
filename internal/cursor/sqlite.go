package cursor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// cursorScope keys the single row; one engine instance owns one cursor.
const cursorScope = "telegram"

// SQLite persists the cursor across restarts in a single-row table.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// NewSQLite opens (or creates) a SQLite-backed cursor store at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cursor database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS cursor (
		scope TEXT PRIMARY KEY,
		next_offset INTEGER NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize cursor schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Load returns the persisted offset, or 0 when none has been saved yet.
func (s *SQLite) Load(ctx context.Context) (int64, error) {
	var offset int64
	err := s.db.QueryRowContext(ctx,
		`SELECT next_offset FROM cursor WHERE scope = ?`, cursorScope).Scan(&offset)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load cursor: %w", err)
	}
	return offset, nil
}

// Save upserts the offset.
func (s *SQLite) Save(ctx context.Context, offset int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cursor (scope, next_offset, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(scope) DO UPDATE SET next_offset = excluded.next_offset, updated_at = excluded.updated_at`,
		cursorScope, offset, time.Now())
	if err != nil {
		return fmt.Errorf("save cursor: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
