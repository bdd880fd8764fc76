package cursor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hedeqiang/anchor/position"
)

// SQLite is a Store backed by a SQLite database. Each key occupies a
// single row; Save upserts it inside an implicit transaction, so an
// interrupted write never clobbers the previous value.
type SQLite struct {
	db    *sql.DB
	table string
}

// NewSQLite opens (or creates) a SQLite-backed store at path.
// Use ":memory:" for an ephemeral store in tests.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("cursor: open sqlite: %w", err)
	}
	s := &SQLite{db: db, table: "anchor_cursors"}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) init() error {
	_, err := s.db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key      TEXT PRIMARY KEY,
			position TEXT NOT NULL
		)`, s.table))
	if err != nil {
		return fmt.Errorf("cursor: create table: %w", err)
	}
	return nil
}

// Load returns the last saved position for the key, or nil if none exists.
func (s *SQLite) Load(ctx context.Context, key string) (position.Position, error) {
	var enc string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT position FROM %s WHERE key = ?`, s.table), key,
	).Scan(&enc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cursor: load %q: %w", key, err)
	}
	pos, err := position.Parse(enc)
	if err != nil {
		return nil, fmt.Errorf("cursor: stored position for %q: %w", key, err)
	}
	return pos, nil
}

// Save upserts the position for the key.
func (s *SQLite) Save(ctx context.Context, key string, pos position.Position) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (key, position) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET position = excluded.position`, s.table),
		key, pos.Encode())
	if err != nil {
		return fmt.Errorf("cursor: save %q: %w", key, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}
