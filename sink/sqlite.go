package sink

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hedeqiang/anchor/event"
)

// SQLite is a keyed upsert Sink backed by a SQLite table. The primary
// key on the payload key makes Apply idempotent.
type SQLite struct {
	db    *sql.DB
	table string
}

// NewSQLite opens (or creates) a SQLite-backed sink at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sink: open sqlite: %w", err)
	}
	s := &SQLite{db: db, table: "anchor_payloads"}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) init() error {
	_, err := s.db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key  TEXT PRIMARY KEY,
			data BLOB NOT NULL
		)`, s.table))
	if err != nil {
		return fmt.Errorf("sink: create table: %w", err)
	}
	return nil
}

// Apply upserts the payload under its key.
func (s *SQLite) Apply(ctx context.Context, p event.Payload) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (key, data) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data`, s.table),
		p.Key, p.Data)
	if err != nil {
		return fmt.Errorf("sink: apply %q: %w", p.Key, err)
	}
	return nil
}

// Count returns the number of distinct payloads applied.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.table)).Scan(&n)
	return n, err
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}
