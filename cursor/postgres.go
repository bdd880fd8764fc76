package cursor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/hedeqiang/anchor/position"
)

// Postgres is a Store backed by a PostgreSQL table, one row per key.
// The canonical pattern is one cursor table per consuming service.
type Postgres struct {
	db    *sql.DB
	table string
}

// NewPostgres connects to PostgreSQL with the given connection string
// and ensures the cursor table exists.
func NewPostgres(connStr string) (*Postgres, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("cursor: open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("cursor: ping postgres: %w", err)
	}
	p := &Postgres{db: db, table: "anchor_cursors"}
	if err := p.init(); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

// NewPostgresWithDB wraps an existing database handle. The caller keeps
// ownership of the handle; Close is a no-op on the connection.
func NewPostgresWithDB(db *sql.DB) (*Postgres, error) {
	p := &Postgres{db: db, table: "anchor_cursors"}
	if err := p.init(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Postgres) init() error {
	_, err := p.db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key      TEXT PRIMARY KEY,
			position TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, p.table))
	if err != nil {
		return fmt.Errorf("cursor: create table: %w", err)
	}
	return nil
}

// Load returns the last saved position for the key, or nil if none exists.
func (p *Postgres) Load(ctx context.Context, key string) (position.Position, error) {
	var enc string
	err := p.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT position FROM %s WHERE key = $1`, p.table), key,
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
func (p *Postgres) Save(ctx context.Context, key string, pos position.Position) error {
	_, err := p.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (key, position, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET position = EXCLUDED.position, updated_at = now()`, p.table),
		key, pos.Encode())
	if err != nil {
		return fmt.Errorf("cursor: save %q: %w", key, err)
	}
	return nil
}
