package origin

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oriys/memo/internal/config"
)

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// Postgres reads values from a two-column (key, value) table.
type Postgres struct {
	db    rowQuerier
	query string
	close func()
}

// NewPostgres connects a pool and verifies it with a ping.
func NewPostgres(ctx context.Context, cfg config.PostgresConfig) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}

	p, err := newPostgresFromQuerier(pool, cfg.Table)
	if err != nil {
		pool.Close()
		return nil, err
	}
	p.close = pool.Close

	if err := p.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func newPostgresFromQuerier(db rowQuerier, table string) (*Postgres, error) {
	if table == "" {
		table = "memo_values"
	}
	if !config.ValidTableName(table) {
		return nil, fmt.Errorf("invalid postgres table name %q", table)
	}
	return &Postgres{
		db:    db,
		query: fmt.Sprintf("SELECT value FROM %s WHERE key = $1", table),
	}, nil
}

func (p *Postgres) Name() string { return "postgres" }

func (p *Postgres) Fetch(ctx context.Context, key string) ([]byte, error) {
	var value *[]byte
	err := p.db.QueryRow(ctx, p.query, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(key)
	}
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", key, err)
	}
	// A NULL value is treated like a missing row.
	if value == nil {
		return nil, notFound(key)
	}
	return *value, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	if p.db == nil {
		return fmt.Errorf("postgres not initialized")
	}
	return p.db.Ping(ctx)
}

func (p *Postgres) Close() error {
	if p.close != nil {
		p.close()
	}
	return nil
}
