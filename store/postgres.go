package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	customerrors "ivr-report/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Postgres keeps values in a two-column table (key text, value jsonb).
type Postgres struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgres connects, pings and creates the table if it is missing.
func NewPostgres(ctx context.Context, url, table string) (*Postgres, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	create := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		key        TEXT PRIMARY KEY,
		value      JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, table)
	if _, err := pool.Exec(ctx, create); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create table %s: %w", table, err)
	}

	return &Postgres{pool: pool, table: table}, nil
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	query := fmt.Sprintf(`SELECT value::text FROM %s WHERE key = $1`, p.table)
	err := p.pool.QueryRow(ctx, query, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", customerrors.ErrKeyNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", key, err)
	}
	return []byte(value), nil
}

func (p *Postgres) Put(ctx context.Context, key string, value []byte) error {
	query := fmt.Sprintf(`INSERT INTO %s (key, value, updated_at) VALUES ($1, $2::jsonb, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`, p.table)
	if _, err := p.pool.Exec(ctx, query, key, string(value)); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
