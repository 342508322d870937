package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool sizing defaults. A tenant scope pins one pooled connection for
// its whole request (the operator setting lives on the connection), so
// the pool ceiling directly bounds concurrent scoped requests.
const (
	defaultMaxConnections = 25
	defaultConnLifetime   = time.Hour
	defaultConnIdleTime   = 30 * time.Minute
)

// DB is the shared pgx pool that tenant scopes draw connections from.
type DB struct {
	*pgxpool.Pool
}

// Config holds connection pool settings. Zero values fall back to the
// package defaults above.
type Config struct {
	URL             string
	MaxConnections  int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

func (c *Config) poolConfig() (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(c.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pc.MaxConns = c.MaxConnections
	if pc.MaxConns == 0 {
		pc.MaxConns = defaultMaxConnections
	}
	pc.MaxConnLifetime = c.MaxConnLifetime
	if pc.MaxConnLifetime == 0 {
		pc.MaxConnLifetime = defaultConnLifetime
	}
	pc.MaxConnIdleTime = c.MaxConnIdleTime
	if pc.MaxConnIdleTime == 0 {
		pc.MaxConnIdleTime = defaultConnIdleTime
	}
	return pc, nil
}

// NewConnection builds the pool and verifies the database is reachable
// before any scope is handed out.
func NewConnection(ctx context.Context, cfg *Config) (*DB, error) {
	poolConfig, err := cfg.poolConfig()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}
