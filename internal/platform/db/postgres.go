package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"
	// Registers the "postgres" database/sql driver.
	_ "github.com/lib/pq"
)

// Config describes the connection pool.
type Config struct {
	Driver      string
	DSN         string
	MaxConns    int
	ConnMaxIdle time.Duration
}

// Open creates a bounded PostgreSQL connection pool and verifies it.
func Open(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "pgx"
	}
	if driver != "pgx" && driver != "postgres" {
		return nil, fmt.Errorf("platform/db: unsupported driver %q", driver)
	}

	pool, err := sqlx.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("platform/db: open: %w", err)
	}
	if cfg.MaxConns > 0 {
		pool.SetMaxOpenConns(cfg.MaxConns)
		pool.SetMaxIdleConns(cfg.MaxConns)
	}
	if cfg.ConnMaxIdle > 0 {
		pool.SetConnMaxIdleTime(cfg.ConnMaxIdle)
	}

	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("platform/db: ping: %w", err)
	}

	return pool, nil
}
