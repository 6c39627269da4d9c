package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Executor runs statements. *sqlx.DB, *sqlx.Tx and instrumented wrappers
// satisfy it.
type Executor interface {
	sqlx.ExtContext
}

// WithTx executes a function within a transaction using the RepeatableRead isolation level.
func WithTx(ctx context.Context, pool *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := pool.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("platform/db: commit tx: %w", err)
	}

	return nil
}

// Store owns the pool for the lifetime of the process.
type Store struct {
	pool     *sqlx.DB
	observer StatementObserver
}

// NewStore wraps pool. A nil observer disables statement instrumentation.
func NewStore(pool *sqlx.DB, observer StatementObserver) *Store {
	return &Store{pool: pool, observer: observer}
}

// DB exposes the underlying pool.
func (s *Store) DB() *sqlx.DB { return s.pool }

// Executor returns the pool as an Executor.
func (s *Store) Executor() Executor {
	return Instrument(s.pool, s.observer)
}

// WithTx runs fn inside a RepeatableRead transaction. Statements issued
// through the Executor passed to fn commit or roll back together.
func (s *Store) WithTx(ctx context.Context, fn func(context.Context, Executor) error) error {
	return WithTx(ctx, s.pool, func(tx *sqlx.Tx) error {
		return fn(ctx, Instrument(tx, s.observer))
	})
}

// Ping verifies connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.PingContext(ctx)
}

// Close drains the pool.
func (s *Store) Close() error {
	return s.pool.Close()
}
