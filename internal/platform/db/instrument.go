package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// StatementObserver records the outcome of every executed statement.
type StatementObserver interface {
	ObserveStatement(op string, elapsed time.Duration, err error)
}

type instrumented struct {
	Executor
	observer StatementObserver
}

// Instrument reports every statement run through ex to observer. A nil
// observer returns ex unchanged.
func Instrument(ex Executor, observer StatementObserver) Executor {
	if observer == nil {
		return ex
	}
	return &instrumented{Executor: ex, observer: observer}
}

// Operation returns the leading keyword of a statement in upper case.
func Operation(query string) string {
	query = strings.TrimSpace(query)
	if i := strings.IndexAny(query, " \n\t("); i > 0 {
		query = query[:i]
	}
	return strings.ToUpper(query)
}

func (i *instrumented) observe(query string, start time.Time, err error) {
	i.observer.ObserveStatement(Operation(query), time.Since(start), err)
}

func (i *instrumented) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := i.Executor.QueryContext(ctx, query, args...)
	i.observe(query, start, err)
	return rows, err
}

func (i *instrumented) QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	start := time.Now()
	rows, err := i.Executor.QueryxContext(ctx, query, args...)
	i.observe(query, start, err)
	return rows, err
}

func (i *instrumented) QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	start := time.Now()
	row := i.Executor.QueryRowxContext(ctx, query, args...)
	i.observe(query, start, row.Err())
	return row
}

func (i *instrumented) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	res, err := i.Executor.ExecContext(ctx, query, args...)
	i.observe(query, start, err)
	return res, err
}
