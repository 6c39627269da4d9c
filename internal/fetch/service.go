package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/fanout"
	"github.com/odyssey-erp/odyssey-ledger/internal/query"
)

var (
	// ErrNoRecords signals that a read matched zero rows.
	ErrNoRecords = errors.New("fetch: no records found")
	// ErrMultipleRecords signals that a by-id read matched more than one row.
	ErrMultipleRecords = errors.New("fetch: more than one record found")
)

// Option adjusts a read before it is built.
type Option func(*query.Select)

// WithGroupBy groups the read by cols.
func WithGroupBy(cols ...query.ColumnRef) Option {
	return func(s *query.Select) { s.GroupBy = append(s.GroupBy, cols...) }
}

// WithOrderBy orders the read.
func WithOrderBy(orders ...query.Order) Option {
	return func(s *query.Select) { s.OrderBy = append(s.OrderBy, orders...) }
}

// WithLimit caps the number of rows.
func WithLimit(n int) Option {
	return func(s *query.Select) { s.Limit = n }
}

// Service executes reads against the store.
type Service struct {
	ex     db.Executor
	logger *slog.Logger
}

// NewService constructs a fetch service.
func NewService(ex db.Executor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{ex: ex, logger: logger}
}

// WithExecutor returns a copy bound to ex, typically a transaction.
func (s *Service) WithExecutor(ex db.Executor) *Service {
	cp := *s
	cp.ex = ex
	return &cp
}

// Select runs sel and returns its rows. Zero rows yield ErrNoRecords.
func (s *Service) Select(ctx context.Context, sel query.Select) (Result, error) {
	stmt, err := query.BuildSelect(sel)
	if err != nil {
		return Result{}, err
	}
	rows, err := s.run(ctx, stmt)
	if err != nil {
		return Result{}, err
	}
	out, err := ScanRows(rows)
	if err != nil {
		return Result{}, err
	}
	if len(out) == 0 {
		return Result{}, fmt.Errorf("%w: %s", ErrNoRecords, stmt.Table)
	}
	return Result{Rows: out, Columns: stmt.Columns, All: stmt.ReturnAll}, nil
}

func (s *Service) run(ctx context.Context, stmt query.Statement) (*sqlx.Rows, error) {
	sqlText, args, err := stmt.Bind(s.ex)
	if err != nil {
		return nil, fmt.Errorf("fetch: bind %s: %w", stmt.Table, err)
	}
	s.logger.DebugContext(ctx, "fetch", slog.String("table", stmt.Table), slog.String("sql", sqlText), slog.Int("args", len(args)))
	rows, err := s.ex.QueryxContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch: query %s: %w", stmt.Table, err)
	}
	return rows, nil
}

func buildSelect(cols []query.ColumnRef, from query.Record, joins []query.Join, where query.Where, opts []Option) query.Select {
	sel := query.Select{Columns: cols, From: from, Where: where}
	if len(joins) > 0 {
		sel.JoinTables, sel.JoinOn = query.Joins(joins...)
	}
	for _, opt := range opts {
		opt(&sel)
	}
	return sel
}

// FetchAll reads cols from every row of from.
func (s *Service) FetchAll(ctx context.Context, cols []query.ColumnRef, from query.Record, opts ...Option) (Result, error) {
	return s.Select(ctx, buildSelect(cols, from, nil, nil, opts))
}

// FetchWhere reads cols from the rows of from matching where.
func (s *Service) FetchWhere(ctx context.Context, cols []query.ColumnRef, from query.Record, where query.Where, opts ...Option) (Result, error) {
	return s.Select(ctx, buildSelect(cols, from, nil, where, opts))
}

// FetchJoinWhere reads cols across from and joins, applied in order.
func (s *Service) FetchJoinWhere(ctx context.Context, cols []query.ColumnRef, from query.Record, joins []query.Join, where query.Where, opts ...Option) (Result, error) {
	return s.Select(ctx, buildSelect(cols, from, joins, where, opts))
}

// FetchWhereByID reads the single row of from whose id is id.
func (s *Service) FetchWhereByID(ctx context.Context, cols []query.ColumnRef, from query.Record, id uuid.UUID) (Result, error) {
	res, err := s.FetchWhere(ctx, cols, from, idFilter(from, id))
	if err != nil {
		return Result{}, err
	}
	if res.Len() > 1 {
		return Result{}, fmt.Errorf("%w: %s %s", ErrMultipleRecords, query.Col(from.TableName(), "id"), id)
	}
	return res, nil
}

// FetchWhereMany runs one read per filter concurrently. Results are paired
// with their filter by index; any failure fails the whole batch.
func (s *Service) FetchWhereMany(ctx context.Context, cols []query.ColumnRef, from query.Record, wheres []query.Where, opts ...Option) ([]Result, error) {
	if len(wheres) == 0 {
		return nil, query.Invalid(query.CodeEmptyBatch, "no filters to fetch")
	}
	return fanout.Run(ctx, wheres, func(ctx context.Context, where query.Where) (Result, error) {
		return s.FetchWhere(ctx, cols, from, where, opts...)
	})
}

// FetchWhereByIDs runs FetchWhereByID for every id concurrently.
func (s *Service) FetchWhereByIDs(ctx context.Context, cols []query.ColumnRef, from query.Record, ids []uuid.UUID) ([]Result, error) {
	if len(ids) == 0 {
		return nil, query.Invalid(query.CodeEmptyBatch, "no ids to fetch")
	}
	return fanout.Run(ctx, ids, func(ctx context.Context, id uuid.UUID) (Result, error) {
		return s.FetchWhereByID(ctx, cols, from, id)
	})
}

func idFilter(from query.Record, id uuid.UUID) query.Where {
	if from == nil {
		return nil
	}
	return query.Where{query.Col(from.TableName(), "id"): id}
}

// FetchRecords reads every field of T for the rows matching where.
func FetchRecords[T query.Record](ctx context.Context, s *Service, where query.Where, opts ...Option) ([]T, error) {
	var zero T
	sel := buildSelect([]query.ColumnRef{query.All}, zero, nil, where, opts)
	return selectRecords[T](ctx, s, sel)
}

// FetchRecordsJoin reads every field of T for the rows of T's table joined
// with joins and matching where.
func FetchRecordsJoin[T query.Record](ctx context.Context, s *Service, joins []query.Join, where query.Where, opts ...Option) ([]T, error) {
	var zero T
	sel := buildSelect([]query.ColumnRef{query.All}, zero, joins, where, opts)
	return selectRecords[T](ctx, s, sel)
}

func selectRecords[T query.Record](ctx context.Context, s *Service, sel query.Select) ([]T, error) {
	stmt, err := query.BuildSelect(sel)
	if err != nil {
		return nil, err
	}
	rows, err := s.run(ctx, stmt)
	if err != nil {
		return nil, err
	}
	out, err := ScanRecords[T](rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoRecords, stmt.Table)
	}
	return out, nil
}

// FetchRecordByID reads the single T whose id is id.
func FetchRecordByID[T query.Record](ctx context.Context, s *Service, id uuid.UUID) (T, error) {
	var zero T
	recs, err := FetchRecords[T](ctx, s, idFilter(zero, id))
	if err != nil {
		return zero, err
	}
	if len(recs) > 1 {
		return zero, fmt.Errorf("%w: %s %s", ErrMultipleRecords, zero.TableName(), id)
	}
	return recs[0], nil
}

// FetchRecordsByIDs reads one T per id concurrently, in id order.
func FetchRecordsByIDs[T query.Record](ctx context.Context, s *Service, ids []uuid.UUID) ([]T, error) {
	if len(ids) == 0 {
		return nil, query.Invalid(query.CodeEmptyBatch, "no ids to fetch")
	}
	return fanout.Run(ctx, ids, func(ctx context.Context, id uuid.UUID) (T, error) {
		return FetchRecordByID[T](ctx, s, id)
	})
}
