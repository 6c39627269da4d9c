package insert

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-ledger/internal/fetch"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/fanout"
	"github.com/odyssey-erp/odyssey-ledger/internal/query"
)

// ErrNoReturn indicates an insert with RETURNING produced no row.
var ErrNoReturn = errors.New("insert: no row returned")

// Service executes writes against the store. Every call is one statement.
type Service struct {
	ex     db.Executor
	logger *slog.Logger
}

// NewService constructs an insert service.
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

func (s *Service) bind(ctx context.Context, stmt query.Statement) (string, []any, error) {
	sqlText, args, err := stmt.Bind(s.ex)
	if err != nil {
		return "", nil, fmt.Errorf("insert: bind %s: %w", stmt.Table, err)
	}
	s.logger.DebugContext(ctx, "insert", slog.String("table", stmt.Table), slog.String("sql", sqlText), slog.Int("args", len(args)))
	return sqlText, args, nil
}

func (s *Service) exec(ctx context.Context, stmt query.Statement) (int64, error) {
	sqlText, args, err := s.bind(ctx, stmt)
	if err != nil {
		return 0, err
	}
	res, err := s.ex.ExecContext(ctx, sqlText, args...)
	if err != nil {
		return 0, fmt.Errorf("insert: exec %s: %w", stmt.Table, db.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("insert: rows affected %s: %w", stmt.Table, err)
	}
	return n, nil
}

func (s *Service) queryRows(ctx context.Context, stmt query.Statement) ([]fetch.Row, error) {
	sqlText, args, err := s.bind(ctx, stmt)
	if err != nil {
		return nil, err
	}
	rows, err := s.ex.QueryxContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("insert: query %s: %w", stmt.Table, db.Classify(err))
	}
	out, err := fetch.ScanRows(rows)
	if err != nil {
		return nil, db.Classify(err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoReturn, stmt.Table)
	}
	return out, nil
}

// Insert writes rec without returning anything.
func (s *Service) Insert(ctx context.Context, rec query.Record) error {
	stmt, err := query.BuildInsert(rec)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, stmt)
	return err
}

// InsertReturnID writes rec and returns its generated id.
func (s *Service) InsertReturnID(ctx context.Context, rec query.Record) (uuid.UUID, error) {
	table, err := query.TableOf(rec)
	if err != nil {
		return uuid.Nil, err
	}
	stmt, err := query.BuildInsert(rec, query.Col(table, "id"))
	if err != nil {
		return uuid.Nil, err
	}
	sqlText, args, err := s.bind(ctx, stmt)
	if err != nil {
		return uuid.Nil, err
	}
	var id uuid.UUID
	if err := s.ex.QueryRowxContext(ctx, sqlText, args...).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("%w: %s", ErrNoReturn, stmt.Table)
		}
		return uuid.Nil, fmt.Errorf("insert: %s: %w", stmt.Table, db.Classify(err))
	}
	return id, nil
}

// InsertReturnFields writes rec and returns the requested columns keyed as
// "table.column". The All sentinel is not accepted here.
func (s *Service) InsertReturnFields(ctx context.Context, rec query.Record, fields ...query.ColumnRef) (fetch.Row, error) {
	if len(fields) == 0 {
		return nil, query.Invalid(query.CodeEmptySelect, "no return fields requested")
	}
	for _, f := range fields {
		if f == query.All {
			return nil, query.Invalid(query.CodeAllNotAllowed, "use InsertReturnRecord for every field")
		}
	}
	stmt, err := query.BuildInsert(rec, fields...)
	if err != nil {
		return nil, err
	}
	rows, err := s.queryRows(ctx, stmt)
	if err != nil {
		return nil, err
	}
	out := make(fetch.Row, len(stmt.Columns))
	for _, c := range stmt.Columns {
		out[string(c)] = rows[0][c.Column()]
	}
	return out, nil
}

// InsertReturnRecord writes rec and returns the stored row as T.
func InsertReturnRecord[T query.Record](ctx context.Context, s *Service, rec T) (T, error) {
	var zero T
	stmt, err := query.BuildInsert(rec, query.All)
	if err != nil {
		return zero, err
	}
	sqlText, args, err := s.bind(ctx, stmt)
	if err != nil {
		return zero, err
	}
	rows, err := s.ex.QueryxContext(ctx, sqlText, args...)
	if err != nil {
		return zero, fmt.Errorf("insert: query %s: %w", stmt.Table, db.Classify(err))
	}
	recs, err := fetch.ScanRecords[T](rows)
	if err != nil {
		return zero, db.Classify(err)
	}
	if len(recs) == 0 {
		return zero, fmt.Errorf("%w: %s", ErrNoReturn, stmt.Table)
	}
	return recs[0], nil
}

// BulkInsert writes rows in a single statement and returns the affected row
// count.
func (s *Service) BulkInsert(ctx context.Context, rows []query.Record) (int64, error) {
	stmt, err := query.BuildBulkInsert(rows)
	if err != nil {
		return 0, err
	}
	return s.exec(ctx, stmt)
}

// InsertMany issues one insert per record concurrently. Any failure fails the
// batch; inserts already applied are not undone.
func (s *Service) InsertMany(ctx context.Context, recs []query.Record) error {
	if len(recs) == 0 {
		return query.Invalid(query.CodeEmptyBatch, "no records to insert")
	}
	_, err := fanout.Run(ctx, recs, func(ctx context.Context, rec query.Record) (struct{}, error) {
		return struct{}{}, s.Insert(ctx, rec)
	})
	return err
}

// InsertManyReturnIDs is InsertMany returning the generated ids in input order.
func (s *Service) InsertManyReturnIDs(ctx context.Context, recs []query.Record) ([]uuid.UUID, error) {
	if len(recs) == 0 {
		return nil, query.Invalid(query.CodeEmptyBatch, "no records to insert")
	}
	return fanout.Run(ctx, recs, s.InsertReturnID)
}

// InsertManyReturnRecords is InsertMany returning the stored rows in input
// order.
func InsertManyReturnRecords[T query.Record](ctx context.Context, s *Service, recs []T) ([]T, error) {
	if len(recs) == 0 {
		return nil, query.Invalid(query.CodeEmptyBatch, "no records to insert")
	}
	return fanout.Run(ctx, recs, func(ctx context.Context, rec T) (T, error) {
		return InsertReturnRecord(ctx, s, rec)
	})
}

// Update applies set to the rows of table matching where and returns the
// affected row count.
func (s *Service) Update(ctx context.Context, table query.Record, set map[string]any, where query.Where) (int64, error) {
	stmt, err := query.BuildUpdate(table, set, where)
	if err != nil {
		return 0, err
	}
	return s.exec(ctx, stmt)
}
