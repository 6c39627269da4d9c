package fetch

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/query"
)

// Row is one result row keyed by output alias ("table.column" or
// "FUNC.table.column").
type Row map[string]any

// Value returns the raw value of col.
func (r Row) Value(col query.ColumnRef) any {
	return r[string(col)]
}

// Has reports whether col is present and not NULL.
func (r Row) Has(col query.ColumnRef) bool {
	v, ok := r[string(col)]
	return ok && v != nil
}

func (r Row) lookup(col query.ColumnRef) (any, error) {
	v, ok := r[string(col)]
	if !ok {
		return nil, fmt.Errorf("fetch: column %q not in row", col)
	}
	if v == nil {
		return nil, fmt.Errorf("fetch: column %q is null", col)
	}
	return v, nil
}

// String returns col as text.
func (r Row) String(col query.ColumnRef) (string, error) {
	v, err := r.lookup(col)
	if err != nil {
		return "", err
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case fmt.Stringer:
		return t.String(), nil
	}
	return "", fmt.Errorf("fetch: column %q: unexpected %T", col, v)
}

// UUID returns col as a uuid.
func (r Row) UUID(col query.ColumnRef) (uuid.UUID, error) {
	v, err := r.lookup(col)
	if err != nil {
		return uuid.Nil, err
	}
	switch t := v.(type) {
	case uuid.UUID:
		return t, nil
	case [16]byte:
		return uuid.UUID(t), nil
	case string:
		return uuid.Parse(t)
	case []byte:
		if len(t) == 16 {
			return uuid.FromBytes(t)
		}
		return uuid.ParseBytes(t)
	}
	return uuid.Nil, fmt.Errorf("fetch: column %q: unexpected %T", col, v)
}

// NullUUID returns col as a uuid pointer, nil when NULL.
func (r Row) NullUUID(col query.ColumnRef) (*uuid.UUID, error) {
	if !r.Has(col) {
		if _, ok := r[string(col)]; !ok {
			return nil, fmt.Errorf("fetch: column %q not in row", col)
		}
		return nil, nil
	}
	id, err := r.UUID(col)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// Decimal returns col as a decimal. Drivers report NUMERIC as text or bytes.
func (r Row) Decimal(col query.ColumnRef) (decimal.Decimal, error) {
	v, err := r.lookup(col)
	if err != nil {
		return decimal.Zero, err
	}
	switch t := v.(type) {
	case decimal.Decimal:
		return t, nil
	case string:
		return decimal.NewFromString(t)
	case []byte:
		return decimal.NewFromString(string(t))
	case int64:
		return decimal.NewFromInt(t), nil
	case float64:
		return decimal.NewFromFloat(t), nil
	}
	return decimal.Zero, fmt.Errorf("fetch: column %q: unexpected %T", col, v)
}

// Time returns col as a time.
func (r Row) Time(col query.ColumnRef) (time.Time, error) {
	v, err := r.lookup(col)
	if err != nil {
		return time.Time{}, err
	}
	if t, ok := v.(time.Time); ok {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("fetch: column %q: unexpected %T", col, v)
}

// Bool returns col as a bool.
func (r Row) Bool(col query.ColumnRef) (bool, error) {
	v, err := r.lookup(col)
	if err != nil {
		return false, err
	}
	switch t := v.(type) {
	case bool:
		return t, nil
	case []byte:
		return strconv.ParseBool(string(t))
	case string:
		return strconv.ParseBool(t)
	}
	return false, fmt.Errorf("fetch: column %q: unexpected %T", col, v)
}

// Int64 returns col as an integer. COUNT aggregates arrive as int64.
func (r Row) Int64(col query.ColumnRef) (int64, error) {
	v, err := r.lookup(col)
	if err != nil {
		return 0, err
	}
	switch t := v.(type) {
	case int64:
		return t, nil
	case int32:
		return int64(t), nil
	case int:
		return int64(t), nil
	case []byte:
		return strconv.ParseInt(string(t), 10, 64)
	case string:
		return strconv.ParseInt(t, 10, 64)
	}
	return 0, fmt.Errorf("fetch: column %q: unexpected %T", col, v)
}
