package fetch

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"

	"github.com/odyssey-erp/odyssey-ledger/internal/query"
)

// ScanRows drains rows into column-keyed maps and closes rows.
func ScanRows(rows *sqlx.Rows) ([]Row, error) {
	defer rows.Close()
	var out []Row
	for rows.Next() {
		m := make(map[string]any)
		if err := rows.MapScan(m); err != nil {
			return nil, fmt.Errorf("fetch: scan row: %w", err)
		}
		out = append(out, Row(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch: rows: %w", err)
	}
	return out, nil
}

// ScanRecords drains rows into T and closes rows. Column names are matched to
// T's db tags after stripping any "table." prefix; unmatched columns are
// discarded.
func ScanRecords[T any](rows *sqlx.Rows) ([]T, error) {
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("fetch: columns: %w", err)
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = StripTable(c)
	}

	var zero T
	t := reflect.TypeOf(zero)
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("fetch: cannot scan into %T", zero)
	}
	traversals := query.Mapper().TraversalsByName(t, names)

	var out []T
	for rows.Next() {
		var rec T
		v := reflect.ValueOf(&rec).Elem()
		targets := make([]any, len(cols))
		for i, trav := range traversals {
			if len(trav) == 0 {
				targets[i] = new(any)
				continue
			}
			targets[i] = reflectx.FieldByIndexes(v, trav).Addr().Interface()
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("fetch: scan %T: %w", zero, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch: rows: %w", err)
	}
	return out, nil
}

// StripTable drops the leading "table." of an output alias.
func StripTable(alias string) string {
	if i := strings.LastIndexByte(alias, '.'); i >= 0 {
		return alias[i+1:]
	}
	return alias
}
