package fetch

import (
	"fmt"

	"github.com/odyssey-erp/odyssey-ledger/internal/query"
)

// Result holds the rows of one read in store order along with the columns
// that were selected.
type Result struct {
	Rows    []Row
	Columns []query.ColumnRef
	// All is set when every field of the table was selected.
	All bool
}

// Len returns the number of rows.
func (r Result) Len() int { return len(r.Rows) }

// First returns the first row.
func (r Result) First() Row {
	if len(r.Rows) == 0 {
		return nil
	}
	return r.Rows[0]
}

func (r Result) singleColumn() bool {
	return !r.All && len(r.Columns) == 1
}

// Flatten unwraps single-column results. One row of one column yields the
// scalar; several rows of one column yield the scalars in row order; a single
// row of several columns yields that Row; anything else yields the rows.
func (r Result) Flatten() any {
	switch {
	case r.singleColumn() && len(r.Rows) == 1:
		return r.Rows[0].Value(r.Columns[0])
	case r.singleColumn() && len(r.Rows) > 1:
		return r.Scalars()
	case len(r.Rows) == 1:
		return r.Rows[0]
	}
	return r.Rows
}

// Scalar returns the single value of a one-row one-column result.
func (r Result) Scalar() (any, error) {
	if !r.singleColumn() || len(r.Rows) != 1 {
		return nil, fmt.Errorf("fetch: scalar needs one row of one column, have %d rows of %d columns", len(r.Rows), len(r.Columns))
	}
	return r.Rows[0].Value(r.Columns[0]), nil
}

// Scalars returns the first selected column of every row in row order.
func (r Result) Scalars() []any {
	if len(r.Columns) == 0 {
		return nil
	}
	out := make([]any, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = row.Value(r.Columns[0])
	}
	return out
}
