package query

import (
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
)

// All is the "all columns" sentinel. It is accepted as the only select column
// and as the only insert return column.
const All = "*"

// ColumnRef is either a plain reference "table.column" or an aggregate
// reference "FUNC.table.column".
type ColumnRef string

// AggFunc enumerates the aggregate functions a ColumnRef may carry.
type AggFunc string

const (
	AVG   AggFunc = "AVG"
	COUNT AggFunc = "COUNT"
	MIN   AggFunc = "MIN"
	MAX   AggFunc = "MAX"
	SUM   AggFunc = "SUM"
)

var aggFuncs = map[AggFunc]struct{}{
	AVG:   {},
	COUNT: {},
	MIN:   {},
	MAX:   {},
	SUM:   {},
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Col builds a plain column reference.
func Col(table, column string) ColumnRef {
	return ColumnRef(table + "." + column)
}

// Agg builds an aggregate column reference such as "SUM.ledger.amount".
func Agg(fn AggFunc, col ColumnRef) ColumnRef {
	return ColumnRef(string(fn) + "." + string(col))
}

// IsAggFunc reports whether fn is one of the recognised aggregate functions.
func IsAggFunc(fn string) bool {
	_, ok := aggFuncs[AggFunc(fn)]
	return ok
}

func (c ColumnRef) parts() []string {
	return strings.Split(string(c), ".")
}

// IsPlain reports whether c has the shape table.column with safe identifiers.
func (c ColumnRef) IsPlain() bool {
	p := c.parts()
	return len(p) == 2 && validIdent(p[0]) && validIdent(p[1])
}

// IsAggregate reports whether c has the shape FUNC.table.column with a
// recognised function.
func (c ColumnRef) IsAggregate() bool {
	p := c.parts()
	return len(p) == 3 && IsAggFunc(p[0]) && validIdent(p[1]) && validIdent(p[2])
}

// Table returns the table part of a plain or aggregate reference, or "" when
// c has no table part.
func (c ColumnRef) Table() string {
	p := c.parts()
	if len(p) < 2 {
		return ""
	}
	return p[len(p)-2]
}

// Column returns the column part of a plain or aggregate reference.
func (c ColumnRef) Column() string {
	p := c.parts()
	return p[len(p)-1]
}

// Func returns the aggregate function of c, or "" for a plain reference.
func (c ColumnRef) Func() AggFunc {
	if !c.IsAggregate() {
		return ""
	}
	return AggFunc(c.parts()[0])
}

// Base strips the aggregate function, returning table.column. A reference
// without a table part is returned unchanged.
func (c ColumnRef) Base() ColumnRef {
	if len(c.parts()) < 2 {
		return c
	}
	return Col(c.Table(), c.Column())
}

func (c ColumnRef) String() string { return string(c) }

func validIdent(s string) bool {
	return identPattern.MatchString(s)
}

func quote(parts ...string) string {
	return pgx.Identifier(parts).Sanitize()
}

// qualified renders "table"."column".
func (c ColumnRef) qualified() string {
	return quote(c.Table(), c.Column())
}

// alias renders the output alias "table.column" or "FUNC.table.column".
func (c ColumnRef) alias() string {
	return quote(string(c))
}

// expr renders the column as it appears in a select list or an ordering.
func (c ColumnRef) expr() string {
	if c.IsAggregate() {
		return string(c.Func()) + "(" + c.qualified() + ")"
	}
	return c.qualified()
}

func checkSelectable(c ColumnRef, code Code) error {
	if c.IsPlain() || c.IsAggregate() {
		return nil
	}
	if len(c.parts()) == 3 {
		return Invalid(CodeBadAggregate, "%q: expecting 'AGG.table.col' with AGG in AVG, COUNT, MIN, MAX, SUM", c)
	}
	return Invalid(code, "%q: expecting 'table.col' or 'agg.table.col'", c)
}
