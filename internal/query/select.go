package query

import (
	"strconv"
	"strings"
)

// Direction orders a column ascending or descending.
type Direction string

const (
	ASC  Direction = "ASC"
	DESC Direction = "DESC"
)

// Order pairs a column with a direction.
type Order struct {
	Column ColumnRef
	Dir    Direction
}

func Asc(c ColumnRef) Order  { return Order{Column: c, Dir: ASC} }
func Desc(c ColumnRef) Order { return Order{Column: c, Dir: DESC} }

// JoinOn is the equality condition of one inner join.
type JoinOn struct {
	Left  ColumnRef
	Right ColumnRef
}

// On builds a JoinOn.
func On(left, right ColumnRef) JoinOn { return JoinOn{Left: left, Right: right} }

// Join is one (target table, left, right) triple.
type Join struct {
	Table Record
	On    JoinOn
}

// InnerJoin builds a Join of table on left = right.
func InnerJoin(table Record, left, right ColumnRef) Join {
	return Join{Table: table, On: On(left, right)}
}

// Joins splits joins into the parallel lists Select expects.
func Joins(joins ...Join) ([]Record, []JoinOn) {
	tables := make([]Record, len(joins))
	ons := make([]JoinOn, len(joins))
	for i, j := range joins {
		tables[i], ons[i] = j.Table, j.On
	}
	return tables, ons
}

// Select describes a read. JoinTables and JoinOn are parallel lists applied in
// order. A Limit of zero means no limit.
type Select struct {
	Columns    []ColumnRef
	From       Record
	JoinTables []Record
	JoinOn     []JoinOn
	Where      Where
	GroupBy    []ColumnRef
	OrderBy    []Order
	Limit      int
}

// Statement is the rendered form of a builder input. Named statements carry
// :name bindings in Named; bulk statements carry ? placeholders in Args.
type Statement struct {
	SQL     string
	Named   map[string]any
	Args    []any
	Table   string
	Columns []ColumnRef
	// ReturnAll is set when the "all columns" sentinel was expanded.
	ReturnAll bool
}

// Binder compiles a statement into driver-specific placeholders. Both
// *sqlx.DB and *sqlx.Tx satisfy it.
type Binder interface {
	BindNamed(query string, arg interface{}) (string, []interface{}, error)
	Rebind(query string) string
}

// Bind renders the statement for the executor's placeholder style.
func (s Statement) Bind(b Binder) (string, []any, error) {
	if s.Named != nil {
		return b.BindNamed(s.SQL, s.Named)
	}
	return b.Rebind(s.SQL), s.Args, nil
}

// BuildSelect validates sel and renders it.
func BuildSelect(sel Select) (Statement, error) {
	table, err := TableOf(sel.From)
	if err != nil {
		return Statement{}, err
	}
	if len(sel.Columns) == 0 {
		return Statement{}, Invalid(CodeEmptySelect, "no columns selected")
	}

	cols := sel.Columns
	all := false
	if len(cols) == 1 && cols[0] == All {
		names, err := FieldNames(sel.From)
		if err != nil {
			return Statement{}, err
		}
		cols = make([]ColumnRef, len(names))
		for i, n := range names {
			cols[i] = Col(table, n)
		}
		all = true
	}
	for _, c := range cols {
		if err := checkSelectable(c, CodeBadColumn); err != nil {
			return Statement{}, err
		}
	}

	if len(sel.JoinTables) != len(sel.JoinOn) {
		return Statement{}, Invalid(CodeJoinArity, "%d join tables for %d join conditions", len(sel.JoinTables), len(sel.JoinOn))
	}
	joinNames := make([]string, len(sel.JoinTables))
	for i, jt := range sel.JoinTables {
		if joinNames[i], err = TableOf(jt); err != nil {
			return Statement{}, err
		}
		on := sel.JoinOn[i]
		if !on.Left.IsPlain() || !on.Right.IsPlain() {
			return Statement{}, Invalid(CodeBadColumn, "join %d: expecting 'table.col' on both sides", i)
		}
	}

	clauses, err := sel.Where.normalize()
	if err != nil {
		return Statement{}, err
	}
	for _, g := range sel.GroupBy {
		if err := checkSelectable(g, CodeBadColumn); err != nil {
			return Statement{}, err
		}
	}
	for _, o := range sel.OrderBy {
		if err := checkSelectable(o.Column, CodeBadOrder); err != nil {
			return Statement{}, err
		}
		if o.Dir != ASC && o.Dir != DESC {
			return Statement{}, Invalid(CodeBadOrder, "%q: direction must be ASC or DESC", o.Dir)
		}
	}
	if sel.Limit < 0 {
		return Statement{}, Invalid(CodeBadLimit, "limit %d must be positive", sel.Limit)
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	for i, c := range cols {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(c.expr() + " AS " + c.alias())
	}
	sb.WriteString(" FROM " + quote(table))
	for i, name := range joinNames {
		on := sel.JoinOn[i]
		sb.WriteString(" INNER JOIN " + quote(name) + " ON " + on.Left.qualified() + " = " + on.Right.qualified())
	}

	named := make(map[string]any, len(clauses))
	if len(clauses) > 0 {
		sb.WriteString(" WHERE " + renderWhere(clauses, named))
	}
	if len(sel.GroupBy) > 0 {
		parts := make([]string, len(sel.GroupBy))
		for i, g := range sel.GroupBy {
			parts[i] = g.orderExpr()
		}
		sb.WriteString(" GROUP BY " + strings.Join(parts, ", "))
	}
	if len(sel.OrderBy) > 0 {
		parts := make([]string, len(sel.OrderBy))
		for i, o := range sel.OrderBy {
			parts[i] = o.Column.orderExpr() + " " + string(o.Dir)
		}
		sb.WriteString(" ORDER BY " + strings.Join(parts, ", "))
	}
	if sel.Limit > 0 {
		sb.WriteString(" LIMIT " + strconv.Itoa(sel.Limit))
	}

	return Statement{
		SQL:       sb.String(),
		Named:     named,
		Table:     table,
		Columns:   cols,
		ReturnAll: all,
	}, nil
}

// orderExpr references aggregates by their output alias.
func (c ColumnRef) orderExpr() string {
	if c.IsAggregate() {
		return c.alias()
	}
	return c.qualified()
}
