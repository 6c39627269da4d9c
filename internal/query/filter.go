package query

import (
	"reflect"
	"sort"
	"strings"

	"github.com/lib/pq"
)

// Operator is a filter comparison.
type Operator string

const (
	EQUAL   Operator = "="
	GT      Operator = ">"
	GTE     Operator = ">="
	LT      Operator = "<"
	LTE     Operator = "<="
	IN      Operator = "IN"
	BETWEEN Operator = "BETWEEN"
)

var operators = map[Operator]struct{}{
	EQUAL:   {},
	GT:      {},
	GTE:     {},
	LT:      {},
	LTE:     {},
	IN:      {},
	BETWEEN: {},
}

// Cond pairs an operator with its value. A bare value in a Where map is
// treated as Cond{Op: EQUAL}.
type Cond struct {
	Op    Operator
	Value any
}

// Where maps plain column references to a bare value or a Cond. Clauses are
// conjoined with AND and rendered in column order.
type Where map[ColumnRef]any

func Eq(v any) Cond  { return Cond{Op: EQUAL, Value: v} }
func Gt(v any) Cond  { return Cond{Op: GT, Value: v} }
func Gte(v any) Cond { return Cond{Op: GTE, Value: v} }
func Lt(v any) Cond  { return Cond{Op: LT, Value: v} }
func Lte(v any) Cond { return Cond{Op: LTE, Value: v} }

// In matches any element of values, which must be a slice or array.
func In(values any) Cond { return Cond{Op: IN, Value: values} }

// Between matches low <= column <= high.
func Between(low, high any) Cond { return Cond{Op: BETWEEN, Value: []any{low, high}} }

type clause struct {
	col ColumnRef
	op  Operator
	val any
}

// normalize applies the implicit EQUAL and validates operator/value shapes.
func (w Where) normalize() ([]clause, error) {
	keys := make([]ColumnRef, 0, len(w))
	for k := range w {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]clause, 0, len(keys))
	for _, k := range keys {
		if !k.IsPlain() {
			return nil, Invalid(CodeBadFilterKey, "%q: expecting 'table.col'", k)
		}
		c := clause{col: k, op: EQUAL, val: w[k]}
		switch v := w[k].(type) {
		case Cond:
			c.op, c.val = v.Op, v.Value
		case *Cond:
			if v != nil {
				c.op, c.val = v.Op, v.Value
			}
		}
		if _, ok := operators[c.op]; !ok {
			return nil, Invalid(CodeBadOperator, "%q: unknown operator %q", k, c.op)
		}
		switch c.op {
		case IN:
			if !isList(c.val) {
				return nil, Invalid(CodeInNotList, "%q: use a slice value for IN", k)
			}
		case BETWEEN:
			if !isList(c.val) || reflect.ValueOf(c.val).Len() != 2 {
				return nil, Invalid(CodeBetweenArity, "%q: use a (low, high) pair for BETWEEN", k)
			}
		}
		out = append(out, c)
	}
	return out, nil
}

func isList(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.([]byte); ok {
		return false
	}
	kind := reflect.TypeOf(v).Kind()
	return kind == reflect.Slice || kind == reflect.Array
}

// render appends the clause text and its bindings.
func (c clause) render(named map[string]any) string {
	key := string(c.col)
	switch c.op {
	case IN:
		named[key] = pq.Array(c.val)
		return c.col.qualified() + " = ANY(:" + key + ")"
	case BETWEEN:
		rv := reflect.ValueOf(c.val)
		named[key+".low"] = rv.Index(0).Interface()
		named[key+".high"] = rv.Index(1).Interface()
		return c.col.qualified() + " BETWEEN :" + key + ".low AND :" + key + ".high"
	default:
		named[key] = c.val
		return c.col.qualified() + " " + string(c.op) + " :" + key
	}
}

func renderWhere(clauses []clause, named map[string]any) string {
	parts := make([]string, 0, len(clauses))
	for _, c := range clauses {
		parts = append(parts, c.render(named))
	}
	return strings.Join(parts, " AND ")
}
