package query

import (
	"sort"
	"strings"
)

// BuildUpdate renders an update of table. Set keys are bare column names and
// bind as :column; where keys must be columns of the same table.
func BuildUpdate(table Record, set map[string]any, where Where) (Statement, error) {
	name, err := TableOf(table)
	if err != nil {
		return Statement{}, err
	}
	if len(set) == 0 {
		return Statement{}, Invalid(CodeEmptySet, "nothing to update")
	}
	if len(where) == 0 {
		return Statement{}, Invalid(CodeBadFilterKey, "update of %q requires a filter", name)
	}

	keys := make([]string, 0, len(set))
	for k := range set {
		if !validIdent(k) {
			return Statement{}, Invalid(CodeBadColumn, "%q is not a valid column name", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses, err := where.normalize()
	if err != nil {
		return Statement{}, err
	}
	for _, c := range clauses {
		if c.col.Table() != name {
			return Statement{}, Invalid(CodeBadFilterKey, "%q: not a column of %q", c.col, name)
		}
	}

	named := make(map[string]any, len(set)+len(clauses))
	assigns := make([]string, len(keys))
	for i, k := range keys {
		assigns[i] = quote(k) + " = :" + k
		named[k] = set[k]
	}

	var sb strings.Builder
	sb.WriteString("UPDATE " + quote(name) + " SET " + strings.Join(assigns, ", "))
	sb.WriteString(" WHERE " + renderWhere(clauses, named))
	return Statement{SQL: sb.String(), Named: named, Table: name}, nil
}
