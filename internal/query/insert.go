package query

import (
	"slices"
	"strings"
)

// BuildInsert renders a single-row insert of rec's non-null fields. Returning
// columns must belong to rec's table; the All sentinel expands to every field
// of the record type.
func BuildInsert(rec Record, returning ...ColumnRef) (Statement, error) {
	fields, err := Fields(rec)
	if err != nil {
		return Statement{}, err
	}
	if len(fields) == 0 {
		return Statement{}, Invalid(CodeBadRecord, "%T has no non-null fields", rec)
	}
	table := rec.TableName()

	ret, all, err := returnColumns(rec, returning)
	if err != nil {
		return Statement{}, err
	}

	named := make(map[string]any, len(fields))
	cols := make([]string, len(fields))
	binds := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = quote(f.Name)
		binds[i] = ":" + f.Name
		named[f.Name] = f.Value
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO " + quote(table))
	sb.WriteString(" (" + strings.Join(cols, ", ") + ")")
	sb.WriteString(" VALUES (" + strings.Join(binds, ", ") + ")")
	if len(ret) > 0 {
		parts := make([]string, len(ret))
		for i, c := range ret {
			parts[i] = quote(c.Column())
		}
		sb.WriteString(" RETURNING " + strings.Join(parts, ", "))
	}

	return Statement{
		SQL:       sb.String(),
		Named:     named,
		Table:     table,
		Columns:   ret,
		ReturnAll: all,
	}, nil
}

func returnColumns(rec Record, returning []ColumnRef) ([]ColumnRef, bool, error) {
	table := rec.TableName()
	if len(returning) == 1 && returning[0] == All {
		names, err := FieldNames(rec)
		if err != nil {
			return nil, false, err
		}
		out := make([]ColumnRef, len(names))
		for i, n := range names {
			out[i] = Col(table, n)
		}
		return out, true, nil
	}
	for _, c := range returning {
		if !c.IsPlain() {
			return nil, false, Invalid(CodeBadColumn, "%q: expecting 'table.col'", c)
		}
		if c.Table() != table {
			return nil, false, Invalid(CodeBadColumn, "%q: not a column of %q", c, table)
		}
	}
	return returning, false, nil
}

// BuildBulkInsert renders one statement inserting every row, in input order,
// with positional placeholders. All rows must target the same table and share
// the same non-null field set.
func BuildBulkInsert(rows []Record) (Statement, error) {
	if len(rows) == 0 {
		return Statement{}, Invalid(CodeEmptyRows, "no rows to insert")
	}
	first, err := Fields(rows[0])
	if err != nil {
		return Statement{}, err
	}
	if len(first) == 0 {
		return Statement{}, Invalid(CodeBadRecord, "%T has no non-null fields", rows[0])
	}
	table := rows[0].TableName()
	names := fieldNames(first)

	args := make([]any, 0, len(rows)*len(names))
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ") + ")"
	tuples := make([]string, 0, len(rows))
	for i, row := range rows {
		fields := first
		if i > 0 {
			if name, err := TableOf(row); err != nil || name != table {
				return Statement{}, Invalid(CodeBadTable, "row %d does not target %q", i, table)
			}
			if fields, err = Fields(row); err != nil {
				return Statement{}, err
			}
			if !slices.Equal(fieldNames(fields), names) {
				return Statement{}, Invalid(CodeFieldMismatch, "row %d fields %v differ from %v", i, fieldNames(fields), names)
			}
		}
		for _, f := range fields {
			args = append(args, f.Value)
		}
		tuples = append(tuples, tuple)
	}

	cols := make([]string, len(names))
	for i, n := range names {
		cols[i] = quote(n)
	}
	sql := "INSERT INTO " + quote(table) + " (" + strings.Join(cols, ", ") + ") VALUES " + strings.Join(tuples, ", ")
	return Statement{SQL: sql, Args: args, Table: table}, nil
}
