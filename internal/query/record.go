package query

import (
	"reflect"
	"strings"

	"github.com/jmoiron/sqlx/reflectx"
)

// Record is a row type bound to one table. Struct fields carry `db` tags; a
// field tagged `db:"name,omitempty"` is left out of inserts while zero.
type Record interface {
	TableName() string
}

// Field is one column name and value extracted from a Record.
type Field struct {
	Name  string
	Value any
}

var mapper = reflectx.NewMapperFunc("db", strings.ToLower)

// Mapper returns the field mapper shared by the builder and the row scanners.
func Mapper() *reflectx.Mapper { return mapper }

// TableOf returns rec's table name after checking it is usable.
func TableOf(rec Record) (string, error) {
	if rec == nil {
		return "", Invalid(CodeBadTable, "table is required")
	}
	if v := reflect.ValueOf(rec); v.Kind() == reflect.Pointer && v.IsNil() {
		return "", Invalid(CodeBadRecord, "nil %T", rec)
	}
	name := rec.TableName()
	if !validIdent(name) {
		return "", Invalid(CodeBadTable, "%q is not a valid table name", name)
	}
	return name, nil
}

func recordType(rec Record) (reflect.Type, reflect.Value, error) {
	if rec == nil {
		return nil, reflect.Value{}, Invalid(CodeBadRecord, "nil record")
	}
	v := reflect.ValueOf(rec)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, reflect.Value{}, Invalid(CodeBadRecord, "nil %T", rec)
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, reflect.Value{}, Invalid(CodeBadRecord, "%T is not a struct", rec)
	}
	if !validIdent(rec.TableName()) {
		return nil, reflect.Value{}, Invalid(CodeBadTable, "%q is not a valid table name", rec.TableName())
	}
	return v.Type(), v, nil
}

func columns(t reflect.Type) []*reflectx.FieldInfo {
	tree := mapper.TypeMap(t).Tree
	out := make([]*reflectx.FieldInfo, 0, len(tree.Children))
	for _, fi := range tree.Children {
		if fi == nil || fi.Embedded || fi.Name == "-" {
			continue
		}
		out = append(out, fi)
	}
	return out
}

// FieldNames lists every column of rec's type in declaration order.
func FieldNames(rec Record) ([]string, error) {
	t, _, err := recordType(rec)
	if err != nil {
		return nil, err
	}
	fis := columns(t)
	names := make([]string, 0, len(fis))
	for _, fi := range fis {
		names = append(names, fi.Name)
	}
	return names, nil
}

// Fields returns the non-null columns of rec in declaration order. Nil
// pointers are skipped and set pointers are dereferenced.
func Fields(rec Record) ([]Field, error) {
	t, v, err := recordType(rec)
	if err != nil {
		return nil, err
	}
	fis := columns(t)
	out := make([]Field, 0, len(fis))
	for _, fi := range fis {
		fv := reflectx.FieldByIndexesReadOnly(v, fi.Index)
		if fv.Kind() == reflect.Pointer || fv.Kind() == reflect.Interface {
			if fv.IsNil() {
				continue
			}
			if fv.Kind() == reflect.Pointer {
				fv = fv.Elem()
			}
		}
		if _, omit := fi.Options["omitempty"]; omit && fv.IsZero() {
			continue
		}
		out = append(out, Field{Name: fi.Name, Value: fv.Interface()})
	}
	return out, nil
}

func fieldNames(fields []Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}
