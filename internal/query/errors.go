package query

import (
	"errors"
	"fmt"
)

// ErrValidation matches every ValidationError via errors.Is.
var ErrValidation = errors.New("query: validation failed")

// Code identifies the rule a builder input violated.
type Code string

const (
	CodeEmptySelect   Code = "empty_select"
	CodeBadColumn     Code = "bad_column"
	CodeBadAggregate  Code = "bad_aggregate"
	CodeBadTable      Code = "bad_table"
	CodeJoinArity     Code = "join_arity"
	CodeBadFilterKey  Code = "bad_filter_key"
	CodeBadOperator   Code = "bad_operator"
	CodeInNotList     Code = "in_not_list"
	CodeBetweenArity  Code = "between_arity"
	CodeBadOrder      Code = "bad_order"
	CodeBadLimit      Code = "bad_limit"
	CodeBadRecord     Code = "bad_record"
	CodeEmptyRows     Code = "empty_rows"
	CodeFieldMismatch Code = "field_mismatch"
	CodeAllNotAllowed Code = "all_not_allowed"
	CodeEmptySet      Code = "empty_set"
	CodeEmptyBatch    Code = "empty_batch"
)

// ValidationError reports a malformed builder input. It is raised before any
// statement text is produced.
type ValidationError struct {
	Code   Code
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("query: %s: %s", e.Code, e.Detail)
}

// Is lets errors.Is(err, ErrValidation) match any code.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError with a formatted detail.
func Invalid(code Code, format string, args ...any) error {
	return &ValidationError{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// CodeOf returns the validation code carried by err, or "" when err is not a
// ValidationError.
func CodeOf(err error) Code {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Code
	}
	return ""
}
