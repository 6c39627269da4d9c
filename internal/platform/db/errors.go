package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

var (
	// ErrConflict indicates a unique constraint violation.
	ErrConflict = errors.New("platform/db: conflict")
	// ErrForeignKey indicates a foreign key violation.
	ErrForeignKey = errors.New("platform/db: foreign key violation")
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// SQLState extracts the SQLSTATE code from either driver's error type.
func SQLState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// Classify maps constraint violations to ErrConflict or ErrForeignKey while
// keeping the driver error in the chain. Other errors are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	switch SQLState(err) {
	case uniqueViolation:
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case foreignKeyViolation:
		return fmt.Errorf("%w: %w", ErrForeignKey, err)
	}
	return err
}
