package db

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
)

//go:embed schema.sql
var schemaSQL string

// SchemaStatements splits the embedded schema into individual statements.
func SchemaStatements() []string {
	var out []string
	for _, part := range strings.Split(schemaSQL, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// ApplySchema creates the ledger tables if they do not exist. Every statement
// is idempotent.
func ApplySchema(ctx context.Context, ex Executor) error {
	for i, stmt := range SchemaStatements() {
		if _, err := ex.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("platform/db: schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
