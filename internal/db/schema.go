package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "embed"
)

//go:embed schema.sql
var Schema string

// Bootstrap applies the schema, it is safe to run on every start.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, Schema)
	if err != nil {
		return fmt.Errorf("bootstrap schema: %w", err)
	}
	return nil
}
