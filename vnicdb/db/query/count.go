package query

import (
	"context"
	"database/sql"
	"fmt"
)

// Count returns the number of rows in the given table.
func Count(ctx context.Context, tx *sql.Tx, table string, where string, args ...any) (int, error) {
	stmt := fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
	if where != "" {
		stmt += fmt.Sprintf(" WHERE %s", where)
	}

	var count int
	err := tx.QueryRowContext(ctx, stmt, args...).Scan(&count)
	if err != nil {
		return -1, fmt.Errorf("Failed to count rows of %s: %w", table, err)
	}

	return count, nil
}
