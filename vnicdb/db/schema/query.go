package schema

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/canonical/vnicdb/vnicdb/db/query"
)

// DoesSchemaTableExist return whether the schema table is present in the
// database.
func DoesSchemaTableExist(ctx context.Context, tx *sql.Tx) (bool, error) {
	count, err := query.Count(ctx, tx, "sqlite_master", "type = 'table' AND name = 'schema'")
	if err != nil {
		return false, err
	}

	return count == 1, nil
}

// Create the schema table.
func createSchemaTable(ctx context.Context, tx *sql.Tx) error {
	stmt := `
CREATE TABLE schema (
    id         INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL,
    version    INTEGER NOT NULL,
    updated_at DATETIME NOT NULL,
    UNIQUE (version)
)
`
	_, err := tx.ExecContext(ctx, stmt)
	return err
}

// Return all versions in the schema table, in increasing order.
func selectSchemaVersions(ctx context.Context, tx *sql.Tx) ([]int, error) {
	return query.SelectIntegers(ctx, tx, "SELECT version FROM schema ORDER BY version")
}

// Insert a new version into the schema table.
func insertSchemaVersion(ctx context.Context, tx *sql.Tx, new int) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO schema (version, updated_at) VALUES (?, strftime("%s"))`, new)
	if err != nil {
		return fmt.Errorf("Failed to insert version %d: %w", new, err)
	}

	return nil
}
