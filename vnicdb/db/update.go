package db

import (
	"context"
	"database/sql"

	"github.com/canonical/vnicdb/vnicdb/db/schema"
)

// Schema for the store database.
func Schema() *schema.Schema {
	return schema.NewFromMap(updates)
}

/* Database updates are one-time actions that are needed to move an
   existing database from one version of the schema to the next.

   Those updates are applied at startup time before anything else
   is initialized. This means that they should be entirely
   self-contained and not touch anything but the database.

   Only append to the updates list, never remove entries and never re-order them.
*/

var updates = map[int]schema.Update{
	1: updateFromV0,
	2: updateFromV1,
}

// Index NIC addresses, they're scanned on every MAC allocation.
func updateFromV1(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, "CREATE INDEX nics_mac_idx ON nics (mac)")
	return err
}

func updateFromV0(ctx context.Context, tx *sql.Tx) error {
	stmt := `
CREATE TABLE config (
    id INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL,
    key TEXT NOT NULL,
    value TEXT NOT NULL,
    UNIQUE (key)
);
CREATE TABLE entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL,
    key TEXT NOT NULL,
    updated_at DATETIME NOT NULL,
    UNIQUE (key)
);
CREATE TABLE nics (
    id INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL,
    entry_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    mac TEXT,
    UNIQUE (entry_id, name),
    UNIQUE (entry_id, position),
    FOREIGN KEY (entry_id) REFERENCES entries (id) ON DELETE CASCADE
);
CREATE TABLE nics_config (
    id INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL,
    nic_id INTEGER NOT NULL,
    key TEXT NOT NULL,
    value TEXT NOT NULL,
    UNIQUE (nic_id, key),
    FOREIGN KEY (nic_id) REFERENCES nics (id) ON DELETE CASCADE
);
`
	_, err := tx.ExecContext(ctx, stmt)
	return err
}
