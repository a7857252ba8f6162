package registry_test

import (
	"database/sql"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

// exampleDir returns a scratch directory for examples.
func exampleDir() string {
	dir, err := os.MkdirTemp("", "vnicdb-example-")
	if err != nil {
		return os.TempDir()
	}

	return dir
}

// injectConfig writes a raw field of a NIC behind the store's back.
func injectConfig(path string, nicName string, key string, value string) error {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}

	defer func() { _ = conn.Close() }()

	_, err = conn.Exec("INSERT INTO nics_config (nic_id, key, value) SELECT id, ?, ? FROM nics WHERE name = ?", key, value, nicName)
	return err
}
