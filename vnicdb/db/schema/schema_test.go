package schema_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/vnicdb/vnicdb/db/query"
	"github.com/canonical/vnicdb/vnicdb/db/schema"
)

// Create a new Schema by specifying an explicit map from versions to Update
// functions.
func TestNewFromMap(t *testing.T) {
	db := newDB(t)
	s := schema.NewFromMap(map[int]schema.Update{
		1: updateCreateTable,
		2: updateInsertValue,
	})

	initial, err := s.Ensure(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, 0, initial)
	assert.Equal(t, 2, s.Version())
}

// Panic if there are missing versions in the map.
func TestNewFromMap_MissingVersions(t *testing.T) {
	assert.PanicsWithValue(t, "updates map misses version 2", func() {
		schema.NewFromMap(map[int]schema.Update{
			1: updateCreateTable,
			3: updateInsertValue,
		})
	})
}

// Updates already applied are skipped on the next run.
func TestSchemaEnsure_Incremental(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()

	s := schema.New([]schema.Update{updateCreateTable})
	initial, err := s.Ensure(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 0, initial)

	s.Add(updateInsertValue)
	initial, err = s.Ensure(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 1, initial)

	initial, err = s.Ensure(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 2, initial)

	assert.Equal(t, 1, countRows(t, db, "test"))
}

// If the database schema version is more recent than our update series, an
// error is returned.
func TestSchemaEnsure_VersionMoreRecentThanExpected(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()

	_, err := schema.New([]schema.Update{updateNoop}).Ensure(ctx, db)
	require.NoError(t, err)

	_, err = schema.New(nil).Ensure(ctx, db)
	assert.EqualError(t, err, "Schema version '1' is more recent than expected '0'")
}

// If the database schema contains "holes" in the applied versions, an error is
// returned.
func TestSchemaEnsure_MissingVersion(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()

	s := schema.New([]schema.Update{updateNoop})
	_, err := s.Ensure(ctx, db)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO schema (version, updated_at) VALUES (3, strftime("%s"))`)
	require.NoError(t, err)

	s.Add(updateNoop)
	s.Add(updateNoop)

	_, err = s.Ensure(ctx, db)
	assert.EqualError(t, err, "Missing updates: 1 to 3")
}

// A failing update rolls back everything applied in the same run.
func TestSchemaEnsure_FailingUpdate(t *testing.T) {
	db := newDB(t)

	s := schema.New([]schema.Update{updateCreateTable, updateBoom})
	_, err := s.Ensure(context.Background(), db)
	assert.EqualError(t, err, "Failed to apply update 1: boom")

	err = query.Transaction(context.Background(), db, func(ctx context.Context, tx *sql.Tx) error {
		exists, err := schema.DoesSchemaTableExist(ctx, tx)
		require.NoError(t, err)
		assert.False(t, exists)
		return nil
	})
	require.NoError(t, err)
}

// The hook is invoked with the version being upgraded from.
func TestSchemaEnsure_Hook(t *testing.T) {
	db := newDB(t)

	versions := []int{}
	s := schema.New([]schema.Update{updateNoop, updateNoop})
	s.Hook(func(_ context.Context, version int, _ *sql.Tx) error {
		versions = append(versions, version)
		return nil
	})

	_, err := s.Ensure(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, versions)
}

// A fresh statement replaces the updates on an empty database and records all versions.
func TestSchemaEnsure_Fresh(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()

	s := schema.New([]schema.Update{updateBoom, updateBoom})
	s.Fresh("CREATE TABLE test (id INTEGER)")

	_, err := s.Ensure(ctx, db)
	require.NoError(t, err)

	initial, err := s.Ensure(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 2, initial)
}

// Return a new in-memory SQLite database.
func newDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)

	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	var count int
	err := query.Transaction(context.Background(), db, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		count, err = query.Count(ctx, tx, table, "")
		return err
	})
	require.NoError(t, err)

	return count
}

func updateCreateTable(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, "CREATE TABLE test (id INTEGER)")
	return err
}

func updateInsertValue(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, "INSERT INTO test VALUES (1)")
	return err
}

func updateNoop(context.Context, *sql.Tx) error {
	return nil
}

func updateBoom(context.Context, *sql.Tx) error {
	return fmt.Errorf("boom")
}
