package query_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/vnicdb/vnicdb/db/query"
)

func TestParams(t *testing.T) {
	cases := []struct {
		n    int
		expr string
	}{
		{1, "(?)"},
		{2, "(?, ?)"},
		{4, "(?, ?, ?, ?)"},
	}

	for _, c := range cases {
		t.Run(c.expr, func(t *testing.T) {
			assert.Equal(t, c.expr, query.Params(c.n))
		})
	}
}

func TestConfig(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()

	_, err := db.Exec("CREATE TABLE config (key TEXT PRIMARY KEY, value TEXT NOT NULL)")
	require.NoError(t, err)

	err = query.Transaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		return query.UpdateConfig(ctx, tx, "config", map[string]string{"host.id": "abc", "schema.note": "x"})
	})
	require.NoError(t, err)

	err = query.Transaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		return query.UpdateConfig(ctx, tx, "config", map[string]string{"schema.note": ""})
	})
	require.NoError(t, err)

	err = query.Transaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		values, err := query.SelectConfig(ctx, tx, "config", "")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"host.id": "abc"}, values)

		values, err = query.SelectConfig(ctx, tx, "config", "key = ?", "missing")
		require.NoError(t, err)
		assert.Empty(t, values)

		count, err := query.Count(ctx, tx, "config", "key LIKE ?", "host.%")
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		return nil
	})
	require.NoError(t, err)
}

func TestSelectIntegers(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()

	err := query.Transaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "CREATE TABLE test (id INTEGER); INSERT INTO test VALUES (3), (1)")
		require.NoError(t, err)

		values, err := query.SelectIntegers(ctx, tx, "SELECT id FROM test WHERE id > ? ORDER BY id", 0)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 3}, values)

		return nil
	})
	require.NoError(t, err)
}

func TestIsRetriableError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		ok   bool
	}{
		{"busy", sqlite3.Error{Code: sqlite3.ErrBusy}, true},
		{"wrapped locked", fmt.Errorf("Failed: %w", sqlite3.Error{Code: sqlite3.ErrLocked}), true},
		{"message", errors.New("database is locked"), true},
		{"constraint", sqlite3.Error{Code: sqlite3.ErrConstraint}, false},
		{"other", errors.New("boom"), false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.ok, query.IsRetriableError(c.err))
		})
	}
}

func TestRetry(t *testing.T) {
	attempts := 0
	err := query.Retry(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return sqlite3.Error{Code: sqlite3.ErrBusy}
		}

		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)

	attempts = 0
	err = query.Retry(context.Background(), func(context.Context) error {
		attempts++
		return sql.ErrNoRows
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.Equal(t, 1, attempts)
}
