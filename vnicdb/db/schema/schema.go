package schema

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/canonical/vnicdb/vnicdb/db/query"
)

// Schema captures the schema of a database in terms of a series of ordered
// updates.
type Schema struct {
	updates []Update // Ordered series of updates making up the schema
	hook    Hook     // Optional hook to execute whenever a update gets applied
	fresh   string   // Optional SQL statement used to create schema from scratch
}

// Update applies a specific schema change to a database, and returns an error
// if anything goes wrong.
type Update func(context.Context, *sql.Tx) error

// Hook is a callback that gets fired when a update gets applied.
type Hook func(context.Context, int, *sql.Tx) error

// New creates a new schema Schema with the given updates.
func New(updates []Update) *Schema {
	return &Schema{
		updates: updates,
	}
}

// NewFromMap creates a new schema Schema with the updates specified in the
// given map. The keys of the map are schema versions that when upgraded will
// trigger the associated Update value. It's required that the minimum key in
// the map is 1, and if key N is present then N-1 is present too, with N>1
// (i.e. there are no missing versions).
func NewFromMap(versionsToUpdates map[int]Update) *Schema {
	versions := make([]int, 0, len(versionsToUpdates))
	for version := range versionsToUpdates {
		versions = append(versions, version)
	}

	slices.Sort(versions)

	updates := []Update{}
	for i, version := range versions {
		// Assert that we start from 1 and there are no gaps.
		if version != i+1 {
			panic(fmt.Sprintf("updates map misses version %d", i+1))
		}

		updates = append(updates, versionsToUpdates[version])
	}

	return New(updates)
}

// Add a new update to the schema. It will be appended at the end of the
// existing series.
func (s *Schema) Add(update Update) {
	s.updates = append(s.updates, update)
}

// Hook instructs the schema to invoke the given function whenever a update is
// about to be applied. Any previously installed hook will be replaced.
func (s *Schema) Hook(hook Hook) {
	s.hook = hook
}

// Fresh sets a statement that will be used to create the schema from scratch
// when bootstraping an empty database. If not given, all updates will be
// applied in order.
func (s *Schema) Fresh(statement string) {
	s.fresh = statement
}

// Version returns the version the schema brings a database to.
func (s *Schema) Version() int {
	return len(s.updates)
}

// Ensure makes sure that the actual schema in the given database matches the
// one defined by our updates.
//
// All updates are applied transactionally. In case any error occurs the
// transaction will be rolled back and the database will remain unchanged.
//
// A update will be applied only if it hasn't been before (currently applied
// updates are tracked in the 'schema' table, which gets automatically
// created).
//
// If no error occurs, the integer returned by this method is the
// initial version that the schema has been upgraded from.
func (s *Schema) Ensure(ctx context.Context, db *sql.DB) (int, error) {
	var current int
	err := query.Transaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		err := ensureSchemaTableExists(ctx, tx)
		if err != nil {
			return err
		}

		current, err = queryCurrentVersion(ctx, tx)
		if err != nil {
			return err
		}

		// When creating the schema from scratch, use the fresh dump if
		// available. Otherwise just apply all relevant updates.
		if current == 0 && s.fresh != "" {
			_, err = tx.ExecContext(ctx, s.fresh)
			if err != nil {
				return fmt.Errorf("Cannot apply fresh schema: %w", err)
			}

			for version := 1; version <= len(s.updates); version++ {
				err = insertSchemaVersion(ctx, tx, version)
				if err != nil {
					return err
				}
			}

			return nil
		}

		return ensureUpdatesAreApplied(ctx, tx, current, s.updates, s.hook)
	})
	if err != nil {
		return -1, err
	}

	return current, nil
}

// Ensure that the schema exists.
func ensureSchemaTableExists(ctx context.Context, tx *sql.Tx) error {
	exists, err := DoesSchemaTableExist(ctx, tx)
	if err != nil {
		return fmt.Errorf("Failed to check if schema table is there: %w", err)
	}

	if !exists {
		err := createSchemaTable(ctx, tx)
		if err != nil {
			return fmt.Errorf("Failed to create schema table: %w", err)
		}
	}

	return nil
}

// Return the highest update version currently applied. Zero means that no
// updates have been applied yet.
func queryCurrentVersion(ctx context.Context, tx *sql.Tx) (int, error) {
	versions, err := selectSchemaVersions(ctx, tx)
	if err != nil {
		return -1, fmt.Errorf("Failed to fetch update versions: %w", err)
	}

	current := 0
	if len(versions) > 0 {
		err = checkSchemaVersionsHaveNoHoles(versions)
		if err != nil {
			return -1, err
		}

		current = versions[len(versions)-1] // Highest recorded version
	}

	return current, nil
}

// Apply any pending update that was not yet applied.
func ensureUpdatesAreApplied(ctx context.Context, tx *sql.Tx, current int, updates []Update, hook Hook) error {
	if current > len(updates) {
		return fmt.Errorf("Schema version '%d' is more recent than expected '%d'", current, len(updates))
	}

	for _, update := range updates[current:] {
		if hook != nil {
			err := hook(ctx, current, tx)
			if err != nil {
				return fmt.Errorf("Failed to execute hook (version %d): %w", current, err)
			}
		}

		err := update(ctx, tx)
		if err != nil {
			return fmt.Errorf("Failed to apply update %d: %w", current, err)
		}

		current++

		err = insertSchemaVersion(ctx, tx, current)
		if err != nil {
			return err
		}
	}

	return nil
}

// Check that the given list of update version numbers doesn't have "holes",
// that is each version equal the preceding version plus 1.
func checkSchemaVersionsHaveNoHoles(versions []int) error {
	for i := range versions[:len(versions)-1] {
		if versions[i+1] != versions[i]+1 {
			return fmt.Errorf("Missing updates: %d to %d", versions[i], versions[i+1])
		}
	}

	return nil
}
