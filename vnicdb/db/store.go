// Package db implements the persistent store shared by every process
// allocating NIC identities on the host.
//
// The store is a SQLite file holding one entry of NICs per key, guarded by a
// host wide exclusive lock on a sibling ".lock" file.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/canonical/vnicdb/shared/logger"
	"github.com/canonical/vnicdb/vnicdb/db/query"
	"github.com/canonical/vnicdb/vnicdb/nic"
)

// Store is a handle on the on-disk NIC store.
//
// Every entry access requires the handle to hold the store lock. A handle is
// safe for use from multiple goroutines, but the lock is owned by the handle
// rather than by a goroutine.
type Store struct {
	path     string
	lockPath string
	db       *sql.DB
	hostID   string

	lockTimeout  time.Duration
	lockInterval time.Duration

	mu       sync.Mutex
	lockFile *os.File
}

// Option configures a Store.
type Option func(*Store)

// WithLockTimeout sets how long Lock waits for another holder to let go.
func WithLockTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		s.lockTimeout = timeout
	}
}

// WithLockInterval sets how often Lock retries while waiting.
func WithLockInterval(interval time.Duration) Option {
	return func(s *Store) {
		s.lockInterval = interval
	}
}

// Open opens the store at the given path, creating it if missing and
// bringing its schema up to date.
func Open(ctx context.Context, path string, options ...Option) (*Store, error) {
	s := &Store{
		path:         path,
		lockPath:     path + ".lock",
		lockTimeout:  30 * time.Second,
		lockInterval: 100 * time.Millisecond,
	}

	for _, option := range options {
		option(s)
	}

	s.lockTimeout, s.lockInterval = lockDefaults(s.lockTimeout, s.lockInterval)

	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return nil, fmt.Errorf("Failed creating store directory: %w", err)
	}

	db, err := sqliteOpen(path)
	if err != nil {
		return nil, fmt.Errorf("Failed opening store: %w", err)
	}

	err = query.Retry(ctx, func(ctx context.Context) error {
		_, err := Schema().Ensure(ctx, db)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("Failed updating store schema: %w", err)
	}

	s.db = db

	err = s.ensureHostID(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Debug("Opened NIC store", logger.Ctx{"path": path, "host": s.hostID})

	return s, nil
}

// Close releases the lock if held and closes the database.
func (s *Store) Close() error {
	if s.Locked() {
		err := s.Unlock()
		if err != nil {
			logger.Warn("Failed releasing store lock on close", logger.Ctx{"path": s.lockPath, "err": err})
		}
	}

	return s.db.Close()
}

// Path returns the store file path.
func (s *Store) Path() string {
	return s.path
}

// HostID returns the random identifier generated when the store was created.
func (s *Store) HostID() string {
	return s.hostID
}

func (s *Store) ensureHostID(ctx context.Context) error {
	return s.transaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		values, err := query.SelectConfig(ctx, tx, "config", "key = ?", "host.id")
		if err != nil {
			return fmt.Errorf("Failed loading host id: %w", err)
		}

		hostID, ok := values["host.id"]
		if !ok {
			hostID = uuid.New().String()
			err = query.UpdateConfig(ctx, tx, "config", map[string]string{"host.id": hostID})
			if err != nil {
				return fmt.Errorf("Failed recording host id: %w", err)
			}
		}

		s.hostID = hostID
		return nil
	})
}

func (s *Store) transaction(ctx context.Context, f func(context.Context, *sql.Tx) error) error {
	return query.Retry(ctx, func(ctx context.Context) error {
		return query.Transaction(ctx, s.db, f)
	})
}

// Load returns the NIC list stored under key, or an empty list if the key was
// never written. The caller must hold the store lock.
func (s *Store) Load(ctx context.Context, key string) (*nic.List, error) {
	err := s.checkLocked()
	if err != nil {
		return nil, err
	}

	var l *nic.List
	err = s.transaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		l, err = loadEntry(ctx, tx, key)
		return err
	})
	if err != nil {
		return nil, err
	}

	return l, nil
}

func loadEntry(ctx context.Context, tx *sql.Tx, key string) (*nic.List, error) {
	stmt := `
SELECT nics.id, nics.name, coalesce(nics.mac, '')
  FROM nics JOIN entries ON entries.id = nics.entry_id
 WHERE entries.key = ?
 ORDER BY nics.position
`
	rows, err := tx.QueryContext(ctx, stmt, key)
	if err != nil {
		return nil, fmt.Errorf("Failed loading entry %q: %w", key, err)
	}

	ids := []int64{}
	records := map[int64]map[string]string{}
	for rows.Next() {
		var id int64
		var name string
		var mac string

		err := rows.Scan(&id, &name, &mac)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}

		ids = append(ids, id)
		records[id] = map[string]string{nic.FieldName: name}
		if mac != "" {
			records[id][nic.FieldMAC] = mac
		}
	}

	err = rows.Err()
	_ = rows.Close()
	if err != nil {
		return nil, err
	}

	err = loadNICConfig(ctx, tx, key, records)
	if err != nil {
		return nil, err
	}

	l := &nic.List{}
	for _, id := range ids {
		values := records[id]

		mac, ok := values[nic.FieldMAC]
		if ok {
			_, err := nic.NormalizeMAC(mac)
			if err != nil {
				return nil, ErrCorrupt{Key: key, Err: fmt.Errorf("NIC %q: %w", values[nic.FieldName], err)}
			}
		}

		r, err := nic.FromMap(values)
		if err != nil {
			return nil, ErrCorrupt{Key: key, Err: fmt.Errorf("NIC %q: %w", values[nic.FieldName], err)}
		}

		err = l.Append(r)
		if err != nil {
			return nil, ErrCorrupt{Key: key, Err: err}
		}
	}

	return l, nil
}

func loadNICConfig(ctx context.Context, tx *sql.Tx, key string, records map[int64]map[string]string) error {
	if len(records) == 0 {
		return nil
	}

	stmt := `
SELECT nics_config.nic_id, nics_config.key, nics_config.value
  FROM nics_config
  JOIN nics ON nics.id = nics_config.nic_id
  JOIN entries ON entries.id = nics.entry_id
 WHERE entries.key = ?
`
	rows, err := tx.QueryContext(ctx, stmt, key)
	if err != nil {
		return fmt.Errorf("Failed loading NIC config of %q: %w", key, err)
	}

	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id int64
		var field string
		var value string

		err := rows.Scan(&id, &field, &value)
		if err != nil {
			return err
		}

		if field == nic.FieldName || field == nic.FieldMAC {
			return ErrCorrupt{Key: key, Err: fmt.Errorf("Field %q stored as config", field)}
		}

		records[id][field] = value
	}

	return rows.Err()
}

// Save replaces the entry stored under key with the given list. An empty
// list removes the entry. The caller must hold the store lock.
func (s *Store) Save(ctx context.Context, key string, l *nic.List) error {
	err := s.checkLocked()
	if err != nil {
		return err
	}

	if l == nil || l.Len() == 0 {
		return s.Delete(ctx, key)
	}

	return s.transaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return saveEntry(ctx, tx, key, l)
	})
}

func saveEntry(ctx context.Context, tx *sql.Tx, key string, l *nic.List) error {
	_, err := tx.ExecContext(ctx, `
INSERT INTO entries (key, updated_at) VALUES (?, ?)
  ON CONFLICT (key) DO UPDATE SET updated_at = excluded.updated_at
`, key, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("Failed writing entry %q: %w", key, err)
	}

	var entryID int64
	err = tx.QueryRowContext(ctx, "SELECT id FROM entries WHERE key = ?", key).Scan(&entryID)
	if err != nil {
		return fmt.Errorf("Failed fetching entry %q: %w", key, err)
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM nics WHERE entry_id = ?", entryID)
	if err != nil {
		return fmt.Errorf("Failed clearing NICs of %q: %w", key, err)
	}

	for i, r := range l.All() {
		var mac any
		if r.MAC != "" {
			mac = r.MAC
		}

		result, err := tx.ExecContext(ctx, "INSERT INTO nics (entry_id, position, name, mac) VALUES (?, ?, ?, ?)", entryID, i, r.Name, mac)
		if err != nil {
			return fmt.Errorf("Failed writing NIC %q of %q: %w", r.Name, key, err)
		}

		nicID, err := result.LastInsertId()
		if err != nil {
			return err
		}

		for field, value := range r.Map() {
			if field == nic.FieldName || field == nic.FieldMAC {
				continue
			}

			_, err = tx.ExecContext(ctx, "INSERT INTO nics_config (nic_id, key, value) VALUES (?, ?, ?)", nicID, field, value)
			if err != nil {
				return fmt.Errorf("Failed writing field %q of NIC %q: %w", field, r.Name, err)
			}
		}
	}

	return nil
}

// Delete removes the entry stored under key. Deleting a missing entry is not
// an error. The caller must hold the store lock.
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.checkLocked()
	if err != nil {
		return err
	}

	return s.transaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM entries WHERE key = ?", key)
		if err != nil {
			return fmt.Errorf("Failed deleting entry %q: %w", key, err)
		}

		return nil
	})
}

// Keys returns the keys of every stored entry in lexical order. The caller
// must hold the store lock.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	err := s.checkLocked()
	if err != nil {
		return nil, err
	}

	var keys []string
	err = s.transaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		keys, err = query.SelectStrings(ctx, tx, "SELECT key FROM entries ORDER BY key")
		return err
	})
	if err != nil {
		return nil, err
	}

	return keys, nil
}

// MACs returns every MAC address recorded in the store, mapped to the
// "<key>/<nic>" owning it. The caller must hold the store lock.
func (s *Store) MACs(ctx context.Context) (map[string]string, error) {
	err := s.checkLocked()
	if err != nil {
		return nil, err
	}

	macs := map[string]string{}
	err = s.transaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		clear(macs)

		stmt := `
SELECT entries.key, nics.name, nics.mac
  FROM nics JOIN entries ON entries.id = nics.entry_id
 WHERE nics.mac IS NOT NULL
`
		rows, err := tx.QueryContext(ctx, stmt)
		if err != nil {
			return fmt.Errorf("Failed loading MAC addresses: %w", err)
		}

		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var key string
			var name string
			var value string

			err := rows.Scan(&key, &name, &value)
			if err != nil {
				return err
			}

			mac, err := nic.NormalizeMAC(value)
			if err != nil {
				return ErrCorrupt{Key: key, Err: fmt.Errorf("NIC %q: %w", name, err)}
			}

			macs[mac] = key + "/" + name
		}

		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return macs, nil
}
