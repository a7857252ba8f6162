package db

import (
	"errors"
	"fmt"
	"time"
)

// ErrAlreadyLocked is returned by Lock when the handle already holds the store lock.
var ErrAlreadyLocked = errors.New("Store is already locked by this handle")

// ErrNotLocked is returned when an operation needing the store lock is called without holding it.
var ErrNotLocked = errors.New("Store isn't locked")

// ErrLockTimeout is returned when the store lock couldn't be acquired within the configured wait.
type ErrLockTimeout struct {
	Path      string
	Timeout   time.Duration
	HolderPID int  // Process recorded in the lock file, 0 if unknown.
	Stale     bool // The recorded holder is no longer running.
}

// Error returns the error string.
func (e ErrLockTimeout) Error() string {
	msg := fmt.Sprintf("Timed out after %s waiting for lock %q", e.Timeout, e.Path)
	if e.HolderPID > 0 {
		msg += fmt.Sprintf(" held by pid %d", e.HolderPID)
		if e.Stale {
			msg += " (no longer running)"
		}
	}

	return msg
}

// ErrCorrupt is returned when a stored entry can't be parsed back into a NIC list.
type ErrCorrupt struct {
	Key string
	Err error
}

// Error returns the error string.
func (e ErrCorrupt) Error() string {
	return fmt.Sprintf("Corrupt store entry %q: %v", e.Key, e.Err)
}

// Unwrap returns the underlying parsing error.
func (e ErrCorrupt) Unwrap() error {
	return e.Err
}
