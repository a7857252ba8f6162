package db

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Rican7/retry"
	"github.com/Rican7/retry/strategy"
	"golang.org/x/sys/unix"

	"github.com/canonical/vnicdb/shared/logger"
)

// Lock acquires the host wide exclusive lock of the store.
//
// The lock is polled every lock interval until the lock timeout expires or
// the context is cancelled. Calling Lock on a handle that already holds the
// lock returns ErrAlreadyLocked.
func (s *Store) Lock(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lockFile != nil {
		return ErrAlreadyLocked
	}

	f, err := os.OpenFile(s.lockPath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("Failed opening lock file: %w", err)
	}

	attempts := uint(s.lockTimeout/s.lockInterval) + 1
	waiting := false

	var lockErr error
	err = retry.Retry(
		func(attempt uint) error {
			lockErr = unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
			if errors.Is(lockErr, unix.EWOULDBLOCK) && !waiting {
				waiting = true
				logger.Debug("Waiting for store lock", logger.Ctx{"path": s.lockPath, "holder": readHolder(f)})
			}

			return lockErr
		},
		strategy.Limit(attempts),
		func(attempt uint) bool {
			return attempt == 0 || errors.Is(lockErr, unix.EWOULDBLOCK)
		},
		strategy.Wait(s.lockInterval),
		func(attempt uint) bool {
			return ctx.Err() == nil
		},
	)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}

	if err != nil {
		defer func() { _ = f.Close() }()

		if ctx.Err() != nil {
			return fmt.Errorf("Failed acquiring store lock: %w", ctx.Err())
		}

		if !errors.Is(err, unix.EWOULDBLOCK) {
			return fmt.Errorf("Failed acquiring store lock: %w", err)
		}

		timeoutErr := ErrLockTimeout{Path: s.lockPath, Timeout: s.lockTimeout}
		timeoutErr.HolderPID = readHolder(f)
		if timeoutErr.HolderPID > 0 && !processAlive(timeoutErr.HolderPID) {
			timeoutErr.Stale = true
			logger.Warn("Store lock held by a process that is no longer running", logger.Ctx{"path": s.lockPath, "pid": timeoutErr.HolderPID})
		}

		return timeoutErr
	}

	err = writeHolder(f, os.Getpid())
	if err != nil {
		_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
		_ = f.Close()
		return fmt.Errorf("Failed recording store lock holder: %w", err)
	}

	s.lockFile = f
	return nil
}

// Unlock releases the store lock. It returns ErrNotLocked if the handle doesn't hold it.
func (s *Store) Unlock() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lockFile == nil {
		return ErrNotLocked
	}

	f := s.lockFile
	s.lockFile = nil

	// Clear the holder before letting go.
	_ = f.Truncate(0)

	err := unix.Flock(int(f.Fd()), unix.LOCK_UN)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("Failed releasing store lock: %w", err)
	}

	return f.Close()
}

// Locked reports whether the handle currently holds the store lock.
func (s *Store) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lockFile != nil
}

// WithLock runs f while holding the store lock.
func (s *Store) WithLock(ctx context.Context, f func(ctx context.Context) error) error {
	err := s.Lock(ctx)
	if err != nil {
		return err
	}

	err = f(ctx)
	unlockErr := s.Unlock()
	if err != nil {
		return err
	}

	return unlockErr
}

func (s *Store) checkLocked() error {
	if !s.Locked() {
		return ErrNotLocked
	}

	return nil
}

// readHolder returns the pid recorded in the lock file, or 0.
func readHolder(f *os.File) int {
	buf := make([]byte, 32)
	n, err := f.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return 0
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(buf[:n])))
	if err != nil {
		return 0
	}

	return pid
}

func writeHolder(f *os.File, pid int) error {
	err := f.Truncate(0)
	if err != nil {
		return err
	}

	_, err = f.WriteAt([]byte(strconv.Itoa(pid)+"\n"), 0)
	return err
}

// processAlive checks whether a process exists by sending it signal 0.
func processAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// lockDefaults fills in the lock wait parameters.
func lockDefaults(timeout time.Duration, interval time.Duration) (time.Duration, time.Duration) {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	if timeout < 0 {
		timeout = 0
	}

	return timeout, interval
}
