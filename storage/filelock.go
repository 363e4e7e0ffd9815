package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	ledgererrors "grantchain/core/errors"
)

// LockFile is the advisory lock inside the ledger data directory. Holding
// it does not protect the snapshot against non-cooperating writers; every
// command of this module takes it before touching the snapshot.
const LockFile = "ledger.lock"

// FileLock guards a data directory. Mutating commands take it exclusively,
// read-only commands take it shared, and both release it on exit.
type FileLock struct {
	fl *flock.Flock
}

// AcquireExclusive takes the write lock without blocking. It returns
// ErrLockHeld when another process holds the lock in any mode.
func AcquireExclusive(dir string) (*FileLock, error) {
	return acquire(dir, (*flock.Flock).TryLock)
}

// AcquireShared takes the read lock without blocking. It returns
// ErrLockHeld when another process holds the write lock.
func AcquireShared(dir string) (*FileLock, error) {
	return acquire(dir, (*flock.Flock).TryRLock)
}

func acquire(dir string, try func(*flock.Flock) (bool, error)) (*FileLock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	fl := flock.New(filepath.Join(dir, LockFile))
	ok, err := try(fl)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", fl.Path(), err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ledgererrors.ErrLockHeld, fl.Path())
	}
	return &FileLock{fl: fl}, nil
}

// Release drops the lock. It is safe to call on an already released lock.
func (l *FileLock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
