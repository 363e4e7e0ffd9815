package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	ledgererrors "grantchain/core/errors"
)

func TestFileLockExclusiveIsExclusive(t *testing.T) {
	dir := t.TempDir()

	lock, err := AcquireExclusive(dir)
	require.NoError(t, err)

	_, err = AcquireExclusive(dir)
	require.ErrorIs(t, err, ledgererrors.ErrLockHeld)

	_, err = AcquireShared(dir)
	require.ErrorIs(t, err, ledgererrors.ErrLockHeld)

	require.NoError(t, lock.Release())

	lock, err = AcquireExclusive(dir)
	require.NoError(t, err)
	require.NoError(t, lock.Release())
}

func TestFileLockSharedAllowsReaders(t *testing.T) {
	dir := t.TempDir()

	first, err := AcquireShared(dir)
	require.NoError(t, err)
	second, err := AcquireShared(dir)
	require.NoError(t, err)

	_, err = AcquireExclusive(dir)
	require.ErrorIs(t, err, ledgererrors.ErrLockHeld)

	require.NoError(t, first.Release())
	require.NoError(t, second.Release())
}

func TestFileLockReleaseNil(t *testing.T) {
	var lock *FileLock
	require.NoError(t, lock.Release())
}
