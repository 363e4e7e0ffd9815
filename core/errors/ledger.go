package errors

import stderrors "errors"

var (
	ErrSnapshotMissing = stderrors.New("ledger: snapshot file missing")
	ErrSnapshotCorrupt = stderrors.New("ledger: snapshot corrupt")
	ErrChainBroken     = stderrors.New("ledger: chain integrity broken")
	ErrEmptyGrant      = stderrors.New("ledger: empty grant payload")
	ErrLockHeld        = stderrors.New("ledger: data directory locked by another process")
)
