package core

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	ledgererrors "grantchain/core/errors"
	"grantchain/core/types"
	"grantchain/storage"
)

const (
	// GenesisData is the payload of the first block of every chain.
	GenesisData = "Genesis"
	// GenesisPrevHash is the parent-hash sentinel of the genesis block.
	GenesisPrevHash = "0"
)

// now returns the timestamp sealed into a new block. Tests replace it to
// produce deterministic chains.
var now = func() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Options control how a ledger mines and recovers.
type Options struct {
	// Difficulty is the number of leading zero hex digits a mined hash
	// must carry. Genesis is exempt.
	Difficulty int
	// MaxAttempts bounds a single mining run; zero means unbounded.
	MaxAttempts uint64
	// AutoRecover replaces a corrupt snapshot with a fresh genesis chain
	// instead of failing Open. The erased state is logged at WARN.
	AutoRecover bool
}

// Ledger manages the ordered chain of access-grant blocks on top of a
// ChainStore snapshot. Every mutation rewrites the whole snapshot; the
// in-memory chain only advances after the write succeeds.
type Ledger struct {
	store       storage.ChainStore
	difficulty  int
	maxAttempts uint64

	mu    sync.RWMutex
	chain []types.Block
}

// Open loads the chain from the store, bootstrapping a genesis snapshot
// when none exists. Stored hashes are trusted as-is; integrity is checked
// only by an explicit Validate. A corrupt snapshot fails Open unless
// opts.AutoRecover is set, in which case the chain restarts at genesis.
func Open(store storage.ChainStore, opts Options) (*Ledger, error) {
	l := &Ledger{
		store:       store,
		difficulty:  opts.Difficulty,
		maxAttempts: opts.MaxAttempts,
	}

	blocks, err := store.Load()
	switch {
	case err == nil:
		l.chain = blocks
		return l, nil
	case errors.Is(err, ledgererrors.ErrSnapshotMissing):
		if err := l.bootstrap(); err != nil {
			return nil, err
		}
		return l, nil
	case errors.Is(err, ledgererrors.ErrSnapshotCorrupt) && opts.AutoRecover:
		slog.Warn("chain snapshot corrupt, resetting to genesis", "error", err.Error())
		if err := l.bootstrap(); err != nil {
			return nil, err
		}
		return l, nil
	default:
		return nil, err
	}
}

func (l *Ledger) bootstrap() error {
	genesis := types.NewBlock(0, now(), GenesisData, GenesisPrevHash)
	next := []types.Block{*genesis}
	if err := l.store.Save(next); err != nil {
		return fmt.Errorf("persist genesis: %w", err)
	}
	l.chain = next
	return nil
}

// Add mines and appends one grant block carrying "<role>:<user>" and
// persists the grown chain. The in-memory chain is unchanged when mining
// exhausts its budget or the snapshot write fails.
func (l *Ledger) Add(role, user string) (*types.Block, error) {
	if role == "" || user == "" {
		return nil, ledgererrors.ErrEmptyGrant
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	parent := l.chain[len(l.chain)-1]
	block := types.NewBlock(parent.Index+1, now(), role+":"+user, parent.Hash)
	if err := block.Mine(l.difficulty, l.maxAttempts); err != nil {
		return nil, err
	}

	next := make([]types.Block, 0, len(l.chain)+1)
	next = append(next, l.chain...)
	next = append(next, *block)
	if err := l.store.Save(next); err != nil {
		return nil, fmt.Errorf("persist chain: %w", err)
	}
	l.chain = next
	return block, nil
}

// Verify reports whether any block's payload contains the substring
// "<role>:<user>", scanning from the newest block backwards. The match is
// containment, not equality: granting "admin:alice" answers true for
// Verify("min", "alice") as well. Block hashes are not checked here.
func (l *Ledger) Verify(role, user string) bool {
	needle := role + ":" + user

	l.mu.RLock()
	defer l.mu.RUnlock()

	for i := len(l.chain) - 1; i >= 0; i-- {
		if strings.Contains(l.chain[i].Data, needle) {
			return true
		}
	}
	return false
}

// Validate walks the whole chain and reports the first integrity
// violation: malformed genesis, an index gap, a broken parent link, a hash
// that no longer matches its fields, or a non-genesis block that misses
// the ledger's difficulty target.
func (l *Ledger) Validate() error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.chain) == 0 {
		return fmt.Errorf("%w: chain is empty", ledgererrors.ErrChainBroken)
	}
	genesis := l.chain[0]
	if genesis.Index != 0 || genesis.PrevHash != GenesisPrevHash || genesis.Data != GenesisData {
		return fmt.Errorf("%w: genesis block malformed", ledgererrors.ErrChainBroken)
	}
	if genesis.Hash != genesis.ComputeHash() {
		return fmt.Errorf("%w: genesis hash does not match its fields", ledgererrors.ErrChainBroken)
	}
	for i := 1; i < len(l.chain); i++ {
		b := l.chain[i]
		switch {
		case b.Index != uint64(i):
			return fmt.Errorf("%w: block %d carries index %d", ledgererrors.ErrChainBroken, i, b.Index)
		case b.PrevHash != l.chain[i-1].Hash:
			return fmt.Errorf("%w: block %d does not link to its parent", ledgererrors.ErrChainBroken, i)
		case b.Hash != b.ComputeHash():
			return fmt.Errorf("%w: block %d hash does not match its fields", ledgererrors.ErrChainBroken, i)
		case !b.SatisfiesDifficulty(l.difficulty):
			return fmt.Errorf("%w: block %d misses the difficulty target %d", ledgererrors.ErrChainBroken, i, l.difficulty)
		}
	}
	return nil
}

// Reset discards the current chain and persists a fresh single-genesis
// snapshot. It returns the new genesis block.
func (l *Ledger) Reset() (*types.Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	genesis := types.NewBlock(0, now(), GenesisData, GenesisPrevHash)
	next := []types.Block{*genesis}
	if err := l.store.Save(next); err != nil {
		return nil, fmt.Errorf("persist genesis: %w", err)
	}
	l.chain = next
	return genesis, nil
}

// Blocks returns a copy of the chain in order.
func (l *Ledger) Blocks() []types.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]types.Block, len(l.chain))
	copy(out, l.chain)
	return out
}

// Tip returns the newest block.
func (l *Ledger) Tip() types.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.chain[len(l.chain)-1]
}

// Len returns the chain length including genesis.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.chain)
}
