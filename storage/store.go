package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	ledgererrors "grantchain/core/errors"
	"grantchain/core/types"
)

// SnapshotFile is the name of the whole-chain JSON snapshot inside the
// ledger data directory.
const SnapshotFile = "chain_head.json"

// ChainStore persists the full ordered chain as one snapshot. Load returns
// ErrSnapshotMissing when no snapshot has ever been written and
// ErrSnapshotCorrupt when the snapshot exists but cannot be decoded.
type ChainStore interface {
	Load() ([]types.Block, error)
	Save(blocks []types.Block) error
}

// snapshotBlock mirrors types.Block with pointer fields so that a missing
// key is distinguishable from a zero value during strict decoding.
type snapshotBlock struct {
	Index     *uint64 `json:"index"`
	Timestamp *string `json:"timestamp"`
	Data      *string `json:"data"`
	PrevHash  *string `json:"prev_hash"`
	Nonce     *uint64 `json:"nonce"`
	Hash      *string `json:"hash"`
}

// --- In-Memory store (for testing) ---

type MemStore struct {
	mu     sync.RWMutex
	blocks []types.Block
	saved  bool
}

func NewMemStore() *MemStore {
	return &MemStore{}
}

func (m *MemStore) Load() ([]types.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.saved {
		return nil, ledgererrors.ErrSnapshotMissing
	}
	out := make([]types.Block, len(m.blocks))
	copy(out, m.blocks)
	return out, nil
}

func (m *MemStore) Save(blocks []types.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocks = make([]types.Block, len(blocks))
	copy(m.blocks, blocks)
	m.saved = true
	return nil
}

// --- File store (for real data directories) ---

// FileStore reads and writes the chain snapshot under a data directory.
// Writes replace the whole file; the stored hashes are trusted on load and
// re-checked only by an explicit audit.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by <dir>/chain_head.json.
func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, SnapshotFile)}
}

// Path returns the absolute or relative snapshot location, for logs.
func (s *FileStore) Path() string {
	return s.path
}

// Load decodes the snapshot strictly: the top-level value must be a JSON
// array, every element must carry exactly the six block keys, and nothing
// may follow the array. Any violation is reported as ErrSnapshotCorrupt so
// the caller can decide between failing and resetting.
func (s *FileStore) Load() ([]types.Block, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ledgererrors.ErrSnapshotMissing, s.path)
		}
		return nil, fmt.Errorf("read snapshot %s: %w", s.path, err)
	}
	blocks, err := decodeSnapshot(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ledgererrors.ErrSnapshotCorrupt, s.path, err)
	}
	return blocks, nil
}

// Save writes the indented JSON snapshot, creating the data directory on
// first use. The write is a single whole-file replace.
func (s *FileStore) Save(blocks []types.Block) error {
	data, err := json.MarshalIndent(blocks, "", "    ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", s.path, err)
	}
	return nil
}

func decodeSnapshot(raw []byte) ([]types.Block, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var snap []snapshotBlock
	if err := dec.Decode(&snap); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after chain array")
	}
	if len(snap) == 0 {
		return nil, errors.New("chain array is empty")
	}
	blocks := make([]types.Block, len(snap))
	for i, sb := range snap {
		if sb.Index == nil || sb.Timestamp == nil || sb.Data == nil || sb.PrevHash == nil || sb.Nonce == nil || sb.Hash == nil {
			return nil, fmt.Errorf("block %d is missing required fields", i)
		}
		blocks[i] = types.Block{
			Index:     *sb.Index,
			Timestamp: *sb.Timestamp,
			Data:      *sb.Data,
			PrevHash:  *sb.PrevHash,
			Nonce:     *sb.Nonce,
			Hash:      *sb.Hash,
		}
	}
	return blocks, nil
}
