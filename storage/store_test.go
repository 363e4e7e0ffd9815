package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	ledgererrors "grantchain/core/errors"
	"grantchain/core/types"
)

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	genesis := types.NewBlock(0, "2024-01-01T00:00:00Z", "Genesis", "0")
	grant := types.NewBlock(1, "2024-01-01T00:00:01Z", "editor:bob", genesis.Hash)
	chain := []types.Block{*genesis, *grant}

	require.NoError(t, store.Save(chain))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, chain, loaded)
}

func TestFileStoreMissingSnapshot(t *testing.T) {
	store := NewFileStore(t.TempDir())
	_, err := store.Load()
	require.ErrorIs(t, err, ledgererrors.ErrSnapshotMissing)
}

func TestFileStoreCorruptSnapshots(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "{chain_head"},
		{"object instead of array", `{"index": 0}`},
		{"empty array", `[]`},
		{"missing nonce key", `[{"index":0,"timestamp":"t","data":"Genesis","prev_hash":"0","hash":"a"}]`},
		{"unknown key", `[{"index":0,"timestamp":"t","data":"Genesis","prev_hash":"0","nonce":0,"hash":"a","extra":1}]`},
		{"wrong index type", `[{"index":"0","timestamp":"t","data":"Genesis","prev_hash":"0","nonce":0,"hash":"a"}]`},
		{"trailing data", `[{"index":0,"timestamp":"t","data":"Genesis","prev_hash":"0","nonce":0,"hash":"a"}] []`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, SnapshotFile), []byte(tc.raw), 0o644))

			_, err := NewFileStore(dir).Load()
			require.ErrorIs(t, err, ledgererrors.ErrSnapshotCorrupt)
		})
	}
}

func TestFileStoreLoadTrustsStoredHash(t *testing.T) {
	dir := t.TempDir()
	raw := `[{"index":0,"timestamp":"t","data":"Genesis","prev_hash":"0","nonce":0,"hash":"not-a-real-digest"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, SnapshotFile), []byte(raw), 0o644))

	loaded, err := NewFileStore(dir).Load()
	require.NoError(t, err)
	require.Equal(t, "not-a-real-digest", loaded[0].Hash)
}

func TestFileStoreSnapshotShape(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	chain := []types.Block{{
		Index:     0,
		Timestamp: "2024-01-01T00:00:00Z",
		Data:      "Genesis",
		PrevHash:  "0",
		Nonce:     0,
		Hash:      "abc",
	}}
	require.NoError(t, store.Save(chain))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	want := `[
    {
        "index": 0,
        "timestamp": "2024-01-01T00:00:00Z",
        "data": "Genesis",
        "prev_hash": "0",
        "nonce": 0,
        "hash": "abc"
    }
]`
	require.Equal(t, want, string(raw))
}

func TestFileStoreSaveCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "ledger")
	store := NewFileStore(dir)
	chain := []types.Block{*types.NewBlock(0, "t", "Genesis", "0")}

	require.NoError(t, store.Save(chain))
	require.FileExists(t, filepath.Join(dir, SnapshotFile))
}

func TestMemStoreCopiesOnLoadAndSave(t *testing.T) {
	store := NewMemStore()

	_, err := store.Load()
	require.ErrorIs(t, err, ledgererrors.ErrSnapshotMissing)

	chain := []types.Block{*types.NewBlock(0, "t", "Genesis", "0")}
	require.NoError(t, store.Save(chain))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, chain, loaded)

	loaded[0].Data = "tampered"
	again, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, "Genesis", again[0].Data)
}
