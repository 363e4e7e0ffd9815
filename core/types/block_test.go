package types

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

func TestComputeHashFieldOrder(t *testing.T) {
	b := &Block{
		Index:     7,
		Timestamp: "2024-01-02T03:04:05Z",
		Data:      "editor:bob",
		PrevHash:  "abc123",
		Nonce:     42,
	}
	sum := sha256.Sum256([]byte("72024-01-02T03:04:05Zeditor:bobabc12342"))
	want := hex.EncodeToString(sum[:])
	if got := b.ComputeHash(); got != want {
		t.Fatalf("ComputeHash() = %s, want %s", got, want)
	}
}

func TestComputeHashDeterministic(t *testing.T) {
	b := NewBlock(1, "2024-01-02T03:04:05Z", "viewer:carol", "00aa")
	first := b.ComputeHash()
	second := b.ComputeHash()
	if first != second {
		t.Fatalf("hash not deterministic: %s vs %s", first, second)
	}
	b.Nonce++
	if b.ComputeHash() == first {
		t.Fatal("changing the nonce did not change the hash")
	}
}

func TestNewBlockSealsInitialHash(t *testing.T) {
	b := NewBlock(3, "2024-06-01T00:00:00Z", "admin:alice", "ff00")
	if b.Nonce != 0 {
		t.Fatalf("new block nonce = %d, want 0", b.Nonce)
	}
	if b.Hash != b.ComputeHash() {
		t.Fatalf("stored hash %s does not match recomputed %s", b.Hash, b.ComputeHash())
	}
}

func TestSatisfiesDifficulty(t *testing.T) {
	tests := []struct {
		name       string
		hash       string
		difficulty int
		want       bool
	}{
		{"two zeros at two", "00ab33", 2, true},
		{"two zeros at three", "00ab33", 3, false},
		{"no zeros at one", "9f00aa", 1, false},
		{"zero difficulty always passes", "9f00aa", 0, true},
		{"negative difficulty always passes", "9f00aa", -1, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := &Block{Hash: tc.hash}
			if got := b.SatisfiesDifficulty(tc.difficulty); got != tc.want {
				t.Fatalf("SatisfiesDifficulty(%d) on %q = %v, want %v", tc.difficulty, tc.hash, got, tc.want)
			}
		})
	}
}

func TestMineMeetsTarget(t *testing.T) {
	b := NewBlock(1, "2024-01-02T03:04:05Z", "editor:bob", strings.Repeat("0", 64))
	if err := b.Mine(2, 0); err != nil {
		t.Fatalf("Mine: %v", err)
	}
	if !strings.HasPrefix(b.Hash, "00") {
		t.Fatalf("mined hash %s does not carry the difficulty prefix", b.Hash)
	}
	if b.Hash != b.ComputeHash() {
		t.Fatalf("mined hash %s is not reproducible from the sealed fields", b.Hash)
	}
}

func TestMineKeepsNonceWhenAlreadySatisfied(t *testing.T) {
	b := NewBlock(1, "2024-01-02T03:04:05Z", "editor:bob", "00")
	if err := b.Mine(0, 0); err != nil {
		t.Fatalf("Mine: %v", err)
	}
	if b.Nonce != 0 {
		t.Fatalf("trivial target advanced nonce to %d", b.Nonce)
	}
}

func TestMineExhaustsBudget(t *testing.T) {
	b := NewBlock(1, "2024-01-02T03:04:05Z", "editor:bob", "ff")
	err := b.Mine(8, 16)
	if !errors.Is(err, ErrMiningExhausted) {
		t.Fatalf("Mine with a 16 attempt budget at difficulty 8 returned %v, want ErrMiningExhausted", err)
	}
}
