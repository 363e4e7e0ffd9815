package types

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrMiningExhausted is returned by Mine when the attempt budget runs out
// before the difficulty target is met. The block is left at the last
// attempted nonce and must be discarded by the caller.
var ErrMiningExhausted = errors.New("types: mining attempt budget exhausted")

// Block is one sealed entry of the grant ledger. Index increases by one
// along the chain starting at 0; PrevHash links each block to its
// predecessor's Hash; Data carries the opaque "<role>:<user>" payload.
// The JSON field names are the persisted snapshot format and must not
// change.
type Block struct {
	Index     uint64 `json:"index"`
	Timestamp string `json:"timestamp"`
	Data      string `json:"data"`
	PrevHash  string `json:"prev_hash"`
	Nonce     uint64 `json:"nonce"`
	Hash      string `json:"hash"`
}

// NewBlock constructs a block with nonce 0 and its hash computed from the
// initial field values. The timestamp is captured by the caller exactly
// once; it is never recomputed.
func NewBlock(index uint64, timestamp, data, prevHash string) *Block {
	b := &Block{
		Index:     index,
		Timestamp: timestamp,
		Data:      data,
		PrevHash:  prevHash,
	}
	b.Hash = b.ComputeHash()
	return b
}

// ComputeHash returns the hex-encoded SHA-256 digest of the block's five
// hashable fields concatenated in the fixed order index, timestamp, data,
// prev_hash, nonce. It is a pure function of the current field values.
func (b *Block) ComputeHash() string {
	payload := fmt.Sprintf("%d%s%s%s%d", b.Index, b.Timestamp, b.Data, b.PrevHash, b.Nonce)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// SatisfiesDifficulty reports whether the block's hash meets the
// proof-of-work predicate: its leading difficulty hex digits are all '0'.
// A difficulty of zero or less is trivially satisfied.
func (b *Block) SatisfiesDifficulty(difficulty int) bool {
	if difficulty <= 0 {
		return true
	}
	return strings.HasPrefix(b.Hash, strings.Repeat("0", difficulty))
}

// Mine increments the nonce and recomputes the hash until the difficulty
// predicate holds. The hash computed at construction counts as the first
// candidate, so a block that already satisfies the target keeps nonce 0.
// maxAttempts bounds the number of nonce increments; zero means unbounded.
// Expected cost grows as 16^difficulty, so difficulty must stay small for
// interactive use.
func (b *Block) Mine(difficulty int, maxAttempts uint64) error {
	var attempts uint64
	for !b.SatisfiesDifficulty(difficulty) {
		if maxAttempts > 0 && attempts >= maxAttempts {
			return fmt.Errorf("%w: difficulty %d not reached after %d attempts", ErrMiningExhausted, difficulty, attempts)
		}
		b.Nonce++
		b.Hash = b.ComputeHash()
		attempts++
	}
	return nil
}
