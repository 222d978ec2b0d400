package models

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"qkd-voting-backend/encryption"
)

var hasher = encryption.NewCryptoService()

// HistoryBlock links one history entry to its predecessor so the append-only
// log can be checked for tampering.
type HistoryBlock struct {
	Index     uint64       `json:"index"`
	Timestamp int64        `json:"timestamp"`
	Entry     HistoryEntry `json:"entry"`
	PrevHash  []byte       `json:"prev_hash"`
	Hash      []byte       `json:"hash"`
}

// GenesisPrevHash is the previous hash of the first block.
func GenesisPrevHash() []byte {
	return make([]byte, 32)
}

func NewHistoryBlock(index uint64, timestamp int64, entry HistoryEntry, prevHash []byte) (*HistoryBlock, error) {
	block := &HistoryBlock{
		Index:     index,
		Timestamp: timestamp,
		Entry:     entry,
		PrevHash:  prevHash,
	}

	hash, err := block.calculateHash()
	if err != nil {
		return nil, err
	}
	block.Hash = hash
	return block, nil
}

func (b *HistoryBlock) calculateHash() ([]byte, error) {
	entry, err := json.Marshal(b.Entry)
	if err != nil {
		return nil, fmt.Errorf("failed to encode history entry: %w", err)
	}

	buffer := new(bytes.Buffer)
	binary.Write(buffer, binary.BigEndian, b.Index)
	binary.Write(buffer, binary.BigEndian, b.Timestamp)
	buffer.Write(entry)
	buffer.Write(b.PrevHash)

	return hasher.Keccak256(buffer.Bytes()), nil
}

func (b *HistoryBlock) Validate() bool {
	calculated, err := b.calculateHash()
	if err != nil {
		return false
	}
	return bytes.Equal(calculated, b.Hash)
}

// ValidateChain checks hashes, links, indices and timestamp order.
func ValidateChain(blocks []*HistoryBlock) error {
	for i, block := range blocks {
		if !block.Validate() {
			return fmt.Errorf("block %d has invalid hash", i)
		}
		if block.Index != uint64(i) {
			return fmt.Errorf("block %d has invalid index %d", i, block.Index)
		}

		if i == 0 {
			if !bytes.Equal(block.PrevHash, GenesisPrevHash()) {
				return fmt.Errorf("genesis block has invalid previous hash")
			}
			continue
		}

		prev := blocks[i-1]
		if !bytes.Equal(block.PrevHash, prev.Hash) {
			return fmt.Errorf("block %d has invalid previous hash link", i)
		}
		if block.Timestamp <= prev.Timestamp {
			return fmt.Errorf("block %d is older than its predecessor", i)
		}
	}
	return nil
}

// Entries returns the entries of blocks in order.
func Entries(blocks []*HistoryBlock) []HistoryEntry {
	entries := make([]HistoryEntry, len(blocks))
	for i, block := range blocks {
		entries[i] = block.Entry
	}
	return entries
}

// EnsureMonotonicTimestamp returns the current time in nanoseconds, bumped
// past lastTimestamp if the clock has not advanced.
func EnsureMonotonicTimestamp(lastTimestamp int64) int64 {
	current := time.Now().UnixNano()
	if current <= lastTimestamp {
		return lastTimestamp + 1
	}
	return current
}

// Now returns the timestamp used for new entries, truncated so it survives
// a JSON round trip unchanged.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
