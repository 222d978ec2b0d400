package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"qkd-voting-backend/models"
)

var ErrEmptyEntry = errors.New("history entry has no vote id")

// Chain is the on-disk form of the history.
type Chain struct {
	Blocks []*models.HistoryBlock `json:"blocks"`
}

// HistoryStore is an append-only, hash-linked vote history. With an empty
// path it lives in memory only; otherwise every append rewrites the file.
type HistoryStore struct {
	path   string
	mu     sync.RWMutex
	blocks []*models.HistoryBlock
	log    *zap.Logger
}

func NewHistoryStore(path string, log *zap.Logger) (*HistoryStore, error) {
	store := &HistoryStore{
		path:   path,
		blocks: make([]*models.HistoryBlock, 0),
		log:    log,
	}
	if path == "" {
		return store, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	chain, err := loadChainFromFile(path)
	if err != nil {
		return nil, err
	}
	if err := models.ValidateChain(chain.Blocks); err != nil {
		return nil, fmt.Errorf("history file %s is corrupt: %w", path, err)
	}
	store.blocks = chain.Blocks

	log.Info("loaded vote history",
		zap.String("path", path),
		zap.Int("blocks", len(store.blocks)),
	)
	return store, nil
}

func (s *HistoryStore) Append(entry models.HistoryEntry) (*models.HistoryBlock, error) {
	if entry.VoteID == "" {
		return nil, ErrEmptyEntry
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	block, err := models.NewHistoryBlock(
		uint64(len(s.blocks)),
		models.EnsureMonotonicTimestamp(s.lastTimestamp()),
		entry,
		s.lastHash(),
	)
	if err != nil {
		return nil, err
	}

	s.blocks = append(s.blocks, block)
	if s.path != "" {
		if err := saveChainToFile(s.path, &Chain{Blocks: s.blocks}); err != nil {
			s.blocks = s.blocks[:len(s.blocks)-1]
			return nil, err
		}
	}
	return block, nil
}

// Blocks returns a copy of the chain.
func (s *HistoryStore) Blocks() []*models.HistoryBlock {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blocks := make([]*models.HistoryBlock, len(s.blocks))
	copy(blocks, s.blocks)
	return blocks
}

func (s *HistoryStore) Entries() []models.HistoryEntry {
	return models.Entries(s.Blocks())
}

func (s *HistoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blocks)
}

func (s *HistoryStore) Validate() error {
	return models.ValidateChain(s.Blocks())
}

func (s *HistoryStore) lastHash() []byte {
	if len(s.blocks) == 0 {
		return models.GenesisPrevHash()
	}
	return s.blocks[len(s.blocks)-1].Hash
}

func (s *HistoryStore) lastTimestamp() int64 {
	if len(s.blocks) == 0 {
		return 0
	}
	return s.blocks[len(s.blocks)-1].Timestamp
}

func loadChainFromFile(path string) (*Chain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Chain{Blocks: make([]*models.HistoryBlock, 0)}, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var chain Chain
	if err := json.Unmarshal(data, &chain); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	if chain.Blocks == nil {
		chain.Blocks = make([]*models.HistoryBlock, 0)
	}
	return &chain, nil
}

func saveChainToFile(path string, chain *Chain) error {
	data, err := json.MarshalIndent(chain, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	// Write to temporary file first
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save history file: %w", err)
	}
	return nil
}
