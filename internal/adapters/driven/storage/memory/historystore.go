package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/gitscope/internal/core/domain"
	"github.com/custodia-labs/gitscope/internal/core/ports/driven"
)

// Ensure HistoryStore implements the interface.
var _ driven.HistoryStore = (*HistoryStore)(nil)

// HistoryStore is an in-memory implementation of driven.HistoryStore.
type HistoryStore struct {
	mu    sync.RWMutex
	lists map[string][]domain.HistoryItem
	saves int
}

// NewHistoryStore creates an empty history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{lists: make(map[string][]domain.HistoryItem)}
}

// Load returns a copy of the list at path.
func (s *HistoryStore) Load(_ context.Context, path string) ([]domain.HistoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.lists[path]), nil
}

// Save replaces the list at path.
func (s *HistoryStore) Save(_ context.Context, path string, items []domain.HistoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[path] = slices.Clone(items)
	s.saves++
	return nil
}

// Saves returns how many times Save was called.
func (s *HistoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
