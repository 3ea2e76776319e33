package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/gitscope/internal/core/domain"
	"github.com/custodia-labs/gitscope/internal/core/ports/driven"
)

// Ensure TokenStore implements the interface.
var _ driven.TokenStore = (*TokenStore)(nil)

// TokenStore keeps the token in process memory. Used by tests and by
// --ephemeral sessions that must not touch disk.
type TokenStore struct {
	mu    sync.RWMutex
	token string
	set   bool
}

// NewTokenStore creates an empty token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Load returns the token or domain.ErrNotFound.
func (s *TokenStore) Load(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.set {
		return "", domain.ErrNotFound
	}
	return s.token, nil
}

// Save replaces the token.
func (s *TokenStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.set = token, true
	return nil
}

// Delete removes the token.
func (s *TokenStore) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.set = "", false
	return nil
}
