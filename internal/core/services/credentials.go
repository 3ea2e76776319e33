package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/gitscope/internal/core/domain"
	"github.com/custodia-labs/gitscope/internal/core/ports/driven"
	"github.com/custodia-labs/gitscope/internal/core/ports/driving"
	"github.com/custodia-labs/gitscope/internal/logger"
)

// Ensure CredentialsService implements the interface.
var _ driving.CredentialsService = (*CredentialsService)(nil)

// CredentialsService owns the single bearer token. Reads and writes are
// serialized, so the last write wins for every reader.
type CredentialsService struct {
	store driven.TokenStore

	mu      sync.RWMutex
	version uint64
	events  broadcaster[driving.CredentialEvent]
}

// NewCredentialsService creates a new credentials service.
func NewCredentialsService(store driven.TokenStore) *CredentialsService {
	return &CredentialsService{store: store}
}

// Token returns the stored token, or "" when none is stored.
func (s *CredentialsService) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, err := s.store.Load(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return token, nil
}

// SetToken stores the token and notifies subscribers.
func (s *CredentialsService) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	if err := s.store.Save(ctx, token); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("save token: %w", err)
	}
	s.version++
	v := s.version
	s.mu.Unlock()

	logger.Debug("credentials: token stored (%s)", logger.Redact(token))
	s.events.publish(v, driving.CredentialEvent{Present: true})
	return nil
}

// Clear removes the token and notifies subscribers.
func (s *CredentialsService) Clear(ctx context.Context) error {
	s.mu.Lock()
	if err := s.store.Delete(ctx); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("delete token: %w", err)
	}
	s.version++
	v := s.version
	s.mu.Unlock()

	logger.Debug("credentials: token cleared")
	s.events.publish(v, driving.CredentialEvent{Present: false})
	return nil
}

// Subscribe registers fn for credential changes.
func (s *CredentialsService) Subscribe(fn func(driving.CredentialEvent)) func() {
	return s.events.subscribe(fn)
}
