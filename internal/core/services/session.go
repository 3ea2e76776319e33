package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/gitscope/internal/core/domain"
	"github.com/custodia-labs/gitscope/internal/core/ports/driven"
	"github.com/custodia-labs/gitscope/internal/core/ports/driving"
	"github.com/custodia-labs/gitscope/internal/logger"
)

// Ensure SessionManager implements the interface.
var _ driving.SessionService = (*SessionManager)(nil)

// SessionManager holds the authentication state and mediates between
// token sign-in, OAuth sign-in and sign-out.
//
// A stored token makes the session provisionally authenticated before it
// has been validated; Restore fills in the user once GET /user succeeds.
type SessionManager struct {
	creds driving.CredentialsService
	api   driven.GitHubAPI
	oauth driving.OAuthService

	mu         sync.RWMutex
	session    domain.Session
	generation uint64
	version    uint64
	events     broadcaster[domain.Session]

	unsubscribe []func()
}

// NewSessionManager creates a session manager. The initial state is
// derived from whether a token is already stored.
func NewSessionManager(
	ctx context.Context,
	creds driving.CredentialsService,
	api driven.GitHubAPI,
	oauth driving.OAuthService,
) *SessionManager {
	m := &SessionManager{creds: creds, api: api, oauth: oauth}

	token, err := creds.Token(ctx)
	if err != nil {
		logger.Warn("session: could not read stored token: %v", err)
	}
	m.session.Authenticated = token != ""

	m.unsubscribe = append(m.unsubscribe, creds.Subscribe(func(e driving.CredentialEvent) {
		if !e.Present {
			m.reset()
		}
	}))
	if oauth != nil {
		m.unsubscribe = append(m.unsubscribe, oauth.Subscribe(func(s domain.FlowStatus) {
			if s.State == domain.FlowAuthenticated && s.User != nil {
				m.authenticated(m.currentGeneration(), s.User)
			}
		}))
	}
	return m
}

// Close detaches the manager from the credential store and OAuth flow.
func (m *SessionManager) Close() {
	for _, fn := range m.unsubscribe {
		fn()
	}
}

// Restore validates a stored token by fetching the current user.
// The error is informational: the session is left as it was.
func (m *SessionManager) Restore(ctx context.Context) error {
	token, err := m.creds.Token(ctx)
	if err != nil || token == "" {
		return err
	}

	gen := m.currentGeneration()
	user, err := m.api.CurrentUser(ctx)
	if err != nil {
		logger.Warn("session: stored token could not be validated: %v", err)
		return fmt.Errorf("validate stored token: %w", err)
	}
	m.authenticated(gen, user)
	return nil
}

// AuthenticateWithToken stores token and fetches the user it belongs to.
// The token stays stored when the fetch fails.
func (m *SessionManager) AuthenticateWithToken(ctx context.Context, token string) (*domain.AuthenticatedUser, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrNoTokenProvided
	}

	if err := m.creds.SetToken(ctx, token); err != nil {
		return nil, domain.NewAuthError(domain.AuthNoToken, err)
	}

	gen := m.currentGeneration()
	user, err := m.api.CurrentUser(ctx)
	if err != nil {
		return nil, domain.NewAuthError(domain.AuthUserFetchFailed, err)
	}
	m.authenticated(gen, user)
	logger.Info("session: signed in as %s with token", user.Login)
	return user, nil
}

// AuthenticateWithOAuth delegates to the OAuth flow and relays its result.
func (m *SessionManager) AuthenticateWithOAuth(ctx context.Context) (*domain.AuthenticatedUser, error) {
	if m.oauth == nil {
		return nil, domain.ErrInvalidURL
	}
	return m.oauth.Authenticate(ctx)
}

// SignOut clears the token and the user. Calling it again has no effect.
func (m *SessionManager) SignOut(ctx context.Context) {
	if err := m.creds.Clear(ctx); err != nil {
		logger.Error("session: clear token: %v", err)
	}
	m.reset()
}

// Snapshot returns the current session.
func (m *SessionManager) Snapshot() domain.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// Subscribe registers fn for session changes.
func (m *SessionManager) Subscribe(fn func(domain.Session)) func() {
	return m.events.subscribe(fn)
}

func (m *SessionManager) currentGeneration() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation
}

// authenticated publishes user unless a sign-out happened since gen.
func (m *SessionManager) authenticated(gen uint64, user *domain.AuthenticatedUser) {
	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		logger.Debug("session: dropping user fetched before sign-out")
		return
	}
	m.session = domain.Session{Authenticated: true, User: user}
	m.version++
	v, s := m.version, m.session
	m.mu.Unlock()

	m.events.publish(v, s)
}

func (m *SessionManager) reset() {
	m.mu.Lock()
	m.generation++
	if !m.session.Authenticated && m.session.User == nil {
		m.mu.Unlock()
		return
	}
	m.session = domain.Session{}
	m.version++
	v, s := m.version, m.session
	m.mu.Unlock()

	logger.Info("session: signed out")
	m.events.publish(v, s)
}
