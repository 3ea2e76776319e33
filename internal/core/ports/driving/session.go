package driving

import (
	"context"

	"github.com/custodia-labs/gitscope/internal/core/domain"
)

// SessionService holds the authentication state.
type SessionService interface {
	// Restore validates a previously stored token by fetching the current
	// user. A failed fetch leaves the session provisionally authenticated.
	Restore(ctx context.Context) error

	// AuthenticateWithToken signs in with a personal access token.
	AuthenticateWithToken(ctx context.Context, token string) (*domain.AuthenticatedUser, error)

	// AuthenticateWithOAuth runs the browser authorization flow.
	AuthenticateWithOAuth(ctx context.Context) (*domain.AuthenticatedUser, error)

	// SignOut clears the token and the current user. It is idempotent.
	SignOut(ctx context.Context)

	// Snapshot returns the current session.
	Snapshot() domain.Session

	// Subscribe registers fn for session changes.
	Subscribe(fn func(domain.Session)) (unsubscribe func())
}

// OAuthService drives the authorization-code flow with PKCE.
type OAuthService interface {
	// Begin starts an attempt and returns the authorization URL.
	Begin(ctx context.Context) (string, error)

	// Complete finishes the attempt with the redirect the user agent received.
	Complete(ctx context.Context, callback string) (*domain.AuthenticatedUser, error)

	// Authenticate runs Begin, the user agent and Complete in sequence.
	Authenticate(ctx context.Context) (*domain.AuthenticatedUser, error)

	// Cancel abandons the in-flight attempt, if any.
	Cancel()

	// Status returns the current flow state.
	Status() domain.FlowStatus

	// Subscribe registers fn for flow state changes.
	Subscribe(fn func(domain.FlowStatus)) (unsubscribe func())
}
