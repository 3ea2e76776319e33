package driving

import "context"

// CredentialEvent describes a change to the stored token.
type CredentialEvent struct {
	// Present is true after a token was set and false after it was cleared.
	Present bool
}

// CredentialsService owns the bearer token.
type CredentialsService interface {
	// Token returns the stored token, or "" when none is stored.
	Token(ctx context.Context) (string, error)

	// SetToken stores the token and notifies subscribers.
	SetToken(ctx context.Context, token string) error

	// Clear removes the token and notifies subscribers.
	Clear(ctx context.Context) error

	// Subscribe registers fn for credential changes and returns a
	// function that removes it.
	Subscribe(fn func(CredentialEvent)) (unsubscribe func())
}
