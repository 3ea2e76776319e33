package driven

import "context"

// TokenStore persists the single bearer token.
// Implementations key the secret by a fixed service and account pair
// and must encrypt it at rest.
type TokenStore interface {
	// Load returns the stored token, or domain.ErrNotFound.
	Load(ctx context.Context) (string, error)

	// Save stores the token, replacing any previous one.
	Save(ctx context.Context, token string) error

	// Delete removes the token. Deleting a missing token is not an error.
	Delete(ctx context.Context) error
}
