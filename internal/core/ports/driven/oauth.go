package driven

import (
	"context"
	"net/url"
)

// ExchangeRequest carries the parameters of an authorization-code exchange.
type ExchangeRequest struct {
	Code         string
	CodeVerifier string
	RedirectURI  string
}

// TokenExchanger trades an authorization code for an access token.
// A JSON error from the authority is returned as domain.GitHubError; any
// other failure wraps domain.ErrTokenExchangeFailed.
type TokenExchanger interface {
	Exchange(ctx context.Context, req ExchangeRequest) (string, error)
}

// UserAgent is the browser surface that shows the authorization page and
// receives the redirect. The flow engine does not own it.
type UserAgent interface {
	// RedirectURI is the callback address registered with the authority.
	RedirectURI() string

	// Authorize presents authURL and blocks until the redirect arrives,
	// the user abandons it, or ctx ends. It returns the full callback URL.
	Authorize(ctx context.Context, authURL string) (*url.URL, error)
}
