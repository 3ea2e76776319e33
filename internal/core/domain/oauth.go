package domain

import "fmt"

// GitHub OAuth defaults.
const (
	DefaultAuthorizeURL = "https://github.com/login/oauth/authorize"
	DefaultTokenURL     = "https://github.com/login/oauth/access_token"
	DefaultScopes       = "read:user user:email repo"
)

// OAuthConfig holds the fixed parameters of the authorization-code flow.
type OAuthConfig struct {
	ClientID     string
	AuthorizeURL string
	TokenURL     string
	RedirectURI  string
	Scopes       string
}

// ExchangeState is the PKCE material for exactly one authorization attempt.
type ExchangeState struct {
	State         string
	CodeVerifier  string
	CodeChallenge string
}

// FlowState is a state of the OAuth flow machine.
type FlowState int

// OAuth flow states.
const (
	FlowIdle FlowState = iota
	FlowAwaitingRedirect
	FlowExchangingCode
	FlowFetchingUser
	FlowAuthenticated
	FlowFailed
)

func (s FlowState) String() string {
	switch s {
	case FlowIdle:
		return "idle"
	case FlowAwaitingRedirect:
		return "awaiting redirect"
	case FlowExchangingCode:
		return "exchanging code"
	case FlowFetchingUser:
		return "fetching user"
	case FlowAuthenticated:
		return "authenticated"
	case FlowFailed:
		return "failed"
	default:
		return fmt.Sprintf("flow state %d", int(s))
	}
}

// Terminal reports whether the flow has finished.
func (s FlowState) Terminal() bool {
	return s == FlowAuthenticated || s == FlowFailed
}

// FlowStatus is a snapshot of the OAuth flow.
// Err is set when State is FlowFailed.
type FlowStatus struct {
	State     FlowState
	AttemptID string
	User      *AuthenticatedUser
	Err       error
}
