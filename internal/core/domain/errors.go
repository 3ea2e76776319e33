package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSuperseded indicates a search result was discarded because a
	// newer query replaced it before it arrived.
	ErrSuperseded = errors.New("superseded by a newer query")

	// ErrFlowInProgress indicates an OAuth attempt is already running.
	ErrFlowInProgress = errors.New("authorization already in progress")

	// ErrNotAuthenticated indicates an operation needs a signed-in session.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// AuthErrorKind enumerates the ways authentication can fail.
type AuthErrorKind int

// Authentication failure kinds.
const (
	AuthInvalidURL AuthErrorKind = iota + 1
	AuthInvalidCallback
	AuthStateMismatch
	AuthNoCode
	AuthNoCodeVerifier
	AuthTokenExchangeFailed
	AuthGitHubError
	AuthNoToken
	AuthUserFetchFailed
	AuthNoTokenProvided
)

var authKindNames = map[AuthErrorKind]string{
	AuthInvalidURL:          "invalid authorization URL",
	AuthInvalidCallback:     "invalid callback",
	AuthStateMismatch:       "state mismatch",
	AuthNoCode:              "no authorization code",
	AuthNoCodeVerifier:      "no code verifier",
	AuthTokenExchangeFailed: "token exchange failed",
	AuthGitHubError:         "github error",
	AuthNoToken:             "no access token",
	AuthUserFetchFailed:     "user fetch failed",
	AuthNoTokenProvided:     "no token provided",
}

// String returns a short description of the kind.
func (k AuthErrorKind) String() string {
	if s, ok := authKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("auth error %d", int(k))
}

// AuthError is returned by the session manager and OAuth flow.
// Message carries the authority's description for AuthGitHubError.
type AuthError struct {
	Kind    AuthErrorKind
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	msg := e.Kind.String()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is matches any AuthError of the same kind, so errors.Is works against
// the Err* values below regardless of message or cause.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Kind == e.Kind
}

// Authentication error values for use with errors.Is.
var (
	ErrInvalidURL          = &AuthError{Kind: AuthInvalidURL}
	ErrInvalidCallback     = &AuthError{Kind: AuthInvalidCallback}
	ErrStateMismatch       = &AuthError{Kind: AuthStateMismatch}
	ErrNoCode              = &AuthError{Kind: AuthNoCode}
	ErrNoCodeVerifier      = &AuthError{Kind: AuthNoCodeVerifier}
	ErrTokenExchangeFailed = &AuthError{Kind: AuthTokenExchangeFailed}
	ErrGitHub              = &AuthError{Kind: AuthGitHubError}
	ErrNoToken             = &AuthError{Kind: AuthNoToken}
	ErrUserFetchFailed     = &AuthError{Kind: AuthUserFetchFailed}
	ErrNoTokenProvided     = &AuthError{Kind: AuthNoTokenProvided}
)

// NewAuthError builds an AuthError of the given kind wrapping err.
func NewAuthError(kind AuthErrorKind, err error) *AuthError {
	return &AuthError{Kind: kind, Err: err}
}

// GitHubError reports an error message returned by the OAuth authority.
func GitHubError(message string) *AuthError {
	return &AuthError{Kind: AuthGitHubError, Message: message}
}

// NetworkErrorKind enumerates HTTP client failures.
type NetworkErrorKind int

// Network failure kinds.
const (
	NetInvalidURL NetworkErrorKind = iota + 1
	NetNoData
	NetDecoding
	NetServer
	NetTransport
)

var netKindNames = map[NetworkErrorKind]string{
	NetInvalidURL: "invalid URL",
	NetNoData:     "no data",
	NetDecoding:   "decoding error",
	NetServer:     "server error",
	NetTransport:  "network error",
}

// String returns a short description of the kind.
func (k NetworkErrorKind) String() string {
	if s, ok := netKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("network error %d", int(k))
}

// NetworkError is returned by the GitHub API client.
// StatusCode is set for NetServer.
type NetworkError struct {
	Kind       NetworkErrorKind
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	msg := e.Kind.String()
	if e.Kind == NetServer {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is matches any NetworkError of the same kind.
func (e *NetworkError) Is(target error) bool {
	t, ok := target.(*NetworkError)
	return ok && t.Kind == e.Kind
}

// Network error values for use with errors.Is.
var (
	ErrNetInvalidURL = &NetworkError{Kind: NetInvalidURL}
	ErrNoData        = &NetworkError{Kind: NetNoData}
	ErrDecoding      = &NetworkError{Kind: NetDecoding}
	ErrServer        = &NetworkError{Kind: NetServer}
	ErrTransport     = &NetworkError{Kind: NetTransport}
)

// ServerError builds a NetServer error for an HTTP status.
func ServerError(status int, err error) *NetworkError {
	return &NetworkError{Kind: NetServer, StatusCode: status, Err: err}
}

// StatusCode extracts the HTTP status from a server error, or 0.
func StatusCode(err error) int {
	var ne *NetworkError
	if errors.As(err, &ne) && ne.Kind == NetServer {
		return ne.StatusCode
	}
	return 0
}

// UserMessage translates an error into text suitable for display
// next to a form or search box.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var ae *AuthError
	if errors.As(err, &ae) {
		switch ae.Kind {
		case AuthNoTokenProvided:
			return "Please enter a personal access token."
		case AuthStateMismatch:
			return "Sign-in was rejected because the response did not match this request. Please try again."
		case AuthInvalidCallback:
			return "Sign-in was cancelled or the browser returned an invalid response."
		case AuthNoCode:
			return "GitHub did not return an authorization code."
		case AuthGitHubError:
			return "GitHub rejected the sign-in: " + ae.Message
		case AuthTokenExchangeFailed, AuthNoToken:
			return "Could not obtain an access token from GitHub."
		case AuthUserFetchFailed:
			return "Signed in, but your profile could not be loaded."
		default:
			return "Sign-in failed: " + ae.Kind.String() + "."
		}
	}

	var ne *NetworkError
	if errors.As(err, &ne) {
		switch {
		case ne.Kind == NetDecoding:
			return "GitHub returned a response that could not be read."
		case ne.Kind == NetTransport:
			return "Network unavailable. Check your connection and try again."
		case ne.Kind == NetServer && ne.StatusCode == 401:
			return "Your session has expired. Please sign in again."
		case ne.Kind == NetServer && (ne.StatusCode == 403 || ne.StatusCode == 429):
			return "GitHub rate limit reached. Wait a moment and try again."
		case ne.Kind == NetServer && ne.StatusCode == 422:
			return "GitHub could not process this query."
		case ne.Kind == NetServer:
			return fmt.Sprintf("GitHub returned an error (%d).", ne.StatusCode)
		default:
			return "Request failed: " + ne.Kind.String() + "."
		}
	}

	if errors.Is(err, ErrNotAuthenticated) {
		return "Sign in to continue."
	}
	return err.Error()
}
