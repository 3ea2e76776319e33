package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/custodia-labs/gitscope/internal/core/domain"
	"github.com/custodia-labs/gitscope/internal/core/ports/driven"
	"github.com/custodia-labs/gitscope/internal/core/ports/driving"
	"github.com/custodia-labs/gitscope/internal/logger"
)

// Ensure OAuthFlow implements the interface.
var _ driving.OAuthService = (*OAuthFlow)(nil)

// OAuthFlow drives the authorization-code flow with PKCE:
//
//	Idle -> AwaitingRedirect -> ExchangingCode -> FetchingUser -> Authenticated
//
// Failed is reachable from every non-idle state. At most one attempt is in
// flight; its PKCE material is discarded when the attempt ends.
type OAuthFlow struct {
	cfg       domain.OAuthConfig
	agent     driven.UserAgent
	exchanger driven.TokenExchanger
	api       driven.GitHubAPI
	creds     driving.CredentialsService
	newID     func() string

	mu      sync.Mutex
	attempt *oauthAttempt
	status  domain.FlowStatus
	version uint64
	seq     int
	events  broadcaster[domain.FlowStatus]
}

type oauthAttempt struct {
	id       string
	exchange domain.ExchangeState
	cancels  []context.CancelFunc
}

// OAuthFlowOption configures an OAuthFlow.
type OAuthFlowOption func(*OAuthFlow)

// WithAttemptIDs sets the generator for attempt ids used in logs.
func WithAttemptIDs(fn func() string) OAuthFlowOption {
	return func(f *OAuthFlow) { f.newID = fn }
}

// NewOAuthFlow creates an OAuth flow. agent may be nil when callbacks are
// delivered through Complete, as in manual copy-and-paste sign-in.
func NewOAuthFlow(
	cfg domain.OAuthConfig,
	agent driven.UserAgent,
	exchanger driven.TokenExchanger,
	api driven.GitHubAPI,
	creds driving.CredentialsService,
	opts ...OAuthFlowOption,
) *OAuthFlow {
	f := &OAuthFlow{
		cfg:       cfg,
		agent:     agent,
		exchanger: exchanger,
		api:       api,
		creds:     creds,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.newID == nil {
		f.newID = func() string {
			f.seq++
			return "attempt-" + strconv.Itoa(f.seq)
		}
	}
	return f
}

// Begin starts an attempt and returns the authorization URL to open.
func (f *OAuthFlow) Begin(_ context.Context) (string, error) {
	f.mu.Lock()
	if f.attempt != nil {
		f.mu.Unlock()
		return "", domain.ErrFlowInProgress
	}

	ex, err := newExchangeState()
	if err != nil {
		f.mu.Unlock()
		return "", fmt.Errorf("generate pkce: %w", err)
	}
	a := &oauthAttempt{id: f.newID(), exchange: ex}
	f.attempt = a
	f.mu.Unlock()

	logger.Section("OAuth")
	logger.Debug("oauth[%s]: starting, client_id=%s redirect_uri=%s", a.id, f.cfg.ClientID, f.cfg.RedirectURI)

	authURL, err := f.authorizeURL(ex)
	if err != nil {
		return "", f.fail(a, domain.NewAuthError(domain.AuthInvalidURL, err))
	}

	f.transition(a, domain.FlowAwaitingRedirect, nil)
	return authURL, nil
}

// authorizeURL builds the authorization endpoint URL for ex.
func (f *OAuthFlow) authorizeURL(ex domain.ExchangeState) (string, error) {
	u, err := url.Parse(f.cfg.AuthorizeURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("authorize endpoint %q is not absolute", f.cfg.AuthorizeURL)
	}

	q := u.Query()
	q.Set("client_id", f.cfg.ClientID)
	q.Set("redirect_uri", f.cfg.RedirectURI)
	q.Set("scope", f.cfg.Scopes)
	q.Set("state", ex.State)
	q.Set("code_challenge", ex.CodeChallenge)
	q.Set("code_challenge_method", "S256")
	q.Set("allow_signup", "true")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Authenticate runs a complete attempt through the user agent.
func (f *OAuthFlow) Authenticate(ctx context.Context) (*domain.AuthenticatedUser, error) {
	if f.agent == nil {
		return nil, domain.NewAuthError(domain.AuthInvalidCallback, errors.New("no user agent configured"))
	}

	authURL, err := f.Begin(ctx)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	a := f.attempt
	f.mu.Unlock()
	if a == nil {
		return nil, domain.ErrInvalidCallback
	}
	actx, cancel := f.track(ctx, a)
	defer cancel()

	callback, err := f.agent.Authorize(actx, authURL)
	if err != nil {
		return nil, f.fail(a, domain.NewAuthError(domain.AuthInvalidCallback, err))
	}
	if callback == nil {
		return nil, f.fail(a, domain.ErrInvalidCallback)
	}
	return f.Complete(ctx, callback.String())
}

// Complete validates the redirect and finishes the attempt: exchange the
// code, persist the token, then fetch the signed-in user.
func (f *OAuthFlow) Complete(ctx context.Context, callback string) (*domain.AuthenticatedUser, error) {
	f.mu.Lock()
	a := f.attempt
	f.mu.Unlock()

	u, err := url.Parse(callback)
	if callback == "" || err != nil {
		return nil, f.fail(a, domain.NewAuthError(domain.AuthInvalidCallback, err))
	}
	if a == nil {
		return nil, domain.ErrNoCodeVerifier
	}

	query := u.Query()
	if query.Get("state") != a.exchange.State {
		logger.Warn("oauth[%s]: state mismatch, refusing to exchange code", a.id)
		return nil, f.fail(a, domain.ErrStateMismatch)
	}
	if e := query.Get("error"); e != "" {
		msg := query.Get("error_description")
		if msg == "" {
			msg = e
		}
		return nil, f.fail(a, domain.GitHubError(msg))
	}
	code := query.Get("code")
	if code == "" {
		return nil, f.fail(a, domain.ErrNoCode)
	}

	ctx, cancel := f.track(ctx, a)
	defer cancel()

	if !f.transition(a, domain.FlowExchangingCode, nil) {
		return nil, domain.ErrInvalidCallback
	}
	token, err := f.exchanger.Exchange(ctx, driven.ExchangeRequest{
		Code:         code,
		CodeVerifier: a.exchange.CodeVerifier,
		RedirectURI:  f.cfg.RedirectURI,
	})
	if err != nil {
		var ae *domain.AuthError
		if !errors.As(err, &ae) {
			err = domain.NewAuthError(domain.AuthTokenExchangeFailed, err)
		}
		return nil, f.fail(a, err)
	}
	if token == "" {
		return nil, f.fail(a, domain.ErrNoToken)
	}
	if !f.current(a) {
		return nil, domain.ErrInvalidCallback
	}
	if err := f.creds.SetToken(ctx, token); err != nil {
		return nil, f.fail(a, domain.NewAuthError(domain.AuthNoToken, err))
	}
	logger.Debug("oauth[%s]: token stored", a.id)

	if !f.transition(a, domain.FlowFetchingUser, nil) {
		return nil, domain.ErrInvalidCallback
	}
	user, err := f.api.CurrentUser(ctx)
	if err != nil {
		return nil, f.fail(a, domain.NewAuthError(domain.AuthUserFetchFailed, err))
	}

	f.transition(a, domain.FlowAuthenticated, user)
	logger.Info("oauth[%s]: signed in as %s", a.id, user.Login)
	return user, nil
}

// Cancel abandons the in-flight attempt.
func (f *OAuthFlow) Cancel() {
	f.mu.Lock()
	a := f.attempt
	f.mu.Unlock()
	if a == nil {
		return
	}
	_ = f.fail(a, domain.NewAuthError(domain.AuthInvalidCallback, context.Canceled))
}

// Status returns the current flow state.
func (f *OAuthFlow) Status() domain.FlowStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Subscribe registers fn for flow state changes.
func (f *OAuthFlow) Subscribe(fn func(domain.FlowStatus)) func() {
	return f.events.subscribe(fn)
}

// track derives a context that Cancel can abort.
func (f *OAuthFlow) track(ctx context.Context, a *oauthAttempt) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	f.mu.Lock()
	a.cancels = append(a.cancels, cancel)
	f.mu.Unlock()
	return ctx, cancel
}

func (f *OAuthFlow) current(a *oauthAttempt) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempt == a
}

// transition moves a to state if a is still the current attempt.
// Terminal states end the attempt.
func (f *OAuthFlow) transition(a *oauthAttempt, state domain.FlowState, user *domain.AuthenticatedUser) bool {
	f.mu.Lock()
	if f.attempt != a {
		f.mu.Unlock()
		return false
	}
	f.status = domain.FlowStatus{State: state, AttemptID: a.id, User: user}
	if state.Terminal() {
		f.attempt = nil
	}
	f.version++
	v, s := f.version, f.status
	f.mu.Unlock()

	logger.Debug("oauth[%s]: %s", a.id, state)
	f.events.publish(v, s)
	return true
}

// fail ends a with err and returns err. Stale attempts are ignored.
func (f *OAuthFlow) fail(a *oauthAttempt, err error) error {
	if a == nil {
		return err
	}

	f.mu.Lock()
	if f.attempt != a {
		f.mu.Unlock()
		return err
	}
	f.attempt = nil
	f.status = domain.FlowStatus{State: domain.FlowFailed, AttemptID: a.id, Err: err}
	f.version++
	v, s := f.version, f.status
	cancels := a.cancels
	a.cancels = nil
	f.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	logger.Warn("oauth[%s]: failed: %v", a.id, err)
	f.events.publish(v, s)
	return err
}
