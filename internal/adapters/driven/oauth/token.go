package oauth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/gitscope/internal/core/domain"
	"github.com/custodia-labs/gitscope/internal/core/ports/driven"
	"github.com/custodia-labs/gitscope/internal/logger"
)

// DefaultExchangeTimeout bounds the token request.
const DefaultExchangeTimeout = 30 * time.Second

// Verify interface compliance.
var _ driven.TokenExchanger = (*Exchanger)(nil)

// Exchanger trades authorization codes for access tokens at the
// configured token endpoint. It sends no client secret; the PKCE verifier
// proves possession instead.
type Exchanger struct {
	cfg        domain.OAuthConfig
	httpClient *http.Client
}

// ExchangerOption customises an Exchanger.
type ExchangerOption func(*Exchanger)

// WithHTTPClient replaces the HTTP client used for the token request.
func WithHTTPClient(c *http.Client) ExchangerOption {
	return func(e *Exchanger) { e.httpClient = c }
}

// NewExchanger creates an exchanger for cfg.
func NewExchanger(cfg domain.OAuthConfig, opts ...ExchangerOption) *Exchanger {
	if cfg.TokenURL == "" {
		cfg.TokenURL = domain.DefaultTokenURL
	}
	if cfg.AuthorizeURL == "" {
		cfg.AuthorizeURL = domain.DefaultAuthorizeURL
	}
	e := &Exchanger{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: DefaultExchangeTimeout},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Exchange posts the code and verifier and returns the access token.
func (e *Exchanger) Exchange(ctx context.Context, req driven.ExchangeRequest) (string, error) {
	conf := &oauth2.Config{
		ClientID: e.cfg.ClientID,
		Endpoint: oauth2.Endpoint{
			AuthURL:   e.cfg.AuthorizeURL,
			TokenURL:  e.cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: req.RedirectURI,
	}

	client := *e.httpClient
	client.Transport = &acceptJSON{base: client.Transport}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &client)

	logger.Debug("oauth: exchanging code at %s", e.cfg.TokenURL)
	tok, err := conf.Exchange(ctx, req.Code, oauth2.VerifierOption(req.CodeVerifier))
	if err != nil {
		return "", classifyExchangeError(err)
	}
	if tok.AccessToken == "" {
		return "", domain.ErrNoToken
	}
	logger.Debug("oauth: received token %s", logger.Redact(tok.AccessToken))
	return tok.AccessToken, nil
}

// classifyExchangeError maps oauth2 failures onto auth errors. GitHub
// reports bad codes with status 200 and an error body, which is the
// authority's own message; a failing status is an exchange failure.
func classifyExchangeError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		if status == http.StatusOK && re.ErrorCode != "" {
			msg := re.ErrorDescription
			if msg == "" {
				msg = re.ErrorCode
			}
			return domain.GitHubError(msg)
		}
		return domain.NewAuthError(domain.AuthTokenExchangeFailed, err)
	}
	if strings.Contains(err.Error(), "missing access_token") {
		return domain.ErrNoToken
	}
	return domain.NewAuthError(domain.AuthTokenExchangeFailed, err)
}

// acceptJSON asks the token endpoint for a JSON body.
type acceptJSON struct {
	base http.RoundTripper
}

func (t *acceptJSON) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	req = req.Clone(req.Context())
	req.Header.Set("Accept", "application/json")
	return base.RoundTrip(req)
}
