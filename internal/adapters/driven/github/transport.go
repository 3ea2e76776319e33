package github

import (
	"context"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/gitscope/internal/logger"
)

const (
	// MediaType is sent as Accept on every request.
	MediaType = "application/vnd.github+json"

	// APIVersion is sent as X-GitHub-Api-Version on every request.
	APIVersion = "2022-11-28"

	// ForbiddenRetryDelay is the pause before retrying a 403.
	ForbiddenRetryDelay = 2 * time.Second

	// TooManyRequestsRetryDelay is the pause before retrying a 429.
	TooManyRequestsRetryDelay = 5 * time.Second
)

// TokenSource yields the bearer token for a request, or "" when signed out.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// headerTransport injects the GitHub headers into every request.
type headerTransport struct {
	base   http.RoundTripper
	tokens TokenSource
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Accept", MediaType)
	req.Header.Set("X-GitHub-Api-Version", APIVersion)
	req.Header.Del("Authorization")

	if t.tokens != nil {
		token, err := t.tokens.Token(req.Context())
		if err != nil {
			logger.Warn("github: read token: %v", err)
		}
		if token != "" {
			(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
		}
	}
	return t.base.RoundTrip(req)
}

// sleepFunc pauses for d or until ctx ends.
type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// retryTransport applies the status-code retry policy. It retries at most
// once per request; every other status is returned as is.
type retryTransport struct {
	base           http.RoundTripper
	sleep          sleepFunc
	onUnauthorized func()
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	delay, retryable := t.check(req, resp)
	if !retryable {
		return resp, nil
	}
	retry, ok := rewind(req)
	if !ok {
		return resp, nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	logger.Debug("github: %s %s returned %d, retrying in %s", req.Method, req.URL.Path, resp.StatusCode, delay)
	if err := t.sleep(req.Context(), delay); err != nil {
		return nil, err
	}
	resp, err = t.base.RoundTrip(retry)
	if err != nil {
		return nil, err
	}
	// A second 403 or 429 is returned as is; a 401 still signs out.
	t.check(req, resp)
	return resp, nil
}

// check reports the retry delay for resp and fires the 401 hook.
func (t *retryTransport) check(req *http.Request, resp *http.Response) (time.Duration, bool) {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		logger.Warn("github: %s %s returned 401, signing out", req.Method, req.URL.Path)
		if t.onUnauthorized != nil {
			t.onUnauthorized()
		}
	case http.StatusForbidden:
		return ForbiddenRetryDelay, true
	case http.StatusTooManyRequests:
		return TooManyRequestsRetryDelay, true
	}
	return 0, false
}

// rewind returns a copy of req that can be sent again.
func rewind(req *http.Request) (*http.Request, bool) {
	retry := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return retry, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	retry.Body = body
	return retry, true
}
