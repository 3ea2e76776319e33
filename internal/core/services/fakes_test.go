package services

import (
	"context"
	"net/url"
	"sync"

	"github.com/custodia-labs/gitscope/internal/core/domain"
	"github.com/custodia-labs/gitscope/internal/core/ports/driven"
)

// fakeGitHub implements driven.GitHubAPI with overridable behaviour.
type fakeGitHub struct {
	mu        sync.Mutex
	user      *domain.AuthenticatedUser
	userErr   error
	userCalls int

	// beforeUser runs at the start of CurrentUser.
	beforeUser func(ctx context.Context)

	searchRepos func(ctx context.Context, q domain.SearchQuery) (domain.Page[domain.Repository], error)
	searchUsers func(ctx context.Context, q domain.SearchQuery) (domain.Page[domain.User], error)
	userRepos   func(ctx context.Context, login string, page int) (domain.Page[domain.Repository], error)
}

var _ driven.GitHubAPI = (*fakeGitHub)(nil)

func (f *fakeGitHub) CurrentUser(ctx context.Context) (*domain.AuthenticatedUser, error) {
	f.mu.Lock()
	f.userCalls++
	hook := f.beforeUser
	user, err := f.user, f.userErr
	f.mu.Unlock()

	if hook != nil {
		hook(ctx)
	}
	return user, err
}

func (f *fakeGitHub) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.userCalls
}

func (f *fakeGitHub) SearchRepositories(ctx context.Context, q domain.SearchQuery) (domain.Page[domain.Repository], error) {
	return f.searchRepos(ctx, q)
}

func (f *fakeGitHub) SearchUsers(ctx context.Context, q domain.SearchQuery) (domain.Page[domain.User], error) {
	return f.searchUsers(ctx, q)
}

func (f *fakeGitHub) UserRepositories(ctx context.Context, login string, page int) (domain.Page[domain.Repository], error) {
	return f.userRepos(ctx, login, page)
}

// fakeExchanger implements driven.TokenExchanger.
type fakeExchanger struct {
	mu    sync.Mutex
	token string
	err   error
	calls int
	last  driven.ExchangeRequest
}

func (f *fakeExchanger) Exchange(_ context.Context, req driven.ExchangeRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = req
	return f.token, f.err
}

// fakeAgent implements driven.UserAgent by handing the authorization URL
// to respond.
type fakeAgent struct {
	redirect string
	respond  func(ctx context.Context, authURL *url.URL) (*url.URL, error)
}

func (a *fakeAgent) RedirectURI() string { return a.redirect }

func (a *fakeAgent) Authorize(ctx context.Context, authURL string) (*url.URL, error) {
	u, err := url.Parse(authURL)
	if err != nil {
		return nil, err
	}
	return a.respond(ctx, u)
}

// approve returns a responder that redirects back with code and the
// state taken from the authorization URL.
func approve(code string) func(context.Context, *url.URL) (*url.URL, error) {
	return func(_ context.Context, authURL *url.URL) (*url.URL, error) {
		q := url.Values{}
		q.Set("code", code)
		q.Set("state", authURL.Query().Get("state"))
		return url.Parse("http://127.0.0.1:8765/callback?" + q.Encode())
	}
}

func testUser(login string) *domain.AuthenticatedUser {
	return &domain.AuthenticatedUser{User: domain.User{ID: 1, Login: login}}
}
