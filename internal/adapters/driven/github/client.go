package github

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/gitscope/internal/core/domain"
	"github.com/custodia-labs/gitscope/internal/core/ports/driven"
	"github.com/custodia-labs/gitscope/internal/logger"
)

// DefaultTimeout is the per-request HTTP timeout.
const DefaultTimeout = 30 * time.Second

// Verify interface compliance.
var _ driven.GitHubAPI = (*Client)(nil)

// Config configures a Client.
type Config struct {
	// BaseURL is the REST API root. It must end with a slash.
	BaseURL string

	// RatePerSecond caps the average request rate.
	RatePerSecond float64

	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration

	// UserAgent overrides the User-Agent header when set.
	UserAgent string
}

// Option customises a Client.
type Option func(*Client)

// WithTransport replaces the network transport beneath the auth and
// retry layers.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.base = rt }
}

// WithSleep replaces the function used to wait between retries.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = sleep }
}

// Request is a raw API request relative to the base URL.
type Request struct {
	Method  string
	Path    string
	Params  url.Values
	Headers http.Header
}

// Response is the raw result of Send.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client talks to the GitHub REST API.
type Client struct {
	gh          *gh.Client
	rateLimiter *RateLimiter
	base        http.RoundTripper
	sleep       sleepFunc

	mu             sync.RWMutex
	onUnauthorized func()
}

// NewClient builds a client that authenticates every request with the
// token currently held by tokens.
func NewClient(cfg Config, tokens TokenSource, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = domain.DefaultAPIBaseURL
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil || !baseURL.IsAbs() {
		return nil, &domain.NetworkError{Kind: domain.NetInvalidURL, Err: fmt.Errorf("base url %q", cfg.BaseURL)}
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = domain.DefaultRatePerSecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{
		rateLimiter: NewRateLimiter(cfg.RatePerSecond),
		base:        http.DefaultTransport,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}

	httpClient := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &headerTransport{
			tokens: tokens,
			base: &retryTransport{
				base:           c.base,
				sleep:          c.sleep,
				onUnauthorized: c.unauthorized,
			},
		},
	}
	c.gh = gh.NewClient(httpClient)
	c.gh.BaseURL = baseURL
	if cfg.UserAgent != "" {
		c.gh.UserAgent = cfg.UserAgent
	}
	return c, nil
}

// OnUnauthorized registers fn to run whenever the API answers 401.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

func (c *Client) unauthorized() {
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// Quota returns the allowance GitHub last reported for resource
// (ResourceCore or ResourceSearch).
func (c *Client) Quota(resource string) (domain.RateQuota, bool) {
	return c.rateLimiter.Quota(resource)
}

// CurrentUser fetches the authenticated user's profile.
func (c *Client) CurrentUser(ctx context.Context) (*domain.AuthenticatedUser, error) {
	if err := c.rateLimiter.Wait(ctx, ResourceCore); err != nil {
		return nil, mapError(nil, err)
	}
	user, resp, err := c.gh.Users.Get(ctx, "")
	c.observe(resp)
	if err != nil {
		return nil, mapError(resp, err)
	}
	if user == nil {
		return nil, domain.ErrNoData
	}
	return toAuthenticatedUser(user), nil
}

// SearchRepositories runs a repository search. Best match sends neither
// sort nor order.
func (c *Client) SearchRepositories(ctx context.Context, q domain.SearchQuery) (domain.Page[domain.Repository], error) {
	if err := c.rateLimiter.Wait(ctx, ResourceSearch); err != nil {
		return domain.Page[domain.Repository]{}, mapError(nil, err)
	}
	logger.Debug("github: search repositories q=%q sort=%q order=%q page=%d", q.Text, q.Sort, q.Order, q.Page)

	result, resp, err := c.gh.Search.Repositories(ctx, q.Text, searchOptions(q))
	c.observe(resp)
	if err != nil {
		return domain.Page[domain.Repository]{}, mapError(resp, err)
	}
	if result == nil {
		return domain.Page[domain.Repository]{}, domain.ErrNoData
	}

	page := domain.Page[domain.Repository]{
		Items:      make([]domain.Repository, 0, len(result.Repositories)),
		TotalCount: result.GetTotal(),
	}
	for _, r := range result.Repositories {
		page.Items = append(page.Items, toRepository(r))
	}
	return page, nil
}

// SearchUsers runs a user search.
func (c *Client) SearchUsers(ctx context.Context, q domain.SearchQuery) (domain.Page[domain.User], error) {
	if err := c.rateLimiter.Wait(ctx, ResourceSearch); err != nil {
		return domain.Page[domain.User]{}, mapError(nil, err)
	}
	logger.Debug("github: search users q=%q sort=%q order=%q page=%d", q.Text, q.Sort, q.Order, q.Page)

	result, resp, err := c.gh.Search.Users(ctx, q.Text, searchOptions(q))
	c.observe(resp)
	if err != nil {
		return domain.Page[domain.User]{}, mapError(resp, err)
	}
	if result == nil {
		return domain.Page[domain.User]{}, domain.ErrNoData
	}

	page := domain.Page[domain.User]{
		Items:      make([]domain.User, 0, len(result.Users)),
		TotalCount: result.GetTotal(),
	}
	for _, u := range result.Users {
		page.Items = append(page.Items, toUser(u))
	}
	return page, nil
}

// UserRepositories lists a user's public repositories, most recently
// updated first. The endpoint has no total, so TotalCount is the number
// of items returned.
func (c *Client) UserRepositories(ctx context.Context, login string, page int) (domain.Page[domain.Repository], error) {
	if strings.TrimSpace(login) == "" {
		return domain.Page[domain.Repository]{}, &domain.NetworkError{Kind: domain.NetInvalidURL, Err: fmt.Errorf("empty login")}
	}
	if page < 1 {
		page = 1
	}
	if err := c.rateLimiter.Wait(ctx, ResourceCore); err != nil {
		return domain.Page[domain.Repository]{}, mapError(nil, err)
	}

	opts := &gh.RepositoryListByUserOptions{
		Sort:        "updated",
		ListOptions: gh.ListOptions{Page: page, PerPage: domain.PerPage},
	}
	repos, resp, err := c.gh.Repositories.ListByUser(ctx, login, opts)
	c.observe(resp)
	if err != nil {
		return domain.Page[domain.Repository]{}, mapError(resp, err)
	}

	result := domain.Page[domain.Repository]{Items: make([]domain.Repository, 0, len(repos))}
	for _, r := range repos {
		result.Items = append(result.Items, toRepository(r))
	}
	result.TotalCount = len(result.Items)
	return result, nil
}

// Send performs a raw request and returns the response body. Non-2xx
// statuses are returned as *domain.NetworkError after the retry policy ran.
func (c *Client) Send(ctx context.Context, r Request) (*Response, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	path := strings.TrimPrefix(r.Path, "/")
	if len(r.Params) > 0 {
		path += "?" + r.Params.Encode()
	}

	req, err := c.gh.NewRequest(method, path, nil)
	if err != nil {
		return nil, &domain.NetworkError{Kind: domain.NetInvalidURL, Err: err}
	}
	for k, vs := range r.Headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resource := ResourceCore
	if strings.HasPrefix(path, "search/") {
		resource = ResourceSearch
	}
	if err := c.rateLimiter.Wait(ctx, resource); err != nil {
		return nil, mapError(nil, err)
	}

	var body bytes.Buffer
	resp, err := c.gh.Do(ctx, req, &body)
	c.observe(resp)
	if err != nil {
		return nil, mapError(resp, err)
	}
	if body.Len() == 0 {
		return nil, domain.ErrNoData
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body.Bytes(),
	}, nil
}

func (c *Client) observe(resp *gh.Response) {
	if resp != nil && resp.Response != nil {
		c.rateLimiter.UpdateFromResponse(resp.Response)
	}
}

func searchOptions(q domain.SearchQuery) *gh.SearchOptions {
	page := q.Page
	if page < 1 {
		page = 1
	}
	perPage := q.PerPage
	if perPage <= 0 {
		perPage = domain.PerPage
	}
	opts := &gh.SearchOptions{ListOptions: gh.ListOptions{Page: page, PerPage: perPage}}
	if q.Sort != domain.SortBestMatch {
		opts.Sort = string(q.Sort)
		opts.Order = string(q.Order)
	}
	return opts
}
