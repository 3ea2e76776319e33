package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gitscope/internal/core/domain"
)

type staticTokens struct{ token string }

func (s staticTokens) Token(_ context.Context) (string, error) { return s.token, nil }

// sleepRecorder records retry delays without waiting.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return nil
}

func (s *sleepRecorder) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

func newTestClient(t *testing.T, handler http.HandlerFunc, token string) (*Client, *sleepRecorder) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	rec := &sleepRecorder{}
	client, err := NewClient(Config{BaseURL: srv.URL + "/", RatePerSecond: 1000}, staticTokens{token}, WithSleep(rec.sleep))
	require.NoError(t, err)
	return client, rec
}

const repoSearchBody = `{"total_count": 2, "items": [
	{"id": 1, "name": "go", "full_name": "golang/go", "html_url": "https://github.com/golang/go",
	 "stargazers_count": 120000, "forks_count": 17000, "language": "Go",
	 "updated_at": "2024-05-01T10:00:00Z", "owner": {"login": "golang"}},
	{"id": 2, "name": "tools", "full_name": "golang/tools", "owner": {"login": "golang"}}
]}`

func TestNewClient(t *testing.T) {
	t.Run("adds trailing slash to base url", func(t *testing.T) {
		c, err := NewClient(Config{BaseURL: "https://ghe.example.com/api/v3"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "https://ghe.example.com/api/v3/", c.gh.BaseURL.String())
	})

	t.Run("rejects relative base url", func(t *testing.T) {
		_, err := NewClient(Config{BaseURL: "api/v3"}, nil)
		assert.ErrorIs(t, err, domain.ErrNetInvalidURL)
	})

	t.Run("defaults to public api", func(t *testing.T) {
		c, err := NewClient(Config{}, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultAPIBaseURL, c.gh.BaseURL.String())
	})
}

func TestClient_Headers(t *testing.T) {
	t.Run("sends api headers and bearer token", func(t *testing.T) {
		var got http.Header
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Clone()
			fmt.Fprint(w, `{"id": 7, "login": "octocat", "name": "The Octocat"}`)
		}, "tok-123")

		user, err := client.CurrentUser(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "octocat", user.Login)
		assert.Equal(t, "The Octocat", user.Name)

		assert.Equal(t, MediaType, got.Get("Accept"))
		assert.Equal(t, APIVersion, got.Get("X-GitHub-Api-Version"))
		assert.Equal(t, "Bearer tok-123", got.Get("Authorization"))
	})

	t.Run("omits authorization when signed out", func(t *testing.T) {
		var auth []string
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Values("Authorization")
			fmt.Fprint(w, repoSearchBody)
		}, "")

		_, err := client.SearchRepositories(context.Background(), domain.NewSearchQuery("go"))
		require.NoError(t, err)
		assert.Empty(t, auth)
	})
}

func TestClient_SearchRepositories(t *testing.T) {
	t.Run("best match sends neither sort nor order", func(t *testing.T) {
		var query url.Values
		var path string
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			query = r.URL.Query()
			fmt.Fprint(w, repoSearchBody)
		}, "tok")

		page, err := client.SearchRepositories(context.Background(), domain.NewSearchQuery("go lang"))
		require.NoError(t, err)

		assert.Equal(t, "/search/repositories", path)
		assert.Equal(t, "go lang", query.Get("q"))
		assert.Equal(t, "1", query.Get("page"))
		assert.Equal(t, "30", query.Get("per_page"))
		assert.False(t, query.Has("sort"))
		assert.False(t, query.Has("order"))

		assert.Equal(t, 2, page.TotalCount)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "golang/go", page.Items[0].FullName)
		assert.Equal(t, 120000, page.Items[0].Stars)
		assert.Equal(t, "golang", page.Items[0].Owner.Login)
		assert.Equal(t, 2024, page.Items[0].UpdatedAt.Year())
	})

	t.Run("sends sort and order", func(t *testing.T) {
		var query url.Values
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			query = r.URL.Query()
			fmt.Fprint(w, repoSearchBody)
		}, "tok")

		q := domain.NewSearchQuery("go")
		q.Sort = domain.SortStars
		q.Order = domain.OrderAsc
		q.Page = 3
		_, err := client.SearchRepositories(context.Background(), q)
		require.NoError(t, err)

		assert.Equal(t, "stars", query.Get("sort"))
		assert.Equal(t, "asc", query.Get("order"))
		assert.Equal(t, "3", query.Get("page"))
	})

	t.Run("maps malformed body to decoding error", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"total_count": "many", "items": []}`)
		}, "tok")

		_, err := client.SearchRepositories(context.Background(), domain.NewSearchQuery("go"))
		assert.ErrorIs(t, err, domain.ErrDecoding)
	})

	t.Run("maps server status", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			fmt.Fprint(w, `{"message": "Validation Failed"}`)
		}, "tok")

		_, err := client.SearchRepositories(context.Background(), domain.NewSearchQuery("go"))
		assert.ErrorIs(t, err, domain.ErrServer)
		assert.Equal(t, http.StatusUnprocessableEntity, domain.StatusCode(err))
	})
}

func TestClient_SearchUsers(t *testing.T) {
	var query url.Values
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/users", r.URL.Path)
		query = r.URL.Query()
		fmt.Fprint(w, `{"total_count": 1, "items": [{"id": 9, "login": "octocat", "type": "User"}]}`)
	}, "tok")

	q := domain.NewSearchQuery("octo")
	q.Sort = domain.SortFollowers
	page, err := client.SearchUsers(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, "followers", query.Get("sort"))
	assert.Equal(t, "desc", query.Get("order"))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "octocat", page.Items[0].Login)
	assert.Equal(t, "User", page.Items[0].Type)
}

func TestClient_UserRepositories(t *testing.T) {
	var query url.Values
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/octocat/repos", r.URL.Path)
		query = r.URL.Query()
		fmt.Fprint(w, `[{"id": 1, "name": "hello", "full_name": "octocat/hello"}]`)
	}, "tok")

	page, err := client.UserRepositories(context.Background(), "octocat", 2)
	require.NoError(t, err)

	assert.Equal(t, "updated", query.Get("sort"))
	assert.Equal(t, "2", query.Get("page"))
	assert.Equal(t, "30", query.Get("per_page"))
	assert.Equal(t, 1, page.TotalCount)
	assert.Equal(t, "octocat/hello", page.Items[0].FullName)

	_, err = client.UserRepositories(context.Background(), " ", 1)
	assert.ErrorIs(t, err, domain.ErrNetInvalidURL)
}

func TestClient_RetryPolicy(t *testing.T) {
	t.Run("403 retries once after two seconds", func(t *testing.T) {
		var calls atomic.Int32
		client, rec := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"message": "Forbidden"}`)
		}, "tok")

		_, err := client.SearchRepositories(context.Background(), domain.NewSearchQuery("go"))
		assert.Equal(t, http.StatusForbidden, domain.StatusCode(err))
		assert.Equal(t, int32(2), calls.Load())
		assert.Equal(t, []time.Duration{ForbiddenRetryDelay}, rec.recorded())
	})

	t.Run("429 retries once after five seconds and can succeed", func(t *testing.T) {
		var calls atomic.Int32
		client, rec := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			fmt.Fprint(w, repoSearchBody)
		}, "tok")

		page, err := client.SearchRepositories(context.Background(), domain.NewSearchQuery("go"))
		require.NoError(t, err)
		assert.Len(t, page.Items, 2)
		assert.Equal(t, int32(2), calls.Load())
		assert.Equal(t, []time.Duration{TooManyRequestsRetryDelay}, rec.recorded())
	})

	t.Run("401 signs out without retrying", func(t *testing.T) {
		var calls, signOuts atomic.Int32
		client, rec := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"message": "Bad credentials"}`)
		}, "tok")
		client.OnUnauthorized(func() { signOuts.Add(1) })

		_, err := client.CurrentUser(context.Background())
		assert.Equal(t, http.StatusUnauthorized, domain.StatusCode(err))
		assert.Equal(t, int32(1), calls.Load())
		assert.Equal(t, int32(1), signOuts.Load())
		assert.Empty(t, rec.recorded())
	})

	t.Run("429 then 401 signs out", func(t *testing.T) {
		var calls, signOuts atomic.Int32
		client, rec := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"message": "Bad credentials"}`)
		}, "tok")
		client.OnUnauthorized(func() { signOuts.Add(1) })

		_, err := client.SearchRepositories(context.Background(), domain.NewSearchQuery("go"))
		assert.Equal(t, http.StatusUnauthorized, domain.StatusCode(err))
		assert.Equal(t, int32(2), calls.Load())
		assert.Equal(t, int32(1), signOuts.Load())
		assert.Equal(t, []time.Duration{TooManyRequestsRetryDelay}, rec.recorded())
	})

	t.Run("other statuses pass through", func(t *testing.T) {
		var calls atomic.Int32
		client, rec := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}, "tok")

		_, err := client.SearchUsers(context.Background(), domain.NewSearchQuery("x"))
		assert.Equal(t, http.StatusInternalServerError, domain.StatusCode(err))
		assert.Equal(t, int32(1), calls.Load())
		assert.Empty(t, rec.recorded())
	})

	t.Run("cancelled wait aborts the retry", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		client, err := NewClient(Config{BaseURL: srv.URL + "/", RatePerSecond: 1000}, nil,
			WithSleep(func(ctx context.Context, _ time.Duration) error {
				cancel()
				return ctx.Err()
			}))
		require.NoError(t, err)

		_, err = client.SearchRepositories(ctx, domain.NewSearchQuery("go"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL + "/"
	srv.Close()

	client, err := NewClient(Config{BaseURL: base, RatePerSecond: 1000}, nil)
	require.NoError(t, err)

	_, err = client.CurrentUser(context.Background())
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestClient_Send(t *testing.T) {
	t.Run("returns raw body", func(t *testing.T) {
		var got *http.Request
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			got = r
			w.Header().Set("X-Custom", "yes")
			fmt.Fprint(w, `{"ok": true}`)
		}, "tok")

		resp, err := client.Send(context.Background(), Request{
			Path:    "/rate_limit",
			Params:  url.Values{"a": {"1"}},
			Headers: http.Header{"X-Trace": {"abc"}},
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"ok": true}`, string(resp.Body))
		assert.Equal(t, "yes", resp.Header.Get("X-Custom"))

		assert.Equal(t, "/rate_limit", got.URL.Path)
		assert.Equal(t, "1", got.URL.Query().Get("a"))
		assert.Equal(t, "abc", got.Header.Get("X-Trace"))
		assert.Equal(t, "Bearer tok", got.Header.Get("Authorization"))
	})

	t.Run("empty body is no data", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}, "tok")

		_, err := client.Send(context.Background(), Request{Path: "user"})
		assert.ErrorIs(t, err, domain.ErrNoData)
	})
}

func TestClient_QuotaFromResponses(t *testing.T) {
	reset := time.Now().Add(time.Hour).Truncate(time.Second)
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(HeaderRateLimit, "5000")
		w.Header().Set(HeaderRateRemaining, "4990")
		w.Header().Set(HeaderRateReset, strconv.FormatInt(reset.Unix(), 10))
		w.Header().Set(HeaderRateResource, ResourceCore)
		fmt.Fprint(w, `{"login": "octocat", "id": 1}`)
	}, "tok")

	_, ok := client.Quota(ResourceCore)
	assert.False(t, ok)

	_, err := client.CurrentUser(context.Background())
	require.NoError(t, err)

	q, ok := client.Quota(ResourceCore)
	require.True(t, ok)
	assert.Equal(t, 5000, q.Limit)
	assert.Equal(t, 4990, q.Remaining)
	assert.True(t, reset.Equal(q.Reset))
}
