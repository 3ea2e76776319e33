package cli

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strconv"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/gitscope/internal/core/domain"
	"github.com/custodia-labs/gitscope/internal/core/ports/driving"
)

// fakeSession implements driving.SessionService.
type fakeSession struct {
	session    domain.Session
	user       *domain.AuthenticatedUser
	err        error
	restoreErr error
	gotToken   string
	oauthCalls int
	signedOut  bool
}

func (f *fakeSession) Restore(context.Context) error { return f.restoreErr }

func (f *fakeSession) AuthenticateWithToken(_ context.Context, token string) (*domain.AuthenticatedUser, error) {
	f.gotToken = token
	return f.user, f.err
}

func (f *fakeSession) AuthenticateWithOAuth(context.Context) (*domain.AuthenticatedUser, error) {
	f.oauthCalls++
	return f.user, f.err
}

func (f *fakeSession) SignOut(context.Context) { f.signedOut = true }

func (f *fakeSession) Snapshot() domain.Session { return f.session }

func (f *fakeSession) Subscribe(func(domain.Session)) func() { return func() {} }

// fakeOAuth implements driving.OAuthService.
type fakeOAuth struct {
	url         string
	user        *domain.AuthenticatedUser
	gotCallback string
	cancelled   bool
}

func (f *fakeOAuth) Begin(context.Context) (string, error) { return f.url, nil }

func (f *fakeOAuth) Complete(_ context.Context, callback string) (*domain.AuthenticatedUser, error) {
	f.gotCallback = callback
	return f.user, nil
}

func (f *fakeOAuth) Authenticate(context.Context) (*domain.AuthenticatedUser, error) {
	return f.user, nil
}

func (f *fakeOAuth) Cancel() { f.cancelled = true }

func (f *fakeOAuth) Status() domain.FlowStatus { return domain.FlowStatus{} }

func (f *fakeOAuth) Subscribe(func(domain.FlowStatus)) func() { return func() {} }

// fakeHistory implements driving.HistoryService.
type fakeHistory struct {
	repos        []domain.HistoryItem
	users        []domain.HistoryItem
	clearedRepos bool
	clearedUsers bool
	deleted      []string
}

func (f *fakeHistory) AddRepository(context.Context, domain.Repository) error { return nil }
func (f *fakeHistory) AddUser(context.Context, domain.User) error             { return nil }
func (f *fakeHistory) RepositoryHistory() []domain.HistoryItem                { return f.repos }
func (f *fakeHistory) UserHistory() []domain.HistoryItem                      { return f.users }
func (f *fakeHistory) Subscribe(func()) func()                                { return func() {} }

func (f *fakeHistory) ClearRepository(context.Context) error {
	f.clearedRepos = true
	return nil
}

func (f *fakeHistory) ClearUser(context.Context) error {
	f.clearedUsers = true
	return nil
}

func (f *fakeHistory) DeleteItem(_ context.Context, id string) error {
	for _, it := range append(f.repos, f.users...) {
		if it.ID == id {
			f.deleted = append(f.deleted, id)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeHistory) ClearAll(ctx context.Context) error {
	_ = f.ClearRepository(ctx)
	return f.ClearUser(ctx)
}

// fakeSettings implements driving.SettingsService over an in-memory map.
type fakeSettings struct {
	settings domain.AppSettings
	values   map[string]any
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{settings: domain.DefaultAppSettings(), values: map[string]any{}}
}

func (f *fakeSettings) Get() domain.AppSettings { return f.settings }

func (f *fakeSettings) Value(key string) (any, bool) {
	v, ok := f.values[key]
	return v, ok
}

func (f *fakeSettings) Effective(key string) (string, bool) {
	s := f.settings
	values := map[string]string{
		"api.base_url":        s.APIBaseURL,
		"api.rate_per_second": strconv.FormatFloat(s.RatePerSecond, 'g', -1, 64),
		"oauth.client_id":     s.ClientID,
		"oauth.redirect_port": strconv.Itoa(s.RedirectPort),
		"oauth.scopes":        s.Scopes,
		"search.debounce_ms":  strconv.FormatInt(s.Debounce.Milliseconds(), 10),
		"storage.data_dir":    s.DataDir,
	}
	v, ok := values[key]
	return v, ok
}

func (f *fakeSettings) Set(key, value string) error {
	if key != "oauth.client_id" {
		return errors.New("unknown setting " + key)
	}
	f.values[key] = value
	f.settings.ClientID = value
	return nil
}

func (f *fakeSettings) Keys() []string {
	keys := []string{
		"api.base_url", "api.rate_per_second", "oauth.client_id", "oauth.redirect_port",
		"oauth.scopes", "search.debounce_ms", "storage.data_dir",
	}
	sort.Strings(keys)
	return keys
}

func (f *fakeSettings) Path() string { return "/home/test/.gitscope/config.toml" }

// fakeEngine serves pages from a fixed list, PerPage at a time.
type fakeEngine[T any] struct {
	all      []T
	err      error
	options  []domain.SortOption
	state    domain.SearchState[T]
	selected []T
	closed   bool
}

func newFakeEngine[T any](all []T, options []domain.SortOption) *fakeEngine[T] {
	return &fakeEngine[T]{
		all:     all,
		options: options,
		state:   domain.SearchState[T]{Query: domain.NewSearchQuery("")},
	}
}

func (f *fakeEngine[T]) fetch(page int) error {
	if f.err != nil {
		return f.err
	}
	start := min((page-1)*domain.PerPage, len(f.all))
	end := min(start+domain.PerPage, len(f.all))
	if page == 1 {
		f.state.Items = nil
	}
	f.state.Items = append(f.state.Items, f.all[start:end]...)
	f.state.Query.Page = page
	f.state.TotalCount = len(f.all)
	f.state.HasMore = end-start == domain.PerPage
	return nil
}

func (f *fakeEngine[T]) SetQueryText(text string)         { f.state.Query.Text = text }
func (f *fakeEngine[T]) Search(context.Context) error     { return f.fetch(1) }
func (f *fakeEngine[T]) LoadMore(context.Context) error   { return f.fetch(f.state.Query.Page + 1) }
func (f *fakeEngine[T]) SortOptions() []domain.SortOption { return f.options }
func (f *fakeEngine[T]) Select(_ context.Context, item T) { f.selected = append(f.selected, item) }
func (f *fakeEngine[T]) Snapshot() domain.SearchState[T]  { return f.state }
func (f *fakeEngine[T]) Close()                           { f.closed = true }

func (f *fakeEngine[T]) ChangeSortOption(_ context.Context, opt domain.SortOption) error {
	f.state.Query.Sort = opt
	return nil
}

func (f *fakeEngine[T]) ToggleSortOrder(context.Context) error {
	f.state.Query.Order = f.state.Query.Order.Toggle()
	return nil
}

func (f *fakeEngine[T]) Subscribe(func(domain.SearchState[T])) func() { return func() {} }

// testServices holds the fakes installed by setupTestServices.
type testServices struct {
	session   *fakeSession
	oauth     *fakeOAuth
	history   *fakeHistory
	settings  *fakeSettings
	repos     *fakeEngine[domain.Repository]
	users     *fakeEngine[domain.User]
	userRepos *fakeEngine[domain.Repository]
}

// setupTestServices installs fresh fakes and restores the previous
// services when the test ends.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	ts := &testServices{
		session:   &fakeSession{},
		oauth:     &fakeOAuth{},
		history:   &fakeHistory{},
		settings:  newFakeSettings(),
		repos:     newFakeEngine[domain.Repository](nil, domain.RepositorySortOptions),
		users:     newFakeEngine[domain.User](nil, domain.UserSortOptions),
		userRepos: newFakeEngine[domain.Repository](nil, []domain.SortOption{domain.SortBestMatch}),
	}
	SetServices(Services{
		Session:          ts.session,
		OAuth:            ts.oauth,
		History:          ts.history,
		Settings:         ts.settings,
		RepositorySearch: func() driving.RepositorySearch { return ts.repos },
		UserSearch:       func() driving.UserSearch { return ts.users },
		UserRepositories: func() driving.RepositorySearch { return ts.userRepos },
	})
	t.Cleanup(func() { SetServices(Services{}) })
	return ts
}

// resetFlags restores every flag in the tree to its default so one test's
// flags do not leak into the next.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and returns its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeWithInput(t, "", args...)
}

func executeWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()

	resetFlags(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(bytes.NewBufferString(input))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}
