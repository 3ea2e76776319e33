package tui

import (
	"context"
	"sync"

	"github.com/custodia-labs/gitscope/internal/core/domain"
)

// MockSessionService is a session whose state the test controls.
type MockSessionService struct {
	mu       sync.Mutex
	session  domain.Session
	subs     []func(domain.Session)
	restored int
	signOuts int
}

func (m *MockSessionService) Restore(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restored++
	return nil
}

func (m *MockSessionService) AuthenticateWithToken(_ context.Context, token string) (*domain.AuthenticatedUser, error) {
	user := &domain.AuthenticatedUser{User: domain.User{Login: "octocat"}}
	m.set(domain.Session{Authenticated: true, User: user})
	return user, nil
}

func (m *MockSessionService) AuthenticateWithOAuth(ctx context.Context) (*domain.AuthenticatedUser, error) {
	return m.AuthenticateWithToken(ctx, "")
}

func (m *MockSessionService) SignOut(context.Context) {
	m.mu.Lock()
	m.signOuts++
	m.mu.Unlock()
	m.set(domain.Session{})
}

func (m *MockSessionService) Snapshot() domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

func (m *MockSessionService) Subscribe(fn func(domain.Session)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
	return func() {}
}

func (m *MockSessionService) set(s domain.Session) {
	m.mu.Lock()
	m.session = s
	subs := m.subs
	m.mu.Unlock()
	for _, fn := range subs {
		fn(s)
	}
}

// MockHistoryService records history mutations.
type MockHistoryService struct {
	repos []domain.HistoryItem
	users []domain.HistoryItem
}

func (m *MockHistoryService) AddRepository(context.Context, domain.Repository) error { return nil }
func (m *MockHistoryService) AddUser(context.Context, domain.User) error             { return nil }
func (m *MockHistoryService) RepositoryHistory() []domain.HistoryItem                { return m.repos }
func (m *MockHistoryService) UserHistory() []domain.HistoryItem                      { return m.users }
func (m *MockHistoryService) ClearRepository(context.Context) error                  { return nil }
func (m *MockHistoryService) ClearUser(context.Context) error                        { return nil }
func (m *MockHistoryService) ClearAll(context.Context) error                         { return nil }
func (m *MockHistoryService) DeleteItem(context.Context, string) error               { return nil }
func (m *MockHistoryService) Subscribe(func()) func()                                { return func() {} }

// MockEngine is a search engine that only records calls.
type MockEngine[T any] struct {
	mu     sync.Mutex
	texts  []string
	calls  []string
	state  domain.SearchState[T]
	closed bool
}

func (m *MockEngine[T]) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *MockEngine[T]) SetQueryText(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	m.state.Query.Text = text
}

func (m *MockEngine[T]) Search(context.Context) error   { m.record("search"); return nil }
func (m *MockEngine[T]) LoadMore(context.Context) error { m.record("more"); return nil }

func (m *MockEngine[T]) ChangeSortOption(context.Context, domain.SortOption) error {
	m.record("sort")
	return nil
}

func (m *MockEngine[T]) ToggleSortOrder(context.Context) error { m.record("order"); return nil }

func (m *MockEngine[T]) SortOptions() []domain.SortOption {
	return []domain.SortOption{domain.SortBestMatch}
}

func (m *MockEngine[T]) Select(context.Context, T) {}

func (m *MockEngine[T]) Snapshot() domain.SearchState[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *MockEngine[T]) Subscribe(func(domain.SearchState[T])) func() { return func() {} }

func (m *MockEngine[T]) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}
