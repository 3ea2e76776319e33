package mcp

import (
	"context"
	"sync"

	"github.com/custodia-labs/gitscope/internal/core/domain"
	"github.com/custodia-labs/gitscope/internal/core/ports/driving"
)

// mockSessionService is a mock implementation of driving.SessionService.
type mockSessionService struct {
	session    domain.Session
	restoreTo  *domain.Session
	restoreErr error
	restores   int
}

func (m *mockSessionService) Restore(context.Context) error {
	m.restores++
	if m.restoreTo != nil {
		m.session = *m.restoreTo
	}
	return m.restoreErr
}

func (m *mockSessionService) AuthenticateWithToken(context.Context, string) (*domain.AuthenticatedUser, error) {
	return nil, nil
}

func (m *mockSessionService) AuthenticateWithOAuth(context.Context) (*domain.AuthenticatedUser, error) {
	return nil, nil
}

func (m *mockSessionService) SignOut(context.Context) {}

func (m *mockSessionService) Snapshot() domain.Session { return m.session }

func (m *mockSessionService) Subscribe(func(domain.Session)) func() { return func() {} }

// mockHistoryService is a mock implementation of driving.HistoryService.
type mockHistoryService struct {
	repos    []domain.HistoryItem
	users    []domain.HistoryItem
	addedR   []domain.Repository
	addedU   []domain.User
	addError error
}

func (m *mockHistoryService) AddRepository(_ context.Context, r domain.Repository) error {
	m.addedR = append(m.addedR, r)
	return m.addError
}

func (m *mockHistoryService) AddUser(_ context.Context, u domain.User) error {
	m.addedU = append(m.addedU, u)
	return m.addError
}

func (m *mockHistoryService) RepositoryHistory() []domain.HistoryItem  { return m.repos }
func (m *mockHistoryService) UserHistory() []domain.HistoryItem        { return m.users }
func (m *mockHistoryService) ClearRepository(context.Context) error    { return nil }
func (m *mockHistoryService) ClearUser(context.Context) error          { return nil }
func (m *mockHistoryService) ClearAll(context.Context) error           { return nil }
func (m *mockHistoryService) DeleteItem(context.Context, string) error { return nil }
func (m *mockHistoryService) Subscribe(func()) func()                  { return func() {} }

// mockEngine serves pages from a fixed list, PerPage at a time.
type mockEngine[T any] struct {
	mu      sync.Mutex
	all     []T
	err     error
	sorts   []domain.SortOption
	options []domain.SortOption
	state   domain.SearchState[T]
	closed  bool
}

func newMockEngine[T any](all []T, options []domain.SortOption) *mockEngine[T] {
	return &mockEngine[T]{
		all:     all,
		options: options,
		state:   domain.SearchState[T]{Query: domain.NewSearchQuery(""), HasMore: true},
	}
}

func (m *mockEngine[T]) SetQueryText(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Query.Text = text
}

func (m *mockEngine[T]) fetch(page int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		m.state.Err = m.err
		return m.err
	}
	start := min((page-1)*domain.PerPage, len(m.all))
	end := min(start+domain.PerPage, len(m.all))
	if page == 1 {
		m.state.Items = nil
	}
	m.state.Items = append(m.state.Items, m.all[start:end]...)
	m.state.Query.Page = page
	m.state.TotalCount = len(m.all)
	m.state.HasMore = end-start == domain.PerPage
	return nil
}

func (m *mockEngine[T]) Search(context.Context) error { return m.fetch(1) }

func (m *mockEngine[T]) LoadMore(context.Context) error { return m.fetch(m.state.Query.Page + 1) }

func (m *mockEngine[T]) ChangeSortOption(_ context.Context, opt domain.SortOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sorts = append(m.sorts, opt)
	m.state.Query.Sort = opt
	return nil
}

func (m *mockEngine[T]) ToggleSortOrder(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Query.Order = m.state.Query.Order.Toggle()
	return nil
}

func (m *mockEngine[T]) SortOptions() []domain.SortOption { return m.options }

func (m *mockEngine[T]) Select(context.Context, T) {}

func (m *mockEngine[T]) Snapshot() domain.SearchState[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *mockEngine[T]) Subscribe(func(domain.SearchState[T])) func() { return func() {} }

func (m *mockEngine[T]) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

var (
	_ driving.RepositorySearch = (*mockEngine[domain.Repository])(nil)
	_ driving.HistoryService   = (*mockHistoryService)(nil)
)
