package services

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/custodia-labs/gitscope/internal/core/domain"
	"github.com/custodia-labs/gitscope/internal/core/ports/driven"
	"github.com/custodia-labs/gitscope/internal/core/ports/driving"
	"github.com/custodia-labs/gitscope/internal/logger"
)

// Ensure Engine implements the interface.
var (
	_ driving.RepositorySearch = (*Engine[domain.Repository])(nil)
	_ driving.UserSearch       = (*Engine[domain.User])(nil)
)

// Fetcher loads one page of results.
type Fetcher[T any] func(ctx context.Context, q domain.SearchQuery) (domain.Page[T], error)

// EngineConfig configures a search engine.
type EngineConfig[T any] struct {
	// Name labels log lines.
	Name string

	// Fetch loads a page. Required.
	Fetch Fetcher[T]

	// SortOptions lists the accepted sorts. Defaults to best match only.
	SortOptions []domain.SortOption

	// Debounce is the quiet period after SetQueryText before searching.
	Debounce time.Duration

	// OnSelect receives selected items, typically to record history.
	OnSelect func(ctx context.Context, item T) error
}

// Engine is a paginated search with debounced input.
//
// Every fetch is tagged with a sequence number. A response is applied only
// if its number is still the latest, so a slow response to an old query
// never overwrites a newer one. Starting a fresh search also cancels the
// request it replaces.
//
// HasMore follows the page-size heuristic documented on domain.SearchState.
type Engine[T any] struct {
	name        string
	fetch       Fetcher[T]
	sortOptions []domain.SortOption
	debounce    time.Duration
	onSelect    func(ctx context.Context, item T) error

	base context.Context
	stop context.CancelFunc

	mu             sync.Mutex
	state          domain.SearchState[T]
	seq            uint64
	cancelInflight context.CancelFunc
	timer          *time.Timer
	timerGen       uint64
	lastDebounced  *string
	active         *domain.SearchQuery // query behind state.Items
	closed         bool
	version        uint64
	events         broadcaster[domain.SearchState[T]]
}

// NewEngine creates a search engine.
func NewEngine[T any](cfg EngineConfig[T]) *Engine[T] {
	opts := cfg.SortOptions
	if len(opts) == 0 {
		opts = []domain.SortOption{domain.SortBestMatch}
	}
	base, stop := context.WithCancel(context.Background())
	return &Engine[T]{
		name:        cfg.Name,
		fetch:       cfg.Fetch,
		sortOptions: opts,
		debounce:    cfg.Debounce,
		onSelect:    cfg.OnSelect,
		base:        base,
		stop:        stop,
		state: domain.SearchState[T]{
			Query:   domain.SearchQuery{Sort: opts[0], Order: domain.OrderDesc, Page: 1, PerPage: domain.PerPage},
			HasMore: true,
		},
	}
}

// NewRepositorySearch creates the repository search engine.
func NewRepositorySearch(api driven.GitHubAPI, history driving.HistoryService, debounce time.Duration) *Engine[domain.Repository] {
	return NewEngine(EngineConfig[domain.Repository]{
		Name:        "repositories",
		Fetch:       api.SearchRepositories,
		SortOptions: domain.RepositorySortOptions,
		Debounce:    debounce,
		OnSelect:    selectRepository(history),
	})
}

// NewUserSearch creates the user search engine.
func NewUserSearch(api driven.GitHubAPI, history driving.HistoryService, debounce time.Duration) *Engine[domain.User] {
	return NewEngine(EngineConfig[domain.User]{
		Name:        "users",
		Fetch:       api.SearchUsers,
		SortOptions: domain.UserSortOptions,
		Debounce:    debounce,
		OnSelect: func(ctx context.Context, u domain.User) error {
			if history == nil {
				return nil
			}
			return history.AddUser(ctx, u)
		},
	})
}

// NewUserRepositories creates an engine listing a user's repositories.
// The query text is the login.
func NewUserRepositories(api driven.GitHubAPI, history driving.HistoryService) *Engine[domain.Repository] {
	return NewEngine(EngineConfig[domain.Repository]{
		Name: "user repositories",
		Fetch: func(ctx context.Context, q domain.SearchQuery) (domain.Page[domain.Repository], error) {
			return api.UserRepositories(ctx, q.Text, q.Page)
		},
		OnSelect: selectRepository(history),
	})
}

func selectRepository(history driving.HistoryService) func(context.Context, domain.Repository) error {
	return func(ctx context.Context, r domain.Repository) error {
		if history == nil {
			return nil
		}
		return history.AddRepository(ctx, r)
	}
}

// SetQueryText updates the text and schedules a search after the debounce
// period. Repeating the text that was last searched does nothing.
func (e *Engine[T]) SetQueryText(text string) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.state.Query.Text = text
	e.stopTimerLocked()
	e.timerGen++
	gen := e.timerGen
	e.timer = time.AfterFunc(e.debounce, func() { e.fireDebounced(gen) })
	v, s := e.snapshotLocked()
	e.mu.Unlock()

	e.events.publish(v, s)
}

func (e *Engine[T]) fireDebounced(gen uint64) {
	e.mu.Lock()
	if e.closed || gen != e.timerGen {
		e.mu.Unlock()
		return
	}
	e.timer = nil
	text := e.state.Query.Text
	if e.lastDebounced != nil && *e.lastDebounced == text {
		e.mu.Unlock()
		return
	}
	e.lastDebounced = &text

	if err := e.runLocked(e.base, false); err != nil && !errors.Is(err, domain.ErrSuperseded) {
		logger.Debug("search[%s]: debounced search failed: %v", e.name, err)
	}
}

// Search runs page 1 of the current query immediately, replacing the
// results. A blank query clears the results without a request.
func (e *Engine[T]) Search(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return context.Canceled
	}
	e.stopTimerLocked()
	text := e.state.Query.Text
	e.lastDebounced = &text
	return e.runLocked(ctx, false)
}

// LoadMore fetches the next page of the query that produced the current
// items and appends it. Text typed since then is not used until it is
// searched.
func (e *Engine[T]) LoadMore(ctx context.Context) error {
	e.mu.Lock()
	if e.closed || e.active == nil || !e.state.HasMore || e.state.IsLoading || len(e.state.Items) == 0 {
		e.mu.Unlock()
		return nil
	}
	return e.runLocked(ctx, true)
}

// ChangeSortOption sets the sort. A non-empty query is searched again.
func (e *Engine[T]) ChangeSortOption(ctx context.Context, opt domain.SortOption) error {
	if !slices.Contains(e.sortOptions, opt) {
		return domain.ErrInvalidInput
	}
	return e.updateQuery(ctx, func(q *domain.SearchQuery) bool {
		if q.Sort == opt {
			return false
		}
		q.Sort = opt
		return true
	})
}

// ToggleSortOrder flips between descending and ascending.
func (e *Engine[T]) ToggleSortOrder(ctx context.Context) error {
	return e.updateQuery(ctx, func(q *domain.SearchQuery) bool {
		q.Order = q.Order.Toggle()
		return true
	})
}

func (e *Engine[T]) updateQuery(ctx context.Context, mutate func(*domain.SearchQuery) bool) error {
	e.mu.Lock()
	if e.closed || !mutate(&e.state.Query) {
		e.mu.Unlock()
		return nil
	}
	e.state.Query.Page = 1

	if e.state.Query.IsEmpty() {
		v, s := e.snapshotLocked()
		e.mu.Unlock()
		e.events.publish(v, s)
		return nil
	}

	e.stopTimerLocked()
	text := e.state.Query.Text
	e.lastDebounced = &text
	return e.runLocked(ctx, false)
}

// SortOptions lists the sorts this engine accepts.
func (e *Engine[T]) SortOptions() []domain.SortOption {
	return slices.Clone(e.sortOptions)
}

// Select forwards item to the selection hook.
func (e *Engine[T]) Select(ctx context.Context, item T) {
	if e.onSelect == nil {
		return
	}
	if err := e.onSelect(ctx, item); err != nil {
		logger.Warn("search[%s]: record selection: %v", e.name, err)
	}
}

// Snapshot returns the current state. The Items slice is shared and must
// not be modified.
func (e *Engine[T]) Snapshot() domain.SearchState[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Subscribe registers fn for state changes.
func (e *Engine[T]) Subscribe(fn func(domain.SearchState[T])) func() {
	return e.events.subscribe(fn)
}

// Close stops the debounce timer and cancels any request in flight.
func (e *Engine[T]) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.stopTimerLocked()
	if e.cancelInflight != nil {
		e.cancelInflight()
		e.cancelInflight = nil
	}
	e.stop()
}

// runLocked starts a fetch. It must be called with e.mu held and
// releases it.
func (e *Engine[T]) runLocked(ctx context.Context, appendPage bool) error {
	q := e.state.Query
	if appendPage {
		q = *e.active
		q.Page++
	} else {
		q.Page = 1
	}
	e.seq++
	seq := e.seq
	if e.cancelInflight != nil {
		e.cancelInflight()
		e.cancelInflight = nil
	}

	if !appendPage && q.IsEmpty() {
		e.state.Items = nil
		e.state.TotalCount = 0
		e.state.HasMore = true
		e.state.IsLoading = false
		e.state.Err = nil
		e.state.Query.Page = 1
		e.active = nil
		v, s := e.snapshotLocked()
		e.mu.Unlock()
		e.events.publish(v, s)
		return nil
	}

	fctx, cancel := context.WithCancel(ctx)
	e.cancelInflight = cancel
	e.state.IsLoading = true
	e.state.Err = nil
	v, s := e.snapshotLocked()
	e.mu.Unlock()
	e.events.publish(v, s)

	logger.Debug("search[%s]: #%d %q sort=%q order=%s page=%d", e.name, seq, q.Text, q.Sort, q.Order, q.Page)
	page, err := e.fetch(fctx, q)
	cancel()

	e.mu.Lock()
	if seq != e.seq {
		e.mu.Unlock()
		logger.Debug("search[%s]: #%d superseded, discarding", e.name, seq)
		return domain.ErrSuperseded
	}
	e.cancelInflight = nil
	e.state.IsLoading = false
	if err != nil {
		e.state.Err = err
		v, s := e.snapshotLocked()
		e.mu.Unlock()
		e.events.publish(v, s)
		return err
	}

	if appendPage {
		items := make([]T, 0, len(e.state.Items)+len(page.Items))
		items = append(items, e.state.Items...)
		e.state.Items = append(items, page.Items...)
	} else {
		e.state.Items = page.Items
	}
	e.active = &q
	e.state.Query.Page = q.Page
	e.state.TotalCount = page.TotalCount
	e.state.HasMore = len(page.Items) == q.PerPage
	v, s = e.snapshotLocked()
	e.mu.Unlock()

	logger.Debug("search[%s]: #%d got %d items (total %d, more=%t)", e.name, seq, len(page.Items), page.TotalCount, s.HasMore)
	e.events.publish(v, s)
	return nil
}

func (e *Engine[T]) snapshotLocked() (uint64, domain.SearchState[T]) {
	e.version++
	return e.version, e.state
}

func (e *Engine[T]) stopTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.timerGen++
}
