// Package search provides the paginated search view for the TUI. One View
// type serves repository search, user search and a user's repositories.
package search

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/gitscope/internal/core/domain"
	"github.com/custodia-labs/gitscope/internal/core/ports/driving"
)

// Config describes one search view.
type Config[T any] struct {
	// Source identifies the view in SearchStateChanged messages.
	Source messages.ViewType

	// Title is rendered in the header.
	Title string

	// Placeholder is shown in the empty query field.
	Placeholder string

	// FixedQuery hides the input; the query is set with Open.
	FixedQuery bool

	// Back is the view Esc returns to.
	Back messages.ViewType

	// Render formats one result.
	Render list.Renderer[T]

	// OnSelect returns the command run after an item is recorded in the
	// history, e.g. opening it in the browser.
	OnSelect func(item T) tea.Cmd
}

// View is a search input over a result list backed by a search engine.
type View[T any] struct {
	cfg       Config[T]
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.SearchInput
	list      *list.List[T]
	statusbar *status.Bar

	engine driving.SearchEngine[T]
	signal *messages.Signal
	unsub  func()
	ctx    context.Context

	state      domain.SearchState[T]
	title      string
	width      int
	height     int
	ready      bool
	focusInput bool
}

// NewView creates a search view over engine. The view subscribes to the
// engine immediately; Listen delivers its notifications.
func NewView[T any](s *styles.Styles, km *keymap.KeyMap, engine driving.SearchEngine[T], cfg Config[T]) *View[T] {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	opts := []input.Option{}
	if cfg.Placeholder != "" {
		opts = append(opts, input.WithPlaceholder(cfg.Placeholder))
	}

	v := &View[T]{
		cfg:        cfg,
		styles:     s,
		keymap:     km,
		input:      input.NewSearchInput(s, opts...),
		list:       list.New(s, cfg.Render),
		statusbar:  status.NewBar(s, km),
		engine:     engine,
		signal:     messages.NewSignal(messages.SearchStateChanged{Source: cfg.Source}),
		ctx:        context.Background(),
		title:      cfg.Title,
		width:      80,
		height:     24,
		focusInput: !cfg.FixedQuery,
	}
	if engine != nil {
		v.state = engine.Snapshot()
		v.unsub = engine.Subscribe(func(domain.SearchState[T]) { v.signal.Notify() })
	}
	if cfg.FixedQuery {
		v.input.Blur()
	}
	v.syncStatus()
	return v
}

// WithContext sets the context for engine calls.
func (v *View[T]) WithContext(ctx context.Context) *View[T] {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View[T]) Init() tea.Cmd {
	if v.cfg.FixedQuery {
		return nil
	}
	return v.input.Init()
}

// Listen returns the command that waits for the next engine notification.
// It must be issued once; Update re-issues it after each notification.
func (v *View[T]) Listen() tea.Cmd {
	return v.signal.Wait(v.ctx)
}

// Close unsubscribes from the engine and releases it.
func (v *View[T]) Close() {
	if v.unsub != nil {
		v.unsub()
		v.unsub = nil
	}
	if v.engine != nil {
		v.engine.Close()
	}
}

// Open sets a fixed query, e.g. a login, and searches it immediately.
func (v *View[T]) Open(query, title string) tea.Cmd {
	v.title = title
	v.list.SetItems(nil)
	v.input.SetValue(query)
	if v.engine == nil {
		return nil
	}
	v.engine.SetQueryText(query)
	return v.run(v.engine.Search)
}

// Update handles messages for the search view.
func (v *View[T]) Update(msg tea.Msg) (*View[T], tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SearchStateChanged:
		if msg.Source != v.cfg.Source {
			return v, nil
		}
		v.sync()
		return v, v.Listen()

	case messages.URLOpened:
		if msg.Err != nil {
			v.statusbar.SetMessage("Open failed: " + msg.Err.Error())
		} else {
			v.statusbar.SetMessage("Opened " + msg.URL)
		}
		return v, nil
	}

	if v.focusInput {
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v *View[T]) handleKeyMsg(msg tea.KeyMsg) (*View[T], tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg { return messages.ViewChanged{View: v.cfg.Back} }
	}
	if v.engine == nil {
		return v, nil
	}

	if msg.Type == tea.KeyTab && !v.cfg.FixedQuery {
		v.setFocus(!v.focusInput)
		return v, nil
	}

	if v.focusInput {
		return v.handleInputKey(msg)
	}
	return v.handleResultsKey(msg)
}

func (v *View[T]) handleInputKey(msg tea.KeyMsg) (*View[T], tea.Cmd) {
	//nolint:exhaustive // handling only relevant key types
	switch msg.Type {
	case tea.KeyEnter:
		v.engine.SetQueryText(v.input.Value())
		return v, v.run(v.engine.Search)
	case tea.KeyDown:
		if !v.list.IsEmpty() {
			v.setFocus(false)
		}
		return v, nil
	}

	before := v.input.Value()
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	if after := v.input.Value(); after != before {
		v.engine.SetQueryText(after)
	}
	return v, cmd
}

func (v *View[T]) handleResultsKey(msg tea.KeyMsg) (*View[T], tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keymap.Select):
		item, ok := v.list.SelectedItem()
		if !ok {
			return v, nil
		}
		v.engine.Select(v.ctx, item)
		if v.cfg.OnSelect != nil {
			return v, v.cfg.OnSelect(item)
		}
		return v, nil

	case keymap.Matches(k, v.keymap.Up):
		if v.list.Selected() == 0 && !v.cfg.FixedQuery {
			v.setFocus(true)
			return v, nil
		}
		v.list.MoveUp()
		return v, nil

	case keymap.Matches(k, v.keymap.Down):
		if v.list.AtEnd() {
			return v, v.loadMore()
		}
		v.list.MoveDown()
		return v, nil

	case keymap.Matches(k, v.keymap.More):
		return v, v.loadMore()

	case keymap.Matches(k, v.keymap.Sort):
		next := v.nextSort()
		return v, v.run(func(ctx context.Context) error {
			return v.engine.ChangeSortOption(ctx, next)
		})

	case keymap.Matches(k, v.keymap.Order):
		return v, v.run(v.engine.ToggleSortOrder)
	}

	v.list, _ = v.list.Update(msg)
	return v, nil
}

func (v *View[T]) loadMore() tea.Cmd {
	if !v.state.HasMore || v.state.IsLoading || v.list.IsEmpty() {
		return nil
	}
	return v.run(v.engine.LoadMore)
}

// nextSort returns the option after the current one, wrapping around.
func (v *View[T]) nextSort() domain.SortOption {
	opts := v.engine.SortOptions()
	current := v.state.Query.Sort
	for i, o := range opts {
		if o == current {
			return opts[(i+1)%len(opts)]
		}
	}
	return opts[0]
}

// run calls an engine operation off the update loop. Its outcome arrives
// as a SearchStateChanged notification, so the command returns no message.
func (v *View[T]) run(op func(context.Context) error) tea.Cmd {
	ctx := v.ctx
	return func() tea.Msg {
		// Failures land in the published state.
		_ = op(ctx)
		return nil
	}
}

func (v *View[T]) setFocus(input bool) {
	v.focusInput = input
	if input {
		v.input.Focus()
	} else {
		v.input.Blur()
	}
}

// sync copies the engine snapshot into the view.
func (v *View[T]) sync() {
	v.state = v.engine.Snapshot()
	v.list.SetItems(v.state.Items)
	v.syncStatus()
}

func (v *View[T]) syncStatus() {
	st := v.state
	v.statusbar.SetMessage("")
	v.statusbar.SetSort(sortLabel(st.Query))
	v.statusbar.SetCounts(len(st.Items), st.TotalCount)
	switch {
	case st.IsLoading:
		v.statusbar.SetState(status.StateLoading)
	case st.ShowError():
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(st.ErrorMessage())
	case len(st.Items) > 0:
		v.statusbar.SetState(status.StateResults)
	default:
		v.statusbar.SetState(status.StateReady)
	}

	switch {
	case st.Query.IsEmpty() && !v.cfg.FixedQuery:
		v.list.SetEmptyText("Start typing to search")
	case st.IsLoading:
		v.list.SetEmptyText("Searching...")
	default:
		v.list.SetEmptyText("No results")
	}
}

func sortLabel(q domain.SearchQuery) string {
	if q.Sort == domain.SortBestMatch {
		return q.Sort.DisplayName()
	}
	arrow := "↓"
	if q.Order == domain.OrderAsc {
		arrow = "↑"
	}
	return fmt.Sprintf("%s %s", q.Sort.DisplayName(), arrow)
}

// View renders the search view.
func (v *View[T]) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 8)
	sections = append(sections, v.styles.Title.Render(v.title), "")

	if !v.cfg.FixedQuery {
		sections = append(sections, v.input.View(), "")
	}

	sections = append(sections, v.list.View())
	if v.state.HasMore && len(v.state.Items) > 0 && !v.state.IsLoading {
		sections = append(sections, v.styles.Muted.Render("  ... more results, press m or scroll past the end"))
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View[T]) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, max(height-10, 2))
	v.statusbar.SetWidth(width)
}

// Reset returns the view to input mode without clearing the engine, so
// results survive leaving and re-entering the view.
func (v *View[T]) Reset() {
	v.setFocus(!v.cfg.FixedQuery)
	if v.engine != nil {
		v.sync()
	}
}

// SetBack changes the view Esc returns to.
func (v *View[T]) SetBack(back messages.ViewType) {
	v.cfg.Back = back
}

// Ready returns whether the view is ready to render.
func (v *View[T]) Ready() bool {
	return v.ready
}

// Query returns the current input text.
func (v *View[T]) Query() string {
	return v.input.Value()
}

// State returns the last engine snapshot the view rendered.
func (v *View[T]) State() domain.SearchState[T] {
	return v.state
}

// SelectedIndex returns the index of the selected result.
func (v *View[T]) SelectedIndex() int {
	return v.list.Selected()
}

// InputFocused returns whether the input has focus.
func (v *View[T]) InputFocused() bool {
	return v.focusInput
}

// RepositoryRow formats a repository for the result list.
func RepositoryRow(r domain.Repository, _ int) (string, string) {
	title := fmt.Sprintf("%s  ★ %d  ⑂ %d", r.FullName, r.Stars, r.Forks)
	if r.Language != "" {
		title += "  " + r.Language
	}
	detail := r.Description
	if detail == "" {
		detail = r.HTMLURL
	}
	return title, strings.ReplaceAll(detail, "\n", " ")
}

// UserRow formats a user for the result list.
func UserRow(u domain.User, _ int) (string, string) {
	title := u.Login
	if u.Type != "" && u.Type != "User" {
		title += " (" + u.Type + ")"
	}
	return title, u.HTMLURL
}
