// Package history provides the recently viewed repositories and users view.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/gitscope/internal/core/domain"
	"github.com/custodia-labs/gitscope/internal/core/ports/driving"
)

// Tabs.
const (
	TabRepositories = iota
	TabUsers
)

// View shows both history lists, one at a time.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	lists     [2]*list.List[domain.HistoryItem]
	statusbar *status.Bar

	history driving.HistoryService
	onOpen  func(domain.HistoryItem) tea.Cmd
	signal  *messages.Signal
	unsub   func()
	ctx     context.Context
	now     func() time.Time

	tab    int
	width  int
	height int
	ready  bool
}

// NewView creates the history view. onOpen runs when an entry is chosen.
func NewView(
	s *styles.Styles, km *keymap.KeyMap, history driving.HistoryService, onOpen func(domain.HistoryItem) tea.Cmd,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:    s,
		keymap:    km,
		statusbar: status.NewBar(s, km),
		history:   history,
		onOpen:    onOpen,
		signal:    messages.NewSignal(messages.HistoryChanged{}),
		ctx:       context.Background(),
		now:       time.Now,
		width:     80,
		height:    24,
	}
	for i := range v.lists {
		v.lists[i] = list.New(s, v.row)
		v.lists[i].SetEmptyText("Nothing viewed yet")
	}
	v.statusbar.SetBindings(km.HistoryHelp())
	if history != nil {
		v.unsub = history.Subscribe(v.signal.Notify)
		v.Refresh()
	}
	return v
}

// WithContext sets the context for history mutations.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Listen returns the command that waits for the next history change.
func (v *View) Listen() tea.Cmd {
	return v.signal.Wait(v.ctx)
}

// Close unsubscribes from the history service.
func (v *View) Close() {
	if v.unsub != nil {
		v.unsub()
		v.unsub = nil
	}
}

// Refresh reloads both lists from the service.
func (v *View) Refresh() {
	if v.history == nil {
		return
	}
	v.lists[TabRepositories].SetItems(v.history.RepositoryHistory())
	v.lists[TabUsers].SetItems(v.history.UserHistory())
}

// Update handles messages for the history view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.HistoryChanged:
		v.Refresh()
		return v, v.Listen()

	case messages.ErrorOccurred:
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil

	case messages.URLOpened:
		if msg.Err != nil {
			v.statusbar.SetState(status.StateError)
			v.statusbar.SetMessage("Open failed: " + msg.Err.Error())
		}
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	current := v.lists[v.tab]

	switch {
	case msg.Type == tea.KeyEsc:
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }

	case keymap.Matches(k, v.keymap.Focus), k == "left", k == "right", k == "h", k == "l":
		v.tab = 1 - v.tab
		return v, nil

	case keymap.Matches(k, v.keymap.Select):
		item, ok := current.SelectedItem()
		if !ok || v.onOpen == nil {
			return v, nil
		}
		return v, v.onOpen(item)

	case keymap.Matches(k, v.keymap.Delete):
		item, ok := current.SelectedItem()
		if !ok {
			return v, nil
		}
		return v, v.mutate(func(ctx context.Context) error {
			return v.history.DeleteItem(ctx, item.ID)
		})

	case keymap.Matches(k, v.keymap.Clear):
		if current.IsEmpty() {
			return v, nil
		}
		if v.tab == TabRepositories {
			return v, v.mutate(v.history.ClearRepository)
		}
		return v, v.mutate(v.history.ClearUser)
	}

	v.lists[v.tab], _ = current.Update(msg)
	return v, nil
}

// mutate runs op off the update loop. Success arrives as HistoryChanged.
func (v *View) mutate(op func(context.Context) error) tea.Cmd {
	ctx := v.ctx
	return func() tea.Msg {
		if err := op(ctx); err != nil {
			return messages.ErrorOccurred{Err: err}
		}
		return nil
	}
}

func (v *View) row(item domain.HistoryItem, _ int) (string, string) {
	detail := ago(v.now().Sub(item.Timestamp))
	if item.Subtitle != "" {
		detail = item.Subtitle + " · " + detail
	}
	return item.Title, detail
}

func ago(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// View renders the history view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	tabs := make([]string, 0, 2)
	for i, label := range []string{"Repositories", "Users"} {
		text := fmt.Sprintf("%s (%d)", label, v.lists[i].Count())
		if i == v.tab {
			tabs = append(tabs, v.styles.ActiveTab.Render(text))
		} else {
			tabs = append(tabs, v.styles.Tab.Render(text))
		}
	}

	sections := []string{
		v.styles.Title.Render("History"),
		"",
		strings.Join(tabs, " "),
		"",
		v.lists[v.tab].View(),
		"",
		v.statusbar.View(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	for _, l := range v.lists {
		l.SetDimensions(width, max(height-8, 2))
	}
	v.statusbar.SetWidth(width)
}

// Tab returns the active tab.
func (v *View) Tab() int {
	return v.tab
}

// Reset clears transient status and shows the repositories tab.
func (v *View) Reset() {
	v.tab = TabRepositories
	v.statusbar.Clear()
	v.Refresh()
}
