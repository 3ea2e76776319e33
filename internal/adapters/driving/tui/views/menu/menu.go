// Package menu is the home screen shown once a session is active.
package menu

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/styles"
)

// Item is one entry. Choosing it emits Msg, or quits when Msg is nil.
type Item struct {
	Label string
	Msg   tea.Msg
}

func goTo(v messages.ViewType) tea.Msg { return messages.ViewChanged{View: v} }

var defaultItems = []Item{
	{"Search repositories", goTo(messages.ViewRepoSearch)},
	{"Search users", goTo(messages.ViewUserSearch)},
	{"History", goTo(messages.ViewHistory)},
	{"Settings", goTo(messages.ViewSettings)},
	{"Help", goTo(messages.ViewHelp)},
	{"Sign out", messages.SignOutRequested{}},
	{"Quit", nil},
}

// View lists the items with a cursor. Digits 1-9 choose directly.
type View struct {
	styles   *styles.Styles
	keys     *keymap.KeyMap
	items    []Item
	selected int
	login    string
	notice   string
	ready    bool
}

// NewView builds the menu. Nil styles or keys fall back to the defaults.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{styles: s, keys: km, items: defaultItems}
}

func (v *View) Init() tea.Cmd { return nil }

func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		return v, v.handleKey(msg)
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) tea.Cmd {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keys.Up):
		v.selected = max(v.selected-1, 0)
	case keymap.Matches(k, v.keys.Down):
		v.selected = min(v.selected+1, len(v.items)-1)
	case keymap.Matches(k, v.keys.Select):
		return v.choose(v.selected)
	case keymap.Matches(k, v.keys.Quit):
		return tea.Quit
	default:
		if len(k) == 1 && k[0] >= '1' && k[0] <= '9' {
			if i := int(k[0] - '1'); i < len(v.items) {
				v.selected = i
				return v.choose(i)
			}
		}
	}
	return nil
}

func (v *View) choose(i int) tea.Cmd {
	item := v.items[i]
	if item.Msg == nil {
		return tea.Quit
	}
	v.notice = ""
	return func() tea.Msg { return item.Msg }
}

func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("gitscope") + "\n\n")

	who := v.styles.Muted.Render("Signed in")
	if v.login != "" {
		who = v.styles.Muted.Render("Signed in as ") + v.styles.Link.Render(v.login)
	}
	b.WriteString(who + "\n\n")

	for i, item := range v.items {
		label := fmt.Sprintf("%d. %s", i+1, item.Label)
		if i == v.selected {
			b.WriteString("> " + v.styles.Subtitle.Render(label) + "\n")
			continue
		}
		b.WriteString("  " + v.styles.Normal.Render(label) + "\n")
	}

	if v.notice != "" {
		b.WriteString("\n" + v.styles.Success.Render(v.notice) + "\n")
	}

	b.WriteString("\n" + v.styles.Help.Render("[j/k] Navigate  [Enter/1-9] Select  [q] Quit"))
	return b.String()
}

// SetDimensions marks the view ready; the menu does not depend on size.
func (v *View) SetDimensions(_, _ int) { v.ready = true }

// SetLogin sets the login shown in the header.
func (v *View) SetLogin(login string) { v.login = login }

// SetNotice shows a line under the items until something is chosen.
func (v *View) SetNotice(notice string) { v.notice = notice }

func (v *View) Selected() int { return v.selected }
