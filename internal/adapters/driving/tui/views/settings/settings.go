// Package settings provides the configuration editor view for the TUI.
package settings

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/gitscope/internal/core/ports/driving"
)

// ErrUnavailable is shown when the view has no settings service.
var ErrUnavailable = errors.New("settings are not available")

// Entry is one key and the value in effect.
type Entry struct {
	Key   string
	Value string
	Set   bool // stored in the file rather than defaulted
}

// View lists the settings and edits one at a time.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	service   driving.SettingsService
	list      *list.List[Entry]
	input     *input.SearchInput
	statusbar *status.Bar

	editing string // key being edited, "" when browsing

	width  int
	height int
	ready  bool
}

// NewView creates a settings view. service may be nil.
func NewView(s *styles.Styles, km *keymap.KeyMap, service driving.SettingsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:    s,
		keymap:    km,
		service:   service,
		list:      list.New(s, row),
		statusbar: status.NewBar(s, km),
		width:     80,
		height:    24,
	}
	v.statusbar.SetBindings(km.SettingsHelp())
	v.Refresh()
	return v
}

func row(e Entry, _ int) (string, string) {
	detail := e.Value
	if detail == "" {
		detail = "(not set)"
	}
	if !e.Set {
		detail += "  (default)"
	}
	return e.Key, detail
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Refresh re-reads every setting. The selection is kept.
func (v *View) Refresh() {
	if v.service == nil {
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(ErrUnavailable.Error())
		return
	}
	keys := v.service.Keys()
	entries := make([]Entry, len(keys))
	for i, key := range keys {
		value, _ := v.service.Effective(key)
		_, set := v.service.Value(key)
		entries[i] = Entry{Key: key, Value: value, Set: set}
	}
	selected := v.list.Selected()
	v.list.SetItems(entries)
	v.list.SetSelected(selected)
}

// Update handles messages for the settings view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.SettingsReloaded:
		v.Refresh()
		return v, nil

	case messages.SettingSaved:
		if msg.Err != nil {
			v.statusbar.SetState(status.StateError)
			v.statusbar.SetMessage(msg.Err.Error())
			return v, nil
		}
		v.statusbar.SetState(status.StateReady)
		v.statusbar.SetMessage(msg.Key + " saved")
		v.Refresh()
		return v, nil

	case tea.KeyMsg:
		if v.editing != "" {
			return v.handleEditKey(msg)
		}
		return v.handleListKey(msg)
	}
	return v, nil
}

func (v *View) handleListKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyEsc:
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }

	case keymap.Matches(msg.String(), v.keymap.Edit):
		entry, ok := v.list.SelectedItem()
		if !ok {
			return v, nil
		}
		v.editing = entry.Key
		v.input = input.NewSearchInput(v.styles, input.WithLabel(entry.Key), input.WithPlaceholder("value"))
		v.input.SetWidth(v.width)
		v.input.SetValue(entry.Value)
		v.statusbar.Clear()
		return v, v.input.Focus()
	}

	v.list, _ = v.list.Update(msg)
	return v, nil
}

func (v *View) handleEditKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		v.editing = ""
		return v, nil

	case tea.KeyEnter:
		key, value := v.editing, v.input.Value()
		v.editing = ""
		service := v.service
		return v, func() tea.Msg {
			return messages.SettingSaved{Key: key, Err: service.Set(key, value)}
		}
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// View renders the settings view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	body := v.list.View()
	if v.editing != "" {
		body = v.input.View() + "\n\n" + v.styles.Muted.Render("[enter] save  [esc] cancel")
	}

	path := ""
	if v.service != nil {
		path = fmt.Sprintf("Stored in %s", v.service.Path())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		v.styles.Title.Render("Settings"),
		v.styles.Muted.Render(path),
		"",
		body,
		"",
		v.statusbar.View(),
	)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.list.SetDimensions(width, max(height-8, 2))
	v.statusbar.SetWidth(width)
	if v.input != nil {
		v.input.SetWidth(width)
	}
}

// Editing returns the key being edited, or "".
func (v *View) Editing() string {
	return v.editing
}

// Reset leaves edit mode and clears the status line.
func (v *View) Reset() {
	v.editing = ""
	v.statusbar.Clear()
	v.Refresh()
}
