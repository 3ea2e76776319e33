// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/styles"
)

// State represents the current view state for display.
type State string

const (
	StateReady   State = "ready"
	StateLoading State = "loading"
	StateError   State = "error"
	StateResults State = "results"
)

// Bar displays view status and keybinding hints.
type Bar struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	state    State
	message  string
	shown    int
	total    int
	sort     string
	bindings []key.Binding
	width    int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update is a no-op; the bar is driven through its setters.
func (s *Bar) Update(tea.Msg) (*Bar, tea.Cmd) {
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	var left string
	switch s.state {
	case StateLoading:
		left = s.styles.Muted.Render("Loading...")
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render(s.message)
		}
		return s.styles.Error.Render("Error")
	case StateResults:
		left = s.styles.Normal.Render(fmt.Sprintf("%d of %d", s.shown, s.total))
	default:
		left = s.styles.Muted.Render("Ready")
	}
	if s.sort != "" {
		left += s.styles.Muted.Render("  " + s.sort)
	}
	if s.message != "" {
		left += s.styles.Success.Render("  " + s.message)
	}
	return left
}

func (s *Bar) renderRight() string {
	bindings := s.bindings
	if bindings == nil {
		if s.state == StateResults && s.shown > 0 {
			bindings = s.keymap.ResultsHelp()
		} else {
			bindings = s.keymap.ShortHelp()
		}
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets a transient message, or the error text in StateError.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetCounts sets how many results are shown out of the total.
func (s *Bar) SetCounts(shown, total int) {
	s.shown = shown
	s.total = total
}

// Counts returns the shown and total result counts.
func (s *Bar) Counts() (shown, total int) {
	return s.shown, s.total
}

// SetSort sets the sort description, e.g. "stars ↓".
func (s *Bar) SetSort(sort string) {
	s.sort = sort
}

// SetBindings overrides the state-derived key hints. nil restores them.
func (s *Bar) SetBindings(bindings []key.Binding) {
	s.bindings = bindings
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the status bar to default state.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.shown, s.total = 0, 0
}
