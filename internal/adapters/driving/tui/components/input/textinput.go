// Package input provides text input components for the TUI.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/styles"
)

// Option configures a SearchInput.
type Option func(*SearchInput)

// WithLabel sets the text rendered before the field.
func WithLabel(label string) Option {
	return func(s *SearchInput) { s.label = label }
}

// WithPlaceholder sets the hint shown in an empty field.
func WithPlaceholder(p string) Option {
	return func(s *SearchInput) { s.textinput.Placeholder = p }
}

// WithMasked hides the typed characters, for tokens.
func WithMasked() Option {
	return func(s *SearchInput) {
		s.textinput.EchoMode = textinput.EchoPassword
		s.textinput.EchoCharacter = '•'
	}
}

// SearchInput wraps a bubbles textinput with the TUI styling.
type SearchInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	label     string
	width     int
}

// NewSearchInput creates a focused input labelled "Search".
func NewSearchInput(s *styles.Styles, opts ...Option) *SearchInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Type to search..."
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 50

	in := &SearchInput{
		textinput: ti,
		styles:    s,
		label:     "Search",
		width:     50,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Init initialises the input.
func (s *SearchInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (s *SearchInput) Update(msg tea.Msg) (*SearchInput, tea.Cmd) {
	var cmd tea.Cmd
	s.textinput, cmd = s.textinput.Update(msg)
	return s, cmd
}

// View renders the input.
func (s *SearchInput) View() string {
	label := s.styles.Title.Render(s.label + ": ")
	field := s.styles.InputField.Render(s.textinput.View())
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center, label, field)
}

// Value returns the current input value.
func (s *SearchInput) Value() string {
	return s.textinput.Value()
}

// SetValue sets the input value.
func (s *SearchInput) SetValue(value string) {
	s.textinput.SetValue(value)
}

// Focus sets focus on the input.
func (s *SearchInput) Focus() tea.Cmd {
	return s.textinput.Focus()
}

// Blur removes focus from the input.
func (s *SearchInput) Blur() {
	s.textinput.Blur()
}

// Focused returns whether the input is focused.
func (s *SearchInput) Focused() bool {
	return s.textinput.Focused()
}

// SetWidth sets the width of the input, label included.
func (s *SearchInput) SetWidth(width int) {
	s.width = width
	inputWidth := width - len(s.label) - 8
	if inputWidth < 20 {
		inputWidth = 20
	}
	s.textinput.Width = inputWidth
}

// Width returns the current width.
func (s *SearchInput) Width() int {
	return s.width
}

// Reset clears the input.
func (s *SearchInput) Reset() {
	s.textinput.Reset()
}
