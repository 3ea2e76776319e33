// Package list provides list display components for the TUI.
package list

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/styles"
)

// Renderer formats one item as a title line and an optional detail line.
// width is the space available for each line.
type Renderer[T any] func(item T, width int) (title, detail string)

// List displays items in a navigable list. Each item takes two lines.
type List[T any] struct {
	items     []T
	render    Renderer[T]
	selected  int
	styles    *styles.Styles
	emptyText string
	width     int
	height    int
}

// New creates a list that formats items with render.
func New[T any](s *styles.Styles, render Renderer[T]) *List[T] {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &List[T]{
		render:    render,
		styles:    s,
		emptyText: "No results",
		width:     80,
		height:    10,
	}
}

// Init initialises the list.
func (l *List[T]) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *List[T]) Update(msg tea.Msg) (*List[T], tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		case "home", "g":
			l.selected = 0
		case "end", "G":
			if len(l.items) > 0 {
				l.selected = len(l.items) - 1
			}
		}
	}
	return l, nil
}

// View renders the visible window of items around the selection.
func (l *List[T]) View() string {
	if len(l.items) == 0 {
		return l.styles.Muted.Render(l.emptyText)
	}

	visible := l.height / 2
	if visible < 1 {
		visible = 1
	}
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := min(start+visible, len(l.items))

	lines := make([]string, 0, (end-start)*2)
	for i := start; i < end; i++ {
		lines = append(lines, l.renderItem(i))
	}
	return strings.Join(lines, "\n")
}

func (l *List[T]) renderItem(index int) string {
	lineWidth := max(l.width-4, 10)
	title, detail := l.render(l.items[index], lineWidth)
	title = truncate(title, lineWidth)
	detail = truncate(detail, lineWidth)

	var titleLine string
	if index == l.selected {
		titleLine = l.styles.Selected.Render("> " + title)
	} else {
		titleLine = l.styles.Normal.Render("  " + title)
	}
	return titleLine + "\n" + l.styles.Muted.Render("    "+detail)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// SetItems replaces the items. The selection is kept when items extend the
// previous list, as after loading another page, and reset otherwise.
func (l *List[T]) SetItems(items []T) {
	extends := len(items) >= len(l.items) && len(l.items) > 0
	l.items = items
	if !extends || l.selected >= len(items) {
		l.selected = 0
	}
}

// Items returns the current items.
func (l *List[T]) Items() []T {
	return l.items
}

// SetEmptyText sets the text shown when there are no items.
func (l *List[T]) SetEmptyText(text string) {
	l.emptyText = text
}

// Selected returns the index of the selected item.
func (l *List[T]) Selected() int {
	return l.selected
}

// SetSelected sets the selected index.
func (l *List[T]) SetSelected(index int) {
	if index >= 0 && index < len(l.items) {
		l.selected = index
	}
}

// SelectedItem returns the selected item, if any.
func (l *List[T]) SelectedItem() (T, bool) {
	var zero T
	if l.selected < 0 || l.selected >= len(l.items) {
		return zero, false
	}
	return l.items[l.selected], true
}

// AtEnd reports whether the last item is selected.
func (l *List[T]) AtEnd() bool {
	return len(l.items) > 0 && l.selected == len(l.items)-1
}

// MoveUp moves selection up.
func (l *List[T]) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *List[T]) MoveDown() {
	if l.selected < len(l.items)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *List[T]) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of items.
func (l *List[T]) Count() int {
	return len(l.items)
}

// IsEmpty returns whether the list is empty.
func (l *List[T]) IsEmpty() bool {
	return len(l.items) == 0
}
