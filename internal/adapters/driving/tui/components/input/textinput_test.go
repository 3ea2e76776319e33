package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/styles"
)

func typeText(in *SearchInput, text string) {
	for _, r := range text {
		in.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestNewSearchInput_Defaults(t *testing.T) {
	in := NewSearchInput(nil)

	require.NotNil(t, in)
	assert.Equal(t, "", in.Value())
	assert.True(t, in.Focused())
	assert.NotNil(t, in.Init())
	assert.Contains(t, in.View(), "Search:")
}

func TestSearchInput_Typing(t *testing.T) {
	in := NewSearchInput(styles.DefaultStyles())

	typeText(in, "gitscope")

	assert.Equal(t, "gitscope", in.Value())
}

func TestSearchInput_Options(t *testing.T) {
	in := NewSearchInput(nil, WithLabel("Token"), WithPlaceholder("ghp_..."), WithMasked())
	typeText(in, "secret")

	view := in.View()
	assert.Contains(t, view, "Token:")
	assert.NotContains(t, view, "secret")
	assert.Equal(t, "secret", in.Value())
}

func TestSearchInput_FocusBlurReset(t *testing.T) {
	in := NewSearchInput(nil)
	in.SetValue("query")

	in.Blur()
	assert.False(t, in.Focused())
	in.Focus()
	assert.True(t, in.Focused())

	in.Reset()
	assert.Equal(t, "", in.Value())
}

func TestSearchInput_SetWidth(t *testing.T) {
	in := NewSearchInput(nil)

	in.SetWidth(100)
	assert.Equal(t, 100, in.Width())

	in.SetWidth(5)
	assert.Equal(t, 5, in.Width())
	assert.Equal(t, 20, in.textinput.Width)
}
