package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/styles"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Nil(t, bar.Init())
	assert.Contains(t, bar.View(), "Ready")
}

func TestBar_Results(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())
	bar.SetWidth(200)
	bar.SetState(StateResults)
	bar.SetCounts(30, 1234)
	bar.SetSort("stars ↓")

	view := bar.View()
	assert.Contains(t, view, "30 of 1234")
	assert.Contains(t, view, "stars ↓")
	assert.Contains(t, view, "s: sort")
}

func TestBar_Error(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateError)
	bar.SetMessage("API rate limit exceeded")

	assert.Contains(t, bar.View(), "API rate limit exceeded")
}

func TestBar_Loading(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateLoading)

	assert.Contains(t, bar.View(), "Loading...")
}

func TestBar_SetBindingsOverridesHints(t *testing.T) {
	km := keymap.DefaultKeyMap()
	bar := NewBar(nil, km)
	bar.SetWidth(200)
	bar.SetBindings(km.HistoryHelp())

	assert.Contains(t, bar.View(), "c: clear")

	bar.SetBindings(nil)
	assert.NotContains(t, bar.View(), "c: clear")
}

func TestBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateError)
	bar.SetMessage("boom")
	bar.SetCounts(1, 2)

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.Message())
	shown, total := bar.Counts()
	assert.Zero(t, shown)
	assert.Zero(t, total)
}
