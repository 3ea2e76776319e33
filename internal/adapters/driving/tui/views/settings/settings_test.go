package settings

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/gitscope/internal/core/domain"
)

// fakeSettings keeps raw values in memory with fixed defaults.
type fakeSettings struct {
	defaults map[string]string
	values   map[string]string
	setErr   error
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{
		defaults: map[string]string{
			"api.base_url":       "https://api.github.com/",
			"search.debounce_ms": "500",
		},
		values: map[string]string{},
	}
}

func (f *fakeSettings) Get() domain.AppSettings { return domain.DefaultAppSettings() }

func (f *fakeSettings) Value(key string) (any, bool) {
	v, ok := f.values[key]
	return v, ok
}

func (f *fakeSettings) Effective(key string) (string, bool) {
	if v, ok := f.values[key]; ok {
		return v, true
	}
	v, ok := f.defaults[key]
	return v, ok
}

func (f *fakeSettings) Set(key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.values[key] = value
	return nil
}

func (f *fakeSettings) Keys() []string { return []string{"api.base_url", "search.debounce_ms"} }

func (f *fakeSettings) Path() string { return "/tmp/config.toml" }

func sized(v *View) *View {
	v.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return v
}

func TestNewView_ListsSettings(t *testing.T) {
	v := sized(NewView(nil, nil, newFakeSettings()))

	out := v.View()

	assert.Contains(t, out, "Settings")
	assert.Contains(t, out, "/tmp/config.toml")
	assert.Contains(t, out, "api.base_url")
	assert.Contains(t, out, "https://api.github.com/  (default)")
	assert.Contains(t, out, "search.debounce_ms")
}

func TestView_NoService(t *testing.T) {
	v := sized(NewView(nil, nil, nil))

	assert.Contains(t, v.View(), ErrUnavailable.Error())

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Empty(t, v.Editing())
}

func TestView_EditAndSave(t *testing.T) {
	svc := newFakeSettings()
	v := sized(NewView(nil, nil, svc))

	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, "search.debounce_ms", v.Editing())
	assert.Contains(t, v.View(), "500")

	v.input.SetValue("250")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Empty(t, v.Editing())

	msg := cmd()
	assert.Equal(t, messages.SettingSaved{Key: "search.debounce_ms"}, msg)
	assert.Equal(t, "250", svc.values["search.debounce_ms"])

	v.Update(msg)
	out := v.View()
	assert.Contains(t, out, "search.debounce_ms saved")
	assert.Contains(t, out, "250")
	assert.NotContains(t, out, "250  (default)")
	assert.Equal(t, 1, v.list.Selected())
}

func TestView_SaveError(t *testing.T) {
	svc := newFakeSettings()
	svc.setErr = errors.New("invalid input: search.debounce_ms must be an integer")
	v := sized(NewView(nil, nil, svc))

	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	v.Update(cmd())

	assert.Contains(t, v.View(), "must be an integer")
}

func TestView_EscCancelsEditThenLeaves(t *testing.T) {
	v := sized(NewView(nil, nil, newFakeSettings()))

	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotEmpty(t, v.Editing())

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
	assert.Empty(t, v.Editing())

	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_ReloadPicksUpExternalEdits(t *testing.T) {
	svc := newFakeSettings()
	v := sized(NewView(nil, nil, svc))

	svc.values["api.base_url"] = "https://ghe.example.com/api/v3/"
	v.Update(messages.SettingsReloaded{})

	assert.Contains(t, v.View(), "https://ghe.example.com/api/v3/")
}
