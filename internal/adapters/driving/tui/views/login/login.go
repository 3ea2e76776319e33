// Package login provides the sign-in view for the TUI.
package login

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/gitscope/internal/core/domain"
	"github.com/custodia-labs/gitscope/internal/core/ports/driving"
)

type mode int

const (
	idle mode = iota
	checkingToken
	browserFlow
)

// View asks for a personal access token or starts the browser sign-in.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	input  *input.SearchInput

	session driving.SessionService
	oauth   driving.OAuthService
	signal  *messages.Signal
	unsub   func()
	ctx     context.Context

	mode   mode
	flow   domain.FlowStatus
	err    error
	width  int
	height int
	ready  bool
}

// NewView creates the login view. oauth may be nil, which hides the
// browser option.
func NewView(s *styles.Styles, km *keymap.KeyMap, session driving.SessionService, oauth driving.OAuthService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:  s,
		keymap:  km,
		input:   input.NewSearchInput(s, input.WithLabel("Token"), input.WithPlaceholder("ghp_... or github_pat_..."), input.WithMasked()),
		session: session,
		oauth:   oauth,
		signal:  messages.NewSignal(messages.OAuthStatusChanged{}),
		ctx:     context.Background(),
		width:   80,
		height:  24,
	}
	if oauth != nil {
		v.flow = oauth.Status()
		v.unsub = oauth.Subscribe(func(domain.FlowStatus) { v.signal.Notify() })
	}
	return v
}

// WithContext sets the context for sign-in calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Listen returns the command that waits for the next OAuth flow change.
func (v *View) Listen() tea.Cmd {
	if v.oauth == nil {
		return nil
	}
	return v.signal.Wait(v.ctx)
}

// Close unsubscribes from the OAuth flow.
func (v *View) Close() {
	if v.unsub != nil {
		v.unsub()
		v.unsub = nil
	}
}

// Update handles messages for the login view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.OAuthStatusChanged:
		v.flow = v.oauth.Status()
		return v, v.Listen()

	case messages.LoginCompleted:
		v.mode = idle
		v.err = msg.Err
		if msg.Err == nil {
			v.input.Reset()
		}
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.mode == browserFlow {
		if msg.Type == tea.KeyEsc {
			v.oauth.Cancel()
		}
		return v, nil
	}
	if v.mode == checkingToken {
		return v, nil
	}

	switch {
	case msg.Type == tea.KeyEnter:
		v.mode = checkingToken
		v.err = nil
		token := v.input.Value()
		return v, v.signIn(func(ctx context.Context) (*domain.AuthenticatedUser, error) {
			return v.session.AuthenticateWithToken(ctx, token)
		})

	case keymap.Matches(msg.String(), v.keymap.Browser) && v.oauth != nil:
		v.mode = browserFlow
		v.err = nil
		return v, v.signIn(v.session.AuthenticateWithOAuth)

	case msg.Type == tea.KeyEsc:
		v.input.Reset()
		v.err = nil
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) signIn(fn func(context.Context) (*domain.AuthenticatedUser, error)) tea.Cmd {
	ctx := v.ctx
	return func() tea.Msg {
		user, err := fn(ctx)
		return messages.LoginCompleted{User: user, Err: err}
	}
}

// View renders the login view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("gitscope"))
	b.WriteString("\n\n")
	b.WriteString(v.styles.Normal.Render("Sign in to GitHub with a personal access token."))
	b.WriteString("\n\n")
	b.WriteString(v.input.View())
	b.WriteString("\n\n")

	switch v.mode {
	case checkingToken:
		b.WriteString(v.styles.Muted.Render("Checking token..."))
	case browserFlow:
		b.WriteString(v.styles.Muted.Render("Waiting for browser sign-in: " + v.flow.State.String()))
		b.WriteString("\n")
		b.WriteString(v.styles.Help.Render("[esc] cancel"))
	default:
		if v.err != nil {
			b.WriteString(v.styles.Error.Render(domain.UserMessage(v.err)))
			b.WriteString("\n\n")
		}
		help := "[enter] sign in  [ctrl+c] quit"
		if v.oauth != nil {
			help = "[enter] sign in  [ctrl+o] sign in with browser  [ctrl+c] quit"
		}
		b.WriteString(v.styles.Help.Render(help))
	}

	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.input.SetWidth(width)
}

// Busy reports whether a sign-in attempt is running.
func (v *View) Busy() bool {
	return v.mode != idle
}

// Err returns the last sign-in error.
func (v *View) Err() error {
	return v.err
}
