package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/views/history"
	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/views/login"
	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui/views/settings"
	"github.com/custodia-labs/gitscope/internal/core/domain"
	"github.com/custodia-labs/gitscope/internal/logger"
)

// restored reports that the startup session check finished.
type restored struct{ err error }

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles

	menuView      *menu.View
	loginView     *login.View
	repoView      *search.View[domain.Repository]
	userView      *search.View[domain.User]
	userReposView *search.View[domain.Repository]
	historyView   *history.View
	settingsView  *settings.View

	session       *messages.Signal
	settings      *messages.Signal
	unsubSession  func()
	currentView   messages.ViewType
	signedIn      bool
	width, height int
	ready         bool
	err           error
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	a := &App{
		ports:    ports,
		ctx:      context.Background(),
		styles:   s,
		session:  messages.NewSignal(messages.SessionChanged{}),
		settings: messages.NewSignal(messages.SettingsReloaded{}),
	}

	a.menuView = menu.NewView(s, km)
	a.loginView = login.NewView(s, km, ports.Session, ports.OAuth)
	a.repoView = search.NewView(s, km, ports.RepositorySearch, search.Config[domain.Repository]{
		Source:      messages.ViewRepoSearch,
		Title:       "Search repositories",
		Placeholder: "e.g. language:go stars:>1000 tui",
		Back:        messages.ViewMenu,
		Render:      search.RepositoryRow,
		OnSelect:    func(r domain.Repository) tea.Cmd { return a.openURL(r.HTMLURL) },
	})
	a.userView = search.NewView(s, km, ports.UserSearch, search.Config[domain.User]{
		Source:      messages.ViewUserSearch,
		Title:       "Search users",
		Placeholder: "e.g. location:berlin followers:>100",
		Back:        messages.ViewMenu,
		Render:      search.UserRow,
		OnSelect: func(u domain.User) tea.Cmd {
			return func() tea.Msg { return messages.UserSelected{Login: u.Login} }
		},
	})
	a.userReposView = search.NewView(s, km, ports.UserRepositories, search.Config[domain.Repository]{
		Source:     messages.ViewUserRepos,
		Title:      "Repositories",
		FixedQuery: true,
		Back:       messages.ViewUserSearch,
		Render:     search.RepositoryRow,
		OnSelect:   func(r domain.Repository) tea.Cmd { return a.openURL(r.HTMLURL) },
	})
	a.historyView = history.NewView(s, km, ports.History, a.openHistoryItem)
	a.settingsView = settings.NewView(s, km, ports.Settings)

	a.unsubSession = ports.Session.Subscribe(func(domain.Session) { a.session.Notify() })
	a.syncSession()
	return a, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.loginView.WithContext(ctx)
	a.repoView.WithContext(ctx)
	a.userView.WithContext(ctx)
	a.userReposView.WithContext(ctx)
	a.historyView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	ctx := a.ctx
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tea.SetWindowTitle("gitscope"),
		a.loginView.Init(),
		func() tea.Msg { return restored{err: a.ports.Session.Restore(ctx)} },
		a.session.Wait(ctx),
		a.loginView.Listen(),
		a.repoView.Listen(),
		a.userView.Listen(),
		a.userReposView.Listen(),
		a.historyView.Listen(),
	}
	if a.ports.WatchConfig != nil {
		cmds = append(cmds, a.settings.Wait(ctx), func() tea.Msg {
			if err := a.ports.WatchConfig(ctx, a.settings.Notify); err != nil {
				logger.Warn("tui: watching configuration: %v", err)
			}
			return nil
		})
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
//
//nolint:gocognit,gocyclo,funlen // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a, a.updateCurrent(msg)

	case restored:
		if msg.err != nil {
			logger.Warn("tui: restoring session: %v", msg.err)
		}
		return a, a.syncSession()

	case messages.SessionChanged:
		return a, tea.Batch(a.syncSession(), a.session.Wait(a.ctx))

	case messages.LoginCompleted:
		a.loginView, cmd = a.loginView.Update(msg)
		return a, tea.Batch(cmd, a.syncSession())

	case messages.OAuthStatusChanged:
		a.loginView, cmd = a.loginView.Update(msg)
		return a, cmd

	case messages.SearchStateChanged:
		switch msg.Source {
		case messages.ViewRepoSearch:
			a.repoView, cmd = a.repoView.Update(msg)
		case messages.ViewUserSearch:
			a.userView, cmd = a.userView.Update(msg)
		case messages.ViewUserRepos:
			a.userReposView, cmd = a.userReposView.Update(msg)
		}
		return a, cmd

	case messages.HistoryChanged:
		a.historyView, cmd = a.historyView.Update(msg)
		return a, cmd

	case messages.SettingsReloaded:
		a.menuView.SetNotice("Configuration reloaded")
		a.settingsView, _ = a.settingsView.Update(msg)
		return a, a.settings.Wait(a.ctx)

	case messages.SettingSaved:
		a.settingsView, cmd = a.settingsView.Update(msg)
		return a, cmd

	case messages.SignOutRequested:
		ctx := a.ctx
		return a, func() tea.Msg {
			a.ports.Session.SignOut(ctx)
			return nil
		}

	case messages.UserSelected:
		a.userReposView.SetBack(a.currentView)
		a.currentView = messages.ViewUserRepos
		a.userReposView.Reset()
		return a, a.userReposView.Open(msg.Login, "Repositories of "+msg.Login)

	case messages.ViewChanged:
		return a, a.switchTo(msg.View)

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, a.updateCurrent(msg)

	case messages.Quit:
		return a, tea.Quit
	}

	return a, a.updateCurrent(msg)
}

// updateCurrent forwards msg to the active view.
func (a *App) updateCurrent(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewLogin:
		a.loginView, cmd = a.loginView.Update(msg)
	case messages.ViewRepoSearch:
		a.repoView, cmd = a.repoView.Update(msg)
	case messages.ViewUserSearch:
		a.userView, cmd = a.userView.Update(msg)
	case messages.ViewUserRepos:
		a.userReposView, cmd = a.userReposView.Update(msg)
	case messages.ViewHistory:
		a.historyView, cmd = a.historyView.Update(msg)
	case messages.ViewSettings:
		a.settingsView, cmd = a.settingsView.Update(msg)
	case messages.ViewHelp:
		if k, ok := msg.(tea.KeyMsg); ok && (k.Type == tea.KeyEsc || k.String() == "q") {
			a.currentView = messages.ViewMenu
		}
	}
	return cmd
}

func (a *App) switchTo(view messages.ViewType) tea.Cmd {
	if !a.signedIn && view != messages.ViewLogin {
		view = messages.ViewLogin
	}
	a.currentView = view
	switch view {
	case messages.ViewRepoSearch:
		a.repoView.Reset()
		return a.repoView.Init()
	case messages.ViewUserSearch:
		a.userView.Reset()
		return a.userView.Init()
	case messages.ViewUserRepos:
		a.userReposView.Reset()
	case messages.ViewHistory:
		a.historyView.Reset()
	case messages.ViewSettings:
		a.settingsView.Reset()
	case messages.ViewLogin:
		return a.loginView.Init()
	case messages.ViewMenu, messages.ViewHelp:
	}
	return nil
}

// syncSession moves between the login view and the menu as the session
// starts and ends.
func (a *App) syncSession() tea.Cmd {
	snap := a.ports.Session.Snapshot()
	a.signedIn = snap.Authenticated
	a.menuView.SetLogin(snap.Login())

	switch {
	case !snap.Authenticated && a.currentView != messages.ViewLogin:
		return a.switchTo(messages.ViewLogin)
	case snap.Authenticated && a.currentView == messages.ViewLogin && !a.loginView.Busy():
		return a.switchTo(messages.ViewMenu)
	}
	return nil
}

func (a *App) openURL(url string) tea.Cmd {
	open := a.ports.OpenURL
	return func() tea.Msg {
		if open == nil {
			return messages.URLOpened{URL: url, Err: ErrNoBrowser}
		}
		return messages.URLOpened{URL: url, Err: open(url)}
	}
}

func (a *App) openHistoryItem(item domain.HistoryItem) tea.Cmd {
	if item.Type == domain.HistoryUser {
		return func() tea.Msg { return messages.UserSelected{Login: item.Title} }
	}
	return a.openURL(item.URL)
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewLogin:
		return a.loginView.View()
	case messages.ViewRepoSearch:
		return a.repoView.View()
	case messages.ViewUserSearch:
		return a.userView.View()
	case messages.ViewUserRepos:
		return a.userReposView.View()
	case messages.ViewHistory:
		return a.historyView.View()
	case messages.ViewSettings:
		return a.settingsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

// viewHelp renders the help view.
func (a *App) viewHelp() string {
	return a.styles.Title.Render("Help") + `

Search views:
  (type)      Query; results update as you pause typing
  enter       Search now / open the selected result
  tab, ↓      Move between the query and the results
  s           Cycle sort option
  o           Toggle ascending / descending
  m           Load the next 30 results
  esc         Back

User search:
  enter       Browse the user's repositories

History:
  tab, ←/→    Switch between repositories and users
  enter       Open entry
  d           Delete entry
  c           Clear list

Settings:
  enter       Edit the selected value, enter again to save

  ctrl+c      Quit

[esc] back to menu`
}

// Run starts the TUI application and releases its subscriptions on exit.
func (a *App) Run() error {
	defer a.Close()
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// Close unsubscribes every view and closes the search engines.
func (a *App) Close() {
	if a.unsubSession != nil {
		a.unsubSession()
		a.unsubSession = nil
	}
	a.loginView.Close()
	a.historyView.Close()
	a.repoView.Close()
	a.userView.Close()
	a.userReposView.Close()
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.loginView.SetDimensions(width, height)
	a.repoView.SetDimensions(width, height)
	a.userView.SetDimensions(width, height)
	a.userReposView.SetDimensions(width, height)
	a.historyView.SetDimensions(width, height)
	a.settingsView.SetDimensions(width, height)
}
