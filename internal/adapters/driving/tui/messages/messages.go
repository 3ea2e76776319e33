// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/gitscope/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewLogin asks for a token or starts the browser flow.
	ViewLogin
	// ViewRepoSearch searches repositories.
	ViewRepoSearch
	// ViewUserSearch searches users.
	ViewUserSearch
	// ViewUserRepos lists one user's repositories.
	ViewUserRepos
	// ViewHistory shows recently selected repositories and users.
	ViewHistory
	// ViewSettings edits the configuration file.
	ViewSettings
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewLogin:
		return "login"
	case ViewRepoSearch:
		return "repo_search"
	case ViewUserSearch:
		return "user_search"
	case ViewUserRepos:
		return "user_repos"
	case ViewHistory:
		return "history"
	case ViewSettings:
		return "settings"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// SessionChanged signals the session state changed.
type SessionChanged struct{}

// OAuthStatusChanged signals the browser flow advanced.
type OAuthStatusChanged struct{}

// SearchStateChanged signals the engine behind a search view published a
// new state. Source names the view that owns the engine.
type SearchStateChanged struct {
	Source ViewType
}

// HistoryChanged signals a history list changed.
type HistoryChanged struct{}

// SettingsReloaded signals the configuration file changed on disk.
type SettingsReloaded struct{}

// SettingSaved carries the result of writing one setting.
type SettingSaved struct {
	Key string
	Err error
}

// LoginCompleted carries the result of a sign-in attempt.
type LoginCompleted struct {
	User *domain.AuthenticatedUser
	Err  error
}

// UserSelected asks to browse the repositories of a user.
type UserSelected struct {
	Login string
}

// URLOpened carries the result of opening a link in the browser.
type URLOpened struct {
	URL string
	Err error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// SignOutRequested asks to end the session.
type SignOutRequested struct{}
