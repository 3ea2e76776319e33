// Package tui provides an interactive terminal user interface for gitscope.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"context"

	"github.com/custodia-labs/gitscope/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Session signs in and out.
	Session driving.SessionService

	// OAuth reports browser flow progress. Optional; without it the login
	// view offers token sign-in only.
	OAuth driving.OAuthService

	// History holds recently selected repositories and users.
	History driving.HistoryService

	// RepositorySearch, UserSearch and UserRepositories back the three
	// search views. The TUI owns them and closes them on exit.
	RepositorySearch driving.RepositorySearch
	UserSearch       driving.UserSearch
	UserRepositories driving.RepositorySearch

	// Settings backs the settings view. Optional.
	Settings driving.SettingsService

	// OpenURL opens a link in the browser. Optional.
	OpenURL func(url string) error

	// WatchConfig blocks, calling onChange when the configuration file
	// changes, until ctx is done. Optional.
	WatchConfig func(ctx context.Context, onChange func()) error
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Session == nil {
		return ErrMissingSessionService
	}
	if p.History == nil {
		return ErrMissingHistoryService
	}
	if p.RepositorySearch == nil || p.UserSearch == nil || p.UserRepositories == nil {
		return ErrMissingSearchEngine
	}
	return nil
}
