package mcp

import (
	"github.com/custodia-labs/gitscope/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
//
// Engines are created per tool call. A shared engine would let two
// concurrent calls supersede each other's searches.
type Ports struct {
	// Session supplies the signed-in user.
	Session driving.SessionService

	// History backs the history resources and add_history. Optional.
	History driving.HistoryService

	NewRepositorySearch func() driving.RepositorySearch
	NewUserSearch       func() driving.UserSearch
	NewUserRepositories func() driving.RepositorySearch
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Session == nil {
		return ErrMissingSessionService
	}
	if p.NewRepositorySearch == nil || p.NewUserSearch == nil || p.NewUserRepositories == nil {
		return ErrMissingSearchEngine
	}
	return nil
}
