// Package mcp provides an MCP (Model Context Protocol) server adapter for gitscope.
// It lets AI assistants search GitHub and read the local history through the
// signed-in session.
package mcp

import "errors"

// ErrMissingSessionService is returned when the session service is not provided.
var ErrMissingSessionService = errors.New("mcp: session service is required")

// ErrMissingSearchEngine is returned when a search engine factory is not provided.
var ErrMissingSearchEngine = errors.New("mcp: search engine factories are required")

// ErrNotSignedIn is returned by tools when no session is active.
var ErrNotSignedIn = errors.New("not signed in to GitHub; run 'gitscope auth login'")

// ErrNoHistory is returned by add_history when history is not configured.
var ErrNoHistory = errors.New("history is not available")
