package tui

import "errors"

// ErrMissingSessionService is returned when the session service is not provided.
var ErrMissingSessionService = errors.New("tui: session service is required")

// ErrMissingHistoryService is returned when the history service is not provided.
var ErrMissingHistoryService = errors.New("tui: history service is required")

// ErrMissingSearchEngine is returned when a search engine is not provided.
var ErrMissingSearchEngine = errors.New("tui: search engines are required")

// ErrNoBrowser is reported when a link is chosen but no opener is configured.
var ErrNoBrowser = errors.New("tui: no browser configured")
