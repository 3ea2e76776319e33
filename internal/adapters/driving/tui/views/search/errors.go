package search

import "errors"

// Error definitions for the search view.
var (
	// ErrNoEngine indicates that no search engine was provided.
	ErrNoEngine = errors.New("search engine is required")
)
