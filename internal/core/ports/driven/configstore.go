package driven

import "context"

// ConfigStore is a flat key/value view over persisted configuration.
// Keys are dotted ("oauth.client_id"); values come back as the backing
// codec decoded them, so callers convert types themselves.
type ConfigStore interface {
	Get(key string) (any, bool)
	// Set writes through to storage. A failed write leaves the previous
	// value in place.
	Set(key string, value any) error
	// Path names where the configuration lives, for display.
	Path() string
}

// ConfigWatcher notifies when the configuration changes on disk.
type ConfigWatcher interface {
	// Watch reloads the store and calls onChange after every external
	// write until ctx ends.
	Watch(ctx context.Context, onChange func()) error
}
