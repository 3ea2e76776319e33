package driving

import "github.com/custodia-labs/gitscope/internal/core/domain"

// SettingsService reads and writes application settings.
type SettingsService interface {
	// Get returns the typed settings with defaults applied.
	Get() domain.AppSettings

	// Value returns a single raw key as stored in the file.
	Value(key string) (any, bool)

	// Effective returns the value in effect for key, defaults included.
	Effective(key string) (string, bool)

	// Set validates and persists a single key.
	Set(key, value string) error

	// Keys lists the supported keys.
	Keys() []string

	// Path returns the configuration file path.
	Path() string
}
