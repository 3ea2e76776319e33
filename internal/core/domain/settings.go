package domain

import "time"

// Defaults for AppSettings.
const (
	DefaultAPIBaseURL    = "https://api.github.com/"
	DefaultRatePerSecond = 5.0
	DefaultDebounce      = 500 * time.Millisecond
	DefaultClientID      = "Ov23liEI45VHtjMirJdp"
)

// AppSettings is the typed view of the configuration file.
type AppSettings struct {
	ClientID      string
	RedirectPort  int
	Scopes        string
	APIBaseURL    string
	RatePerSecond float64
	Debounce      time.Duration
	DataDir       string
}

// DefaultAppSettings returns settings used when the file sets nothing.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		ClientID:      DefaultClientID,
		Scopes:        DefaultScopes,
		APIBaseURL:    DefaultAPIBaseURL,
		RatePerSecond: DefaultRatePerSecond,
		Debounce:      DefaultDebounce,
	}
}

// Validate checks the settings for values the program cannot run with.
func (s AppSettings) Validate() error {
	if s.ClientID == "" || s.APIBaseURL == "" || s.Scopes == "" {
		return ErrInvalidInput
	}
	if s.RedirectPort < 0 || s.RedirectPort > 65535 {
		return ErrInvalidInput
	}
	if s.RatePerSecond <= 0 || s.Debounce < 0 {
		return ErrInvalidInput
	}
	return nil
}
