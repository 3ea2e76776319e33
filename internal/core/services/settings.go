package services

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/gitscope/internal/core/domain"
	"github.com/custodia-labs/gitscope/internal/core/ports/driven"
	"github.com/custodia-labs/gitscope/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	KeyClientID      = "oauth.client_id"
	KeyRedirectPort  = "oauth.redirect_port"
	KeyScopes        = "oauth.scopes"
	KeyAPIBaseURL    = "api.base_url"
	KeyRatePerSecond = "api.rate_per_second"
	KeyDebounceMS    = "search.debounce_ms"
	KeyDataDir       = "storage.data_dir"
)

var settingKeys = []string{
	KeyAPIBaseURL,
	KeyRatePerSecond,
	KeyClientID,
	KeyRedirectPort,
	KeyScopes,
	KeyDebounceMS,
	KeyDataDir,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get returns the settings with defaults for unset keys.
func (s *SettingsService) Get() domain.AppSettings {
	settings := domain.DefaultAppSettings()

	if v := s.str(KeyClientID); v != "" {
		settings.ClientID = v
	}
	if v := s.integer(KeyRedirectPort); v > 0 {
		settings.RedirectPort = v
	}
	if v := s.str(KeyScopes); v != "" {
		settings.Scopes = v
	}
	if v := s.str(KeyAPIBaseURL); v != "" {
		settings.APIBaseURL = v
	}
	if v := s.float(KeyRatePerSecond); v > 0 {
		settings.RatePerSecond = v
	}
	if _, ok := s.configStore.Get(KeyDebounceMS); ok {
		settings.Debounce = time.Duration(s.integer(KeyDebounceMS)) * time.Millisecond
	}
	settings.DataDir = s.str(KeyDataDir)

	return settings
}

// Stores hand back whatever their codec decoded; TOML yields int64 and
// float64, the memory store whatever was set.

func (s *SettingsService) str(key string) string {
	v, _ := s.configStore.Get(key)
	str, _ := v.(string)
	return str
}

func (s *SettingsService) integer(key string) int {
	v, _ := s.configStore.Get(key)
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func (s *SettingsService) float(key string) float64 {
	v, _ := s.configStore.Get(key)
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// Value returns a single raw key.
func (s *SettingsService) Value(key string) (any, bool) {
	return s.configStore.Get(key)
}

// Set parses value for key, validates the resulting settings and persists it.
func (s *SettingsService) Set(key, value string) error {
	settings := s.Get()
	value = strings.TrimSpace(value)

	var typed any
	switch key {
	case KeyClientID:
		settings.ClientID, typed = value, value
	case KeyScopes:
		settings.Scopes, typed = value, value
	case KeyDataDir:
		settings.DataDir, typed = value, value
	case KeyAPIBaseURL:
		u, err := url.Parse(value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %s must be an absolute URL", domain.ErrInvalidInput, key)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		settings.APIBaseURL, typed = u.String(), u.String()
	case KeyRedirectPort:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		settings.RedirectPort, typed = n, n
	case KeyDebounceMS:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		settings.Debounce, typed = time.Duration(n)*time.Millisecond, n
	case KeyRatePerSecond:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		settings.RatePerSecond, typed = f, f
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	if err := settings.Validate(); err != nil {
		return fmt.Errorf("%w: %s=%q", err, key, value)
	}
	if err := s.configStore.Set(key, typed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Effective returns the value in effect for key, defaults included, in the
// form Set accepts.
func (s *SettingsService) Effective(key string) (string, bool) {
	settings := s.Get()
	switch key {
	case KeyClientID:
		return settings.ClientID, true
	case KeyScopes:
		return settings.Scopes, true
	case KeyDataDir:
		return settings.DataDir, true
	case KeyAPIBaseURL:
		return settings.APIBaseURL, true
	case KeyRedirectPort:
		return strconv.Itoa(settings.RedirectPort), true
	case KeyDebounceMS:
		return strconv.FormatInt(settings.Debounce.Milliseconds(), 10), true
	case KeyRatePerSecond:
		return strconv.FormatFloat(settings.RatePerSecond, 'g', -1, 64), true
	default:
		return "", false
	}
}

// Keys lists the supported keys.
func (s *SettingsService) Keys() []string {
	return slices.Clone(settingKeys)
}

// Path returns the configuration file path.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}
