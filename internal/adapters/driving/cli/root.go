// Package cli implements the gitscope command line.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gitscope/internal/core/domain"
	"github.com/custodia-labs/gitscope/internal/core/ports/driving"
	"github.com/custodia-labs/gitscope/internal/logger"
)

// version is set at build time with -ldflags "-X .../cli.version=...".
var version = "dev"

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "gitscope",
	Short: "Search GitHub repositories and users from the terminal",
	Long: `gitscope searches GitHub repositories and users, lists a user's
repositories and remembers what you looked at.

Sign in once with 'gitscope auth login', then search from the command line,
the interactive terminal UI ('gitscope tui') or an MCP client
('gitscope mcp serve').`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

// Services bundles the core services the commands drive. The search
// factories return a fresh engine per call; callers close it.
type Services struct {
	Session          driving.SessionService
	OAuth            driving.OAuthService
	Credentials      driving.CredentialsService
	History          driving.HistoryService
	Settings         driving.SettingsService
	RepositorySearch func() driving.RepositorySearch
	UserSearch       func() driving.UserSearch
	UserRepositories func() driving.RepositorySearch

	// Watch follows configuration edits while long-running commands are up.
	// It may be nil.
	Watch func(ctx context.Context, onChange func()) error

	// OpenURL opens a link in the browser. It may be nil.
	OpenURL func(url string) error

	// Quota reports the REST allowance seen on the last response. It may
	// be nil.
	Quota func() (domain.RateQuota, bool)
}

var (
	sessionService      driving.SessionService
	oauthService        driving.OAuthService
	credentialsService  driving.CredentialsService
	historyService      driving.HistoryService
	settingsService     driving.SettingsService
	newRepositorySearch func() driving.RepositorySearch
	newUserSearch       func() driving.UserSearch
	newUserRepositories func() driving.RepositorySearch
	watchConfig         func(ctx context.Context, onChange func()) error
	openURL             func(url string) error
	apiQuota            func() (domain.RateQuota, bool)
)

// SetServices installs the services used by every command.
func SetServices(s Services) {
	sessionService = s.Session
	oauthService = s.OAuth
	credentialsService = s.Credentials
	historyService = s.History
	settingsService = s.Settings
	newRepositorySearch = s.RepositorySearch
	newUserSearch = s.UserSearch
	newUserRepositories = s.UserRepositories
	watchConfig = s.Watch
	openURL = s.OpenURL
	apiQuota = s.Quota
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// Root returns the root command.
func Root() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs to stderr")
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
