package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gitscope/internal/adapters/driving/tui"
	"github.com/custodia-labs/gitscope/internal/logger"
)

// tuiLogFile receives verbose logs while the TUI owns the terminal.
var tuiLogFile = filepath.Join(os.TempDir(), "gitscope-tui.log")

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for gitscope.

The TUI searches repositories and users as you type, lists a user's
repositories and keeps a history of what you opened.

Controls:
  ↑/k, ↓/j - Navigate results
  Enter    - Search / Open
  Tab      - Switch between input and results
  s, o     - Change sort option / order
  m        - Load more results
  Esc      - Back
  ?        - Toggle help
  q        - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

// tuiPorts builds the TUI ports from the installed services. Each view
// gets its own long-lived engine.
func tuiPorts() (*tui.Ports, error) {
	if newRepositorySearch == nil || newUserSearch == nil || newUserRepositories == nil {
		return nil, errors.New("search not configured")
	}
	return &tui.Ports{
		Session:          sessionService,
		OAuth:            oauthService,
		History:          historyService,
		RepositorySearch: newRepositorySearch(),
		UserSearch:       newUserSearch(),
		UserRepositories: newUserRepositories(),
		Settings:         settingsService,
		OpenURL:          openURL,
		WatchConfig:      watchConfig,
	}, nil
}

func runTUI(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	if logger.IsVerbose() {
		restore, err := logger.ToFile(tuiLogFile)
		if err != nil {
			return err
		}
		defer restore()
		fmt.Fprintf(cmd.ErrOrStderr(), "Verbose logs: %s\n", tuiLogFile)
	}

	ports, err := tuiPorts()
	if err != nil {
		return err
	}

	app, err := tui.NewApp(ports)
	if err != nil {
		ports.RepositorySearch.Close()
		ports.UserSearch.Close()
		ports.UserRepositories.Close()
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	if err := app.WithContext(commandContext(cmd)).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
