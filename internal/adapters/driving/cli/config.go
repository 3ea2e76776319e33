package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and change settings",
	Long: `View and change settings stored in ~/.gitscope/config.toml.

Keys:
  api.base_url          REST API root (GitHub Enterprise: https://host/api/v3/)
  api.rate_per_second   client-side request rate
  oauth.client_id       OAuth app client id
  oauth.redirect_port   loopback port for the browser redirect (0 = any free port)
  oauth.scopes          space separated OAuth scopes
  search.debounce_ms    quiet period before searching while typing
  storage.data_dir      where the token and history databases live`,
	RunE: runConfigList,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if settingsService == nil {
			return errors.New("settings service not configured")
		}
		cmd.Println(settingsService.Path())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	for _, key := range settingsService.Keys() {
		marker := " "
		if _, ok := settingsService.Value(key); ok {
			marker = "*"
		}
		value, _ := settingsService.Effective(key)
		cmd.Printf("%s %-20s = %s\n", marker, key, value)
	}
	cmd.Println()
	cmd.Println("* set in " + settingsService.Path())
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	v, ok := settingsService.Effective(args[0])
	if !ok {
		return fmt.Errorf("unknown setting %q", args[0])
	}
	cmd.Println(v)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.Set(args[0], args[1]); err != nil {
		return err
	}
	cmd.Printf("%s updated\n", args[0])
	return nil
}
