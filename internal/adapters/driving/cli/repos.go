package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gitscope/internal/core/domain"
)

var reposCmd = &cobra.Command{
	Use:   "repos [user]",
	Short: "List a user's public repositories",
	Long: `List a user's public repositories, most recently updated first.

Examples:
  gitscope repos octocat
  gitscope repos octocat --pages 3 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runRepos,
}

func init() {
	addListFlags(reposCmd)
	rootCmd.AddCommand(reposCmd)
}

func runRepos(cmd *cobra.Command, args []string) error {
	if newUserRepositories == nil {
		return errors.New("user repositories not configured")
	}
	engine := newUserRepositories()
	defer engine.Close()

	state, err := runQuery(commandContext(cmd), engine, args[0], domain.SortBestMatch.Flag(), string(domain.OrderDesc), searchPages)
	if err != nil {
		return err
	}
	return outputRepositories(cmd, engine, state)
}
