package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gitscope/internal/core/domain"
)

var (
	historyType string
	historyJSON bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently viewed repositories and users",
	Long: `Show, clear or prune the history of selected repositories and users.
Each list keeps the 20 most recent entries.`,
	RunE: runHistoryList,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List history entries",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear one or both history lists",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a single history entry",
	Long: `Delete a single history entry by id, for example repo_1300192 or
user_583231. Ids are shown by 'gitscope history list'.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistoryDelete,
}

func init() {
	for _, c := range []*cobra.Command{historyCmd, historyListCmd, historyClearCmd} {
		c.Flags().StringVarP(&historyType, "type", "t", "all", "which list: repos, users or all")
	}
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output as JSON")
	historyListCmd.Flags().BoolVar(&historyJSON, "json", false, "output as JSON")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}

// historyLists reports which lists --type selects.
func historyLists() (repos, users bool, err error) {
	switch strings.ToLower(historyType) {
	case "", "all":
		return true, true, nil
	case "repos", "repositories", "repo":
		return true, false, nil
	case "users", "user":
		return false, true, nil
	default:
		return false, false, fmt.Errorf("invalid --type %q (want repos, users or all)", historyType)
	}
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}
	repos, users, err := historyLists()
	if err != nil {
		return err
	}

	if historyJSON {
		out := map[string][]domain.HistoryItem{}
		if repos {
			out["repositories"] = historyService.RepositoryHistory()
		}
		if users {
			out["users"] = historyService.UserHistory()
		}
		return printJSON(cmd, out)
	}

	if repos {
		printHistory(cmd, "Repositories", historyService.RepositoryHistory())
	}
	if users {
		if repos {
			cmd.Println()
		}
		printHistory(cmd, "Users", historyService.UserHistory())
	}
	return nil
}

func printHistory(cmd *cobra.Command, title string, items []domain.HistoryItem) {
	cmd.Println(title)
	if len(items) == 0 {
		cmd.Println("  (empty)")
		return
	}
	for _, it := range items {
		cmd.Printf("  %-16s %-40s %s\n", it.ID, it.Title, it.Timestamp.Local().Format(time.DateTime))
		if it.Subtitle != "" {
			cmd.Printf("  %-16s %s\n", "", it.Subtitle)
		}
	}
}

func runHistoryClear(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}
	repos, users, err := historyLists()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	switch {
	case repos && users:
		if err := historyService.ClearAll(ctx); err != nil {
			return fmt.Errorf("clearing history: %w", err)
		}
	case repos:
		if err := historyService.ClearRepository(ctx); err != nil {
			return fmt.Errorf("clearing repository history: %w", err)
		}
	case users:
		if err := historyService.ClearUser(ctx); err != nil {
			return fmt.Errorf("clearing user history: %w", err)
		}
	}
	cmd.Println("History cleared")
	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}
	err := historyService.DeleteItem(commandContext(cmd), args[0])
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("no history entry %q", args[0])
	}
	if err != nil {
		return err
	}
	cmd.Printf("Deleted %s\n", args[0])
	return nil
}
