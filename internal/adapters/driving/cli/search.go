package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gitscope/internal/core/domain"
	"github.com/custodia-labs/gitscope/internal/core/ports/driving"
)

// Flags shared by the search commands.
var (
	searchSort   string
	searchOrder  string
	searchPages  int
	searchJSON   bool
	searchSelect int
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search GitHub repositories or users",
	Long: `Search GitHub repositories or users. Results come 30 per page; use
--pages to fetch more.

Examples:
  gitscope search repos "bubbletea"
  gitscope search repos "language:go cli" --sort stars --order desc --pages 2
  gitscope search users "torvalds" --select 1`,
}

var searchReposCmd = &cobra.Command{
	Use:   "repos [query]",
	Short: "Search repositories",
	Long: `Search repositories.

Sort options: best-match (default), stars, forks, updated.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearchRepos,
}

var searchUsersCmd = &cobra.Command{
	Use:   "users [query]",
	Short: "Search users",
	Long: `Search users.

Sort options: best-match (default), followers, repositories, joined.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearchUsers,
}

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&searchPages, "pages", "p", 1, "number of pages of 30 results to fetch")
	cmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	cmd.Flags().IntVar(&searchSelect, "select", 0, "record result N in the history and print its URL")
}

func init() {
	for _, c := range []*cobra.Command{searchReposCmd, searchUsersCmd} {
		c.Flags().StringVarP(&searchSort, "sort", "s", domain.SortBestMatch.Flag(), "sort option")
		c.Flags().StringVarP(&searchOrder, "order", "o", string(domain.OrderDesc), "sort order (desc or asc)")
		addListFlags(c)
	}
	searchCmd.AddCommand(searchReposCmd)
	searchCmd.AddCommand(searchUsersCmd)
	rootCmd.AddCommand(searchCmd)
}

func runSearchRepos(cmd *cobra.Command, args []string) error {
	if newRepositorySearch == nil {
		return errors.New("repository search not configured")
	}
	engine := newRepositorySearch()
	defer engine.Close()

	state, err := runQuery(commandContext(cmd), engine, strings.Join(args, " "), searchSort, searchOrder, searchPages)
	if err != nil {
		return err
	}
	return outputRepositories(cmd, engine, state)
}

func runSearchUsers(cmd *cobra.Command, args []string) error {
	if newUserSearch == nil {
		return errors.New("user search not configured")
	}
	engine := newUserSearch()
	defer engine.Close()

	state, err := runQuery(commandContext(cmd), engine, strings.Join(args, " "), searchSort, searchOrder, searchPages)
	if err != nil {
		return err
	}
	return outputUsers(cmd, engine, state)
}

// runQuery configures engine, searches and loads up to pages pages.
func runQuery[T any](
	ctx context.Context, engine driving.SearchEngine[T], text, sort, order string, pages int,
) (domain.SearchState[T], error) {
	opt, err := domain.ParseSortOption(sort, engine.SortOptions())
	if err != nil {
		return domain.SearchState[T]{}, fmt.Errorf("invalid --sort %q: %w", sort, err)
	}
	ord, err := domain.ParseSortOrder(order)
	if err != nil {
		return domain.SearchState[T]{}, fmt.Errorf("invalid --order %q: %w", order, err)
	}
	if strings.TrimSpace(text) == "" {
		return domain.SearchState[T]{}, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	// Sort changes on an empty query do not search.
	if err := engine.ChangeSortOption(ctx, opt); err != nil {
		return domain.SearchState[T]{}, err
	}
	if ord != engine.Snapshot().Query.Order {
		if err := engine.ToggleSortOrder(ctx); err != nil {
			return domain.SearchState[T]{}, err
		}
	}

	engine.SetQueryText(text)
	if err := engine.Search(ctx); err != nil {
		return domain.SearchState[T]{}, errors.New(domain.UserMessage(err))
	}
	for i := 1; i < pages && engine.Snapshot().HasMore; i++ {
		if err := engine.LoadMore(ctx); err != nil {
			return domain.SearchState[T]{}, errors.New(domain.UserMessage(err))
		}
	}
	return engine.Snapshot(), nil
}

// selected returns the 1-based --select item, if any.
func selected[T any](items []T, n int) (T, bool, error) {
	var zero T
	if n == 0 {
		return zero, false, nil
	}
	if n < 1 || n > len(items) {
		return zero, false, fmt.Errorf("--select %d is out of range (1-%d)", n, len(items))
	}
	return items[n-1], true, nil
}

func outputRepositories(cmd *cobra.Command, engine driving.RepositorySearch, state domain.SearchState[domain.Repository]) error {
	pick, ok, err := selected(state.Items, searchSelect)
	if err != nil {
		return err
	}
	if ok {
		engine.Select(commandContext(cmd), pick)
		cmd.Println(pick.HTMLURL)
		return nil
	}

	if searchJSON {
		return printJSON(cmd, state.Items)
	}
	if len(state.Items) == 0 {
		cmd.Println("No repositories found.")
		return nil
	}

	cmd.Printf("Showing %d of %d repositories\n\n", len(state.Items), state.TotalCount)
	for i, r := range state.Items {
		cmd.Printf("  [%d] %s  ★ %d  ⑂ %d", i+1, r.FullName, r.Stars, r.Forks)
		if r.Language != "" {
			cmd.Printf("  %s", r.Language)
		}
		cmd.Println()
		if r.Description != "" {
			cmd.Printf("      %s\n", r.Description)
		}
	}
	if state.HasMore {
		cmd.Println()
		cmd.Println("More results available; use --pages to fetch them.")
	}
	return nil
}

func outputUsers(cmd *cobra.Command, engine driving.UserSearch, state domain.SearchState[domain.User]) error {
	pick, ok, err := selected(state.Items, searchSelect)
	if err != nil {
		return err
	}
	if ok {
		engine.Select(commandContext(cmd), pick)
		cmd.Println(pick.HTMLURL)
		return nil
	}

	if searchJSON {
		return printJSON(cmd, state.Items)
	}
	if len(state.Items) == 0 {
		cmd.Println("No users found.")
		return nil
	}

	cmd.Printf("Showing %d of %d users\n\n", len(state.Items), state.TotalCount)
	for i, u := range state.Items {
		cmd.Printf("  [%d] %s", i+1, u.Login)
		if u.Type != "" && u.Type != "User" {
			cmd.Printf(" (%s)", u.Type)
		}
		cmd.Printf("  %s\n", u.HTMLURL)
	}
	if state.HasMore {
		cmd.Println()
		cmd.Println("More results available; use --pages to fetch them.")
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
