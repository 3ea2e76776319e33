package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/gitscope/internal/core/domain"
	"github.com/custodia-labs/gitscope/internal/core/ports/driving"
)

// MaxPages caps how many pages one tool call may fetch.
const MaxPages = 5

// SearchInput is the input schema for the search tools.
type SearchInput struct {
	Query string `json:"query" jsonschema:"GitHub search query, qualifiers such as language:go are allowed"`
	Sort  string `json:"sort,omitempty" jsonschema:"sort option; best-match (default) or a tool specific field"`
	Order string `json:"order,omitempty" jsonschema:"desc (default) or asc"`
	Pages int    `json:"pages,omitempty" jsonschema:"pages of 30 results to fetch, 1 to 5 (default 1)"`
}

// UserRepositoriesInput is the input schema for list_user_repositories.
type UserRepositoriesInput struct {
	Login string `json:"login" jsonschema:"GitHub login whose public repositories to list"`
	Pages int    `json:"pages,omitempty" jsonschema:"pages of 30 results to fetch, 1 to 5 (default 1)"`
}

// RepositoryOutput is one repository in tool output.
type RepositoryOutput struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"`
	Owner       string    `json:"owner"`
	URL         string    `json:"url"`
	Description string    `json:"description,omitempty"`
	Language    string    `json:"language,omitempty"`
	Stars       int       `json:"stars"`
	Forks       int       `json:"forks"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

// UserOutput is one user in tool output.
type UserOutput struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	URL       string `json:"url"`
	Type      string `json:"type,omitempty"`
	Followers int    `json:"followers,omitempty"`
}

// RepositoriesOutput is the output schema for repository tools.
type RepositoriesOutput struct {
	Repositories []RepositoryOutput `json:"repositories"`
	TotalCount   int                `json:"total_count"`
	HasMore      bool               `json:"has_more"`
}

// UsersOutput is the output schema for search_users.
type UsersOutput struct {
	Users      []UserOutput `json:"users"`
	TotalCount int          `json:"total_count"`
	HasMore    bool         `json:"has_more"`
}

// WhoAmIInput is the empty input of whoami.
type WhoAmIInput struct{}

// WhoAmIOutput describes the signed-in account.
type WhoAmIOutput struct {
	Login       string `json:"login"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	URL         string `json:"url,omitempty"`
	PublicRepos int    `json:"public_repos"`
	Followers   int    `json:"followers"`
}

// AddHistoryInput records one search result in the history. Exactly one of
// Repository and User must be set.
type AddHistoryInput struct {
	Repository *RepositoryOutput `json:"repository,omitempty" jsonschema:"a repository returned by a repository tool"`
	User       *UserOutput       `json:"user,omitempty" jsonschema:"a user returned by search_users"`
}

// AddHistoryOutput reports the stored entry.
type AddHistoryOutput struct {
	ID string `json:"id"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search_repositories",
		Description: "Search GitHub repositories. Sort options: best-match, stars, forks, updated.",
	}, s.handleSearchRepositories)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search_users",
		Description: "Search GitHub users and organisations. Sort options: best-match, followers, repositories, joined.",
	}, s.handleSearchUsers)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_user_repositories",
		Description: "List a GitHub user's public repositories, most recently updated first",
	}, s.handleListUserRepositories)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "whoami",
		Description: "Show the GitHub account gitscope is signed in as",
	}, s.handleWhoAmI)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "add_history",
		Description: "Record a repository or user in the recently viewed history",
	}, s.handleAddHistory)
}

func (s *Server) handleSearchRepositories(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, RepositoriesOutput, error) {
	if err := s.requireSession(ctx); err != nil {
		return nil, RepositoriesOutput{}, err
	}
	engine := s.ports.NewRepositorySearch()
	defer engine.Close()

	state, err := collect(ctx, engine, input.Query, input.Sort, input.Order, input.Pages)
	if err != nil {
		return nil, RepositoriesOutput{}, err
	}
	return nil, repositoriesOutput(state), nil
}

func (s *Server) handleSearchUsers(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, UsersOutput, error) {
	if err := s.requireSession(ctx); err != nil {
		return nil, UsersOutput{}, err
	}
	engine := s.ports.NewUserSearch()
	defer engine.Close()

	state, err := collect(ctx, engine, input.Query, input.Sort, input.Order, input.Pages)
	if err != nil {
		return nil, UsersOutput{}, err
	}

	out := UsersOutput{
		Users:      make([]UserOutput, len(state.Items)),
		TotalCount: state.TotalCount,
		HasMore:    state.HasMore,
	}
	for i, u := range state.Items {
		out.Users[i] = userOutput(u)
	}
	return nil, out, nil
}

func (s *Server) handleListUserRepositories(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input UserRepositoriesInput,
) (*mcp.CallToolResult, RepositoriesOutput, error) {
	if err := s.requireSession(ctx); err != nil {
		return nil, RepositoriesOutput{}, err
	}
	engine := s.ports.NewUserRepositories()
	defer engine.Close()

	state, err := collect(ctx, engine, input.Login, "", "", input.Pages)
	if err != nil {
		return nil, RepositoriesOutput{}, err
	}
	return nil, repositoriesOutput(state), nil
}

func (s *Server) handleWhoAmI(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ WhoAmIInput,
) (*mcp.CallToolResult, WhoAmIOutput, error) {
	if err := s.requireSession(ctx); err != nil {
		return nil, WhoAmIOutput{}, err
	}
	user := s.ports.Session.Snapshot().User
	if user == nil {
		return nil, WhoAmIOutput{}, errors.New(domain.UserMessage(domain.NewAuthError(domain.AuthUserFetchFailed, nil)))
	}
	return nil, WhoAmIOutput{
		Login:       user.Login,
		Name:        user.Name,
		Email:       user.Email,
		URL:         user.HTMLURL,
		PublicRepos: user.PublicRepos,
		Followers:   user.Followers,
	}, nil
}

func (s *Server) handleAddHistory(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AddHistoryInput,
) (*mcp.CallToolResult, AddHistoryOutput, error) {
	if s.ports.History == nil {
		return nil, AddHistoryOutput{}, ErrNoHistory
	}
	switch {
	case input.Repository != nil && input.User == nil:
		repo := input.Repository.toDomain()
		if err := s.ports.History.AddRepository(ctx, repo); err != nil {
			return nil, AddHistoryOutput{}, fmt.Errorf("recording repository: %w", err)
		}
		return nil, AddHistoryOutput{ID: domain.RepositoryHistoryItem(repo, time.Time{}).ID}, nil
	case input.User != nil && input.Repository == nil:
		user := input.User.toDomain()
		if err := s.ports.History.AddUser(ctx, user); err != nil {
			return nil, AddHistoryOutput{}, fmt.Errorf("recording user: %w", err)
		}
		return nil, AddHistoryOutput{ID: domain.UserHistoryItem(user, time.Time{}).ID}, nil
	default:
		return nil, AddHistoryOutput{}, fmt.Errorf("%w: set exactly one of repository and user", domain.ErrInvalidInput)
	}
}

// requireSession restores a stored token on first use and fails when no
// session can be established.
func (s *Server) requireSession(ctx context.Context) error {
	if s.ports.Session.Snapshot().Authenticated {
		return nil
	}
	if err := s.ports.Session.Restore(ctx); err != nil {
		return errors.New(domain.UserMessage(err))
	}
	if !s.ports.Session.Snapshot().Authenticated {
		return ErrNotSignedIn
	}
	return nil
}

// collect runs text through engine and loads up to pages pages.
func collect[T any](
	ctx context.Context, engine driving.SearchEngine[T], text, sort, order string, pages int,
) (domain.SearchState[T], error) {
	if strings.TrimSpace(text) == "" {
		return domain.SearchState[T]{}, fmt.Errorf("%w: query must not be empty", domain.ErrInvalidInput)
	}
	opt, err := domain.ParseSortOption(sort, engine.SortOptions())
	if err != nil {
		return domain.SearchState[T]{}, err
	}
	ord, err := domain.ParseSortOrder(order)
	if err != nil {
		return domain.SearchState[T]{}, err
	}
	pages = min(max(pages, 1), MaxPages)

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

func repositoriesOutput(state domain.SearchState[domain.Repository]) RepositoriesOutput {
	out := RepositoriesOutput{
		Repositories: make([]RepositoryOutput, len(state.Items)),
		TotalCount:   state.TotalCount,
		HasMore:      state.HasMore,
	}
	for i, r := range state.Items {
		out.Repositories[i] = RepositoryOutput{
			ID:          r.ID,
			Name:        r.Name,
			FullName:    r.FullName,
			Owner:       r.Owner.Login,
			URL:         r.HTMLURL,
			Description: r.Description,
			Language:    r.Language,
			Stars:       r.Stars,
			Forks:       r.Forks,
			UpdatedAt:   r.UpdatedAt,
		}
	}
	return out
}

func userOutput(u domain.User) UserOutput {
	return UserOutput{ID: u.ID, Login: u.Login, URL: u.HTMLURL, Type: u.Type, Followers: u.Followers}
}

func (r *RepositoryOutput) toDomain() domain.Repository {
	return domain.Repository{
		ID:          r.ID,
		Name:        r.Name,
		FullName:    r.FullName,
		HTMLURL:     r.URL,
		Description: r.Description,
		Language:    r.Language,
		Stars:       r.Stars,
		Forks:       r.Forks,
		UpdatedAt:   r.UpdatedAt,
		Owner:       domain.Owner{Login: r.Owner},
	}
}

func (u *UserOutput) toDomain() domain.User {
	return domain.User{ID: u.ID, Login: u.Login, HTMLURL: u.URL, Type: u.Type, Followers: u.Followers}
}
