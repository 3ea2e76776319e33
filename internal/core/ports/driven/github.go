package driven

import (
	"context"

	"github.com/custodia-labs/gitscope/internal/core/domain"
)

// GitHubAPI is the subset of the GitHub REST API the program consumes.
// Errors are *domain.NetworkError values.
type GitHubAPI interface {
	// CurrentUser calls GET /user with the stored token.
	CurrentUser(ctx context.Context) (*domain.AuthenticatedUser, error)

	// SearchRepositories calls GET /search/repositories.
	SearchRepositories(ctx context.Context, q domain.SearchQuery) (domain.Page[domain.Repository], error)

	// SearchUsers calls GET /search/users.
	SearchUsers(ctx context.Context, q domain.SearchQuery) (domain.Page[domain.User], error)

	// UserRepositories calls GET /users/{login}/repos.
	UserRepositories(ctx context.Context, login string, page int) (domain.Page[domain.Repository], error)
}
