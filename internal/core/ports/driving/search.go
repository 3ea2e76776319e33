package driving

import (
	"context"

	"github.com/custodia-labs/gitscope/internal/core/domain"
)

// SearchEngine is a paginated, debounced search over one resource type.
type SearchEngine[T any] interface {
	// SetQueryText updates the text and schedules a debounced search.
	SetQueryText(text string)

	// Search runs page 1 of the current query immediately.
	Search(ctx context.Context) error

	// LoadMore appends the next page. It is a no-op when there are no more
	// results or a fetch is in flight.
	LoadMore(ctx context.Context) error

	// ChangeSortOption sets the sort and re-runs a non-empty query.
	ChangeSortOption(ctx context.Context, opt domain.SortOption) error

	// ToggleSortOrder flips the order and re-runs a non-empty query.
	ToggleSortOrder(ctx context.Context) error

	// SortOptions lists the sorts this engine accepts.
	SortOptions() []domain.SortOption

	// Select records item in the history.
	Select(ctx context.Context, item T)

	// Snapshot returns the current state.
	Snapshot() domain.SearchState[T]

	// Subscribe registers fn for state changes.
	Subscribe(fn func(domain.SearchState[T])) (unsubscribe func())

	// Close stops pending debounce timers and cancels in-flight requests.
	Close()
}

// RepositorySearch searches repositories.
type RepositorySearch = SearchEngine[domain.Repository]

// UserSearch searches users.
type UserSearch = SearchEngine[domain.User]
