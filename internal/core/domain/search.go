package domain

import "strings"

// PerPage is the fixed page size for every paginated request.
const PerPage = 30

// SortOption selects the sort field of a search. The empty value is
// GitHub's best-match ranking, which sends no sort parameters at all.
type SortOption string

// Sort options shared by all searches.
const (
	SortBestMatch SortOption = ""
)

// Repository sort options.
const (
	SortStars   SortOption = "stars"
	SortForks   SortOption = "forks"
	SortUpdated SortOption = "updated"
)

// User sort options.
const (
	SortFollowers    SortOption = "followers"
	SortRepositories SortOption = "repositories"
	SortJoined       SortOption = "joined"
)

// RepositorySortOptions lists the sorts valid for repository search.
var RepositorySortOptions = []SortOption{SortBestMatch, SortStars, SortForks, SortUpdated}

// UserSortOptions lists the sorts valid for user search.
var UserSortOptions = []SortOption{SortBestMatch, SortFollowers, SortRepositories, SortJoined}

// DisplayName returns a human-readable label.
func (o SortOption) DisplayName() string {
	if o == SortBestMatch {
		return "Best Match"
	}
	s := string(o)
	return strings.ToUpper(s[:1]) + s[1:]
}

// Flag returns the command-line spelling of the option.
func (o SortOption) Flag() string {
	if o == SortBestMatch {
		return "best-match"
	}
	return string(o)
}

// ParseSortOption resolves a command-line spelling against the allowed set.
func ParseSortOption(s string, allowed []SortOption) (SortOption, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, o := range allowed {
		if s == o.Flag() || (s == "" && o == SortBestMatch) {
			return o, nil
		}
	}
	return SortBestMatch, ErrInvalidInput
}

// SortOrder is the direction of a sorted search.
type SortOrder string

// Sort orders.
const (
	OrderDesc SortOrder = "desc"
	OrderAsc  SortOrder = "asc"
)

// Toggle returns the opposite order.
func (o SortOrder) Toggle() SortOrder {
	if o == OrderAsc {
		return OrderDesc
	}
	return OrderAsc
}

// DisplayName returns a human-readable label.
func (o SortOrder) DisplayName() string {
	if o == OrderAsc {
		return "Ascending"
	}
	return "Descending"
}

// ParseSortOrder parses "asc" or "desc".
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desc":
		return OrderDesc, nil
	case "asc":
		return OrderAsc, nil
	default:
		return OrderDesc, ErrInvalidInput
	}
}

// SearchQuery is the input of one paginated search request.
type SearchQuery struct {
	Text    string
	Sort    SortOption
	Order   SortOrder
	Page    int
	PerPage int
}

// NewSearchQuery returns page 1 of text with default ordering.
func NewSearchQuery(text string) SearchQuery {
	return SearchQuery{Text: text, Order: OrderDesc, Page: 1, PerPage: PerPage}
}

// IsEmpty reports whether the text is blank after trimming.
func (q SearchQuery) IsEmpty() bool {
	return strings.TrimSpace(q.Text) == ""
}

// SearchState is an immutable snapshot of a search engine.
//
// HasMore is a heuristic: it is true when the most recent page was full.
// A result set of exactly PerPage items therefore reports HasMore even
// though the next page will be empty.
type SearchState[T any] struct {
	Query      SearchQuery
	Items      []T
	TotalCount int
	IsLoading  bool
	HasMore    bool
	Err        error
}

// ShowError reports whether an error should be rendered.
func (s SearchState[T]) ShowError() bool {
	return s.Err != nil
}

// ErrorMessage returns the user-facing text for Err.
func (s SearchState[T]) ErrorMessage() string {
	return UserMessage(s.Err)
}
