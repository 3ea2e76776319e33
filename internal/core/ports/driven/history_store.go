package driven

import (
	"context"

	"github.com/custodia-labs/gitscope/internal/core/domain"
)

// Document paths for the two history lists.
const (
	RepositoryHistoryPath = "repository_history"
	UserHistoryPath       = "user_history"
)

// HistoryStore persists history lists as documents keyed by path.
type HistoryStore interface {
	// Load returns the list stored at path. A missing document is an
	// empty list, not an error.
	Load(ctx context.Context, path string) ([]domain.HistoryItem, error)

	// Save replaces the list stored at path.
	Save(ctx context.Context, path string, items []domain.HistoryItem) error
}
