package driving

import (
	"context"

	"github.com/custodia-labs/gitscope/internal/core/domain"
)

// HistoryService keeps the most recently viewed repositories and users.
type HistoryService interface {
	AddRepository(ctx context.Context, repo domain.Repository) error
	AddUser(ctx context.Context, user domain.User) error
	RepositoryHistory() []domain.HistoryItem
	UserHistory() []domain.HistoryItem
	ClearRepository(ctx context.Context) error
	ClearUser(ctx context.Context) error

	// ClearAll empties both lists.
	ClearAll(ctx context.Context) error

	// DeleteItem removes the entry with id from whichever list holds it.
	DeleteItem(ctx context.Context, id string) error
	// Subscribe registers fn to run after every mutation.
	Subscribe(fn func()) (unsubscribe func())
}
