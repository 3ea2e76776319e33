package services

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/custodia-labs/gitscope/internal/core/domain"
	"github.com/custodia-labs/gitscope/internal/core/ports/driven"
	"github.com/custodia-labs/gitscope/internal/core/ports/driving"
	"github.com/custodia-labs/gitscope/internal/logger"
)

// Ensure HistoryService implements the interface.
var _ driving.HistoryService = (*HistoryService)(nil)

// HistoryService is a write-through cache of recently viewed repositories
// and users. Reads are served from memory; every mutation is saved to the
// store before the in-memory list changes, so a failed write leaves both
// unchanged.
type HistoryService struct {
	store driven.HistoryStore
	now   func() time.Time
	limit int

	repos historyList
	users historyList

	events broadcaster[struct{}]
}

// historyList is one independently locked list.
type historyList struct {
	path  string
	mu    sync.RWMutex
	items []domain.HistoryItem
}

// NewHistoryService loads both lists from store.
func NewHistoryService(ctx context.Context, store driven.HistoryStore) (*HistoryService, error) {
	s := &HistoryService{
		store: store,
		now:   time.Now,
		limit: domain.MaxHistoryItems,
		repos: historyList{path: driven.RepositoryHistoryPath},
		users: historyList{path: driven.UserHistoryPath},
	}
	for _, l := range []*historyList{&s.repos, &s.users} {
		items, err := store.Load(ctx, l.path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", l.path, err)
		}
		if len(items) > s.limit {
			items = items[:s.limit]
		}
		l.items = items
	}
	return s, nil
}

// AddRepository records a viewed repository at the head of its list.
func (s *HistoryService) AddRepository(ctx context.Context, repo domain.Repository) error {
	return s.add(ctx, &s.repos, domain.RepositoryHistoryItem(repo, s.now()))
}

// AddUser records a viewed user at the head of its list.
func (s *HistoryService) AddUser(ctx context.Context, user domain.User) error {
	return s.add(ctx, &s.users, domain.UserHistoryItem(user, s.now()))
}

// RepositoryHistory returns viewed repositories, most recent first.
func (s *HistoryService) RepositoryHistory() []domain.HistoryItem {
	return s.repos.snapshot()
}

// UserHistory returns viewed users, most recent first.
func (s *HistoryService) UserHistory() []domain.HistoryItem {
	return s.users.snapshot()
}

// ClearRepository empties the repository list.
func (s *HistoryService) ClearRepository(ctx context.Context) error {
	return s.replace(ctx, &s.repos, func([]domain.HistoryItem) ([]domain.HistoryItem, bool) { return nil, true })
}

// ClearUser empties the user list.
func (s *HistoryService) ClearUser(ctx context.Context) error {
	return s.replace(ctx, &s.users, func([]domain.HistoryItem) ([]domain.HistoryItem, bool) { return nil, true })
}

// ClearAll empties both lists. The repository list is cleared first; a
// failure there leaves the user list untouched.
func (s *HistoryService) ClearAll(ctx context.Context) error {
	if err := s.ClearRepository(ctx); err != nil {
		return err
	}
	return s.ClearUser(ctx)
}

// DeleteItem removes id from the list its prefix names. Ids without a
// known prefix are looked up in both lists.
func (s *HistoryService) DeleteItem(ctx context.Context, id string) error {
	lists := []*historyList{&s.repos, &s.users}
	if typ, ok := domain.HistoryTypeOf(id); ok {
		if typ == domain.HistoryRepository {
			lists = lists[:1]
		} else {
			lists = lists[1:]
		}
	}

	for _, l := range lists {
		found := false
		err := s.replace(ctx, l, func(items []domain.HistoryItem) ([]domain.HistoryItem, bool) {
			i := slices.IndexFunc(items, func(it domain.HistoryItem) bool { return it.ID == id })
			if i < 0 {
				return items, false
			}
			found = true
			return slices.Delete(slices.Clone(items), i, i+1), true
		})
		if err != nil {
			return err
		}
		if found {
			return nil
		}
	}
	return domain.ErrNotFound
}

// Subscribe registers fn to run after every mutation.
func (s *HistoryService) Subscribe(fn func()) func() {
	return s.events.subscribe(func(struct{}) { fn() })
}

func (s *HistoryService) add(ctx context.Context, l *historyList, item domain.HistoryItem) error {
	return s.replace(ctx, l, func(items []domain.HistoryItem) ([]domain.HistoryItem, bool) {
		return pushHistory(items, item, s.limit), true
	})
}

// replace computes the next list under the list lock, writes it through to
// the store and then swaps the in-memory copy.
func (s *HistoryService) replace(
	ctx context.Context,
	l *historyList,
	next func([]domain.HistoryItem) ([]domain.HistoryItem, bool),
) error {
	l.mu.Lock()
	items, changed := next(l.items)
	if !changed {
		l.mu.Unlock()
		return nil
	}
	if err := s.store.Save(ctx, l.path, items); err != nil {
		l.mu.Unlock()
		return fmt.Errorf("save %s: %w", l.path, err)
	}
	l.items = items
	n := len(items)
	l.mu.Unlock()

	logger.Debug("history: %s now has %d items", l.path, n)
	s.events.publish(0, struct{}{})
	return nil
}

func (l *historyList) snapshot() []domain.HistoryItem {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.items)
}

// pushHistory returns a new list with item at the head, any earlier entry
// with the same id removed, truncated to limit.
func pushHistory(items []domain.HistoryItem, item domain.HistoryItem, limit int) []domain.HistoryItem {
	out := make([]domain.HistoryItem, 0, min(len(items)+1, limit))
	out = append(out, item)
	for _, it := range items {
		if len(out) == limit {
			break
		}
		if it.ID != item.ID {
			out = append(out, it)
		}
	}
	return out
}
