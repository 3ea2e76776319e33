package domain

import (
	"fmt"
	"strings"
	"time"
)

// MaxHistoryItems caps each history list.
const MaxHistoryItems = 20

// HistoryType says which list a history item belongs to.
type HistoryType string

// History types.
const (
	HistoryRepository HistoryType = "repository"
	HistoryUser       HistoryType = "user"
)

// HistoryItem is a recently viewed repository or user.
// IDs are namespaced ("repo_<id>", "user_<id>") so they are unique
// across both lists.
type HistoryItem struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Subtitle  string      `json:"subtitle"`
	URL       string      `json:"url"`
	Timestamp time.Time   `json:"timestamp"`
	Type      HistoryType `json:"type"`
}

// RepositoryHistoryItem builds the history entry for a repository.
func RepositoryHistoryItem(r Repository, now time.Time) HistoryItem {
	return HistoryItem{
		ID:        fmt.Sprintf("repo_%d", r.ID),
		Title:     r.Name,
		Subtitle:  r.Owner.Login,
		URL:       r.HTMLURL,
		Timestamp: now,
		Type:      HistoryRepository,
	}
}

// UserHistoryItem builds the history entry for a user.
func UserHistoryItem(u User, now time.Time) HistoryItem {
	return HistoryItem{
		ID:        fmt.Sprintf("user_%d", u.ID),
		Title:     u.Login,
		Subtitle:  fmt.Sprintf("%d followers", u.Followers),
		URL:       u.HTMLURL,
		Timestamp: now,
		Type:      HistoryUser,
	}
}

// HistoryTypeOf infers the list from a namespaced id.
func HistoryTypeOf(id string) (HistoryType, bool) {
	switch {
	case strings.HasPrefix(id, "repo_"):
		return HistoryRepository, true
	case strings.HasPrefix(id, "user_"):
		return HistoryUser, true
	default:
		return "", false
	}
}
