package cli

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gitscope/internal/core/domain"
)

func seedHistory(ts *testServices) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ts.history.repos = []domain.HistoryItem{
		domain.RepositoryHistoryItem(domain.Repository{ID: 1, Name: "hello", Stars: 5}, now),
	}
	ts.history.users = []domain.HistoryItem{
		domain.UserHistoryItem(domain.User{ID: 2, Login: "octocat"}, now),
	}
}

func TestHistoryList(t *testing.T) {
	ts := setupTestServices(t)
	seedHistory(ts)

	out, err := execute(t, "history")

	require.NoError(t, err)
	assert.Contains(t, out, "Repositories")
	assert.Contains(t, out, "repo_1")
	assert.Contains(t, out, "Users")
	assert.Contains(t, out, "user_2")
}

func TestHistoryList_Type(t *testing.T) {
	ts := setupTestServices(t)
	seedHistory(ts)

	out, err := execute(t, "history", "list", "--type", "users")

	require.NoError(t, err)
	assert.NotContains(t, out, "repo_1")
	assert.Contains(t, out, "user_2")

	_, err = execute(t, "history", "list", "--type", "orgs")
	assert.ErrorContains(t, err, "invalid --type")
}

func TestHistoryList_Empty(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "history", "list", "-t", "repos")

	require.NoError(t, err)
	assert.Contains(t, out, "(empty)")
}

func TestHistoryList_JSON(t *testing.T) {
	ts := setupTestServices(t)
	seedHistory(ts)

	out, err := execute(t, "history", "list", "--json", "--type", "repos")
	require.NoError(t, err)

	var got map[string][]domain.HistoryItem
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got["repositories"], 1)
	assert.Equal(t, "repo_1", got["repositories"][0].ID)
	assert.NotContains(t, got, "users")
}

func TestHistoryClear(t *testing.T) {
	ts := setupTestServices(t)

	_, err := execute(t, "history", "clear", "--type", "repos")

	require.NoError(t, err)
	assert.True(t, ts.history.clearedRepos)
	assert.False(t, ts.history.clearedUsers)

	out, err := execute(t, "history", "clear")

	require.NoError(t, err)
	assert.True(t, ts.history.clearedUsers)
	assert.Contains(t, out, "History cleared")
}

func TestHistoryDelete(t *testing.T) {
	ts := setupTestServices(t)
	seedHistory(ts)

	out, err := execute(t, "history", "delete", "user_2")

	require.NoError(t, err)
	assert.Equal(t, []string{"user_2"}, ts.history.deleted)
	assert.Contains(t, out, "Deleted user_2")

	_, err = execute(t, "history", "delete", "repo_99")
	assert.EqualError(t, err, `no history entry "repo_99"`)
}
