package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gitscope/internal/core/domain"
)

func makeRepos(n int) []domain.Repository {
	repos := make([]domain.Repository, n)
	for i := range repos {
		repos[i] = domain.Repository{
			ID:       int64(i + 1),
			Name:     fmt.Sprintf("repo%d", i+1),
			FullName: fmt.Sprintf("octocat/repo%d", i+1),
			HTMLURL:  fmt.Sprintf("https://github.com/octocat/repo%d", i+1),
			Stars:    10 * i,
		}
	}
	return repos
}

func TestSearchRepos(t *testing.T) {
	ts := setupTestServices(t)
	ts.repos.all = makeRepos(2)
	ts.repos.all[0].Description = "first repository"
	ts.repos.all[0].Language = "Go"

	out, err := execute(t, "search", "repos", "language:go", "cli")

	require.NoError(t, err)
	assert.Equal(t, "language:go cli", ts.repos.state.Query.Text)
	assert.Contains(t, out, "Showing 2 of 2 repositories")
	assert.Contains(t, out, "[1] octocat/repo1")
	assert.Contains(t, out, "first repository")
	assert.Contains(t, out, "Go")
	assert.NotContains(t, out, "More results available")
	assert.True(t, ts.repos.closed)
}

func TestSearchRepos_SortAndOrder(t *testing.T) {
	ts := setupTestServices(t)
	ts.repos.all = makeRepos(1)

	_, err := execute(t, "search", "repos", "cli", "--sort", "stars", "--order", "asc")

	require.NoError(t, err)
	assert.Equal(t, domain.SortStars, ts.repos.state.Query.Sort)
	assert.Equal(t, domain.OrderAsc, ts.repos.state.Query.Order)
}

func TestSearchRepos_InvalidSort(t *testing.T) {
	ts := setupTestServices(t)
	ts.repos.all = makeRepos(1)

	_, err := execute(t, "search", "repos", "cli", "--sort", "followers")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "--sort")
}

func TestSearchRepos_Pages(t *testing.T) {
	ts := setupTestServices(t)
	ts.repos.all = makeRepos(90)

	out, err := execute(t, "search", "repos", "cli", "--pages", "2")

	require.NoError(t, err)
	assert.Len(t, ts.repos.state.Items, 60)
	assert.Contains(t, out, "Showing 60 of 90 repositories")
	assert.Contains(t, out, "More results available")
}

func TestSearchRepos_PagesStopWhenExhausted(t *testing.T) {
	ts := setupTestServices(t)
	ts.repos.all = makeRepos(40)

	_, err := execute(t, "search", "repos", "cli", "--pages", "5")

	require.NoError(t, err)
	assert.Len(t, ts.repos.state.Items, 40)
	assert.Equal(t, 2, ts.repos.state.Query.Page)
}

func TestSearchRepos_JSON(t *testing.T) {
	ts := setupTestServices(t)
	ts.repos.all = makeRepos(2)

	out, err := execute(t, "search", "repos", "cli", "--json")
	require.NoError(t, err)

	var got []domain.Repository
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, ts.repos.all, got)
}

func TestSearchRepos_Select(t *testing.T) {
	ts := setupTestServices(t)
	ts.repos.all = makeRepos(3)

	out, err := execute(t, "search", "repos", "cli", "--select", "2")

	require.NoError(t, err)
	assert.Equal(t, "https://github.com/octocat/repo2", strings.TrimSpace(out))
	require.Len(t, ts.repos.selected, 1)
	assert.Equal(t, int64(2), ts.repos.selected[0].ID)

	_, err = execute(t, "search", "repos", "cli", "--select", "9")
	assert.ErrorContains(t, err, "out of range")
}

func TestSearchRepos_NoResults(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "search", "repos", "zzzz")

	require.NoError(t, err)
	assert.Contains(t, out, "No repositories found.")
}

func TestSearchRepos_Error(t *testing.T) {
	ts := setupTestServices(t)
	ts.repos.err = errors.New("boom")

	_, err := execute(t, "search", "repos", "cli")

	require.Error(t, err)
	assert.Equal(t, domain.UserMessage(errors.New("boom")), err.Error())
}

func TestSearchUsers(t *testing.T) {
	ts := setupTestServices(t)
	ts.users.all = []domain.User{
		{ID: 1, Login: "octocat", HTMLURL: "https://github.com/octocat", Type: "User"},
		{ID: 2, Login: "github", HTMLURL: "https://github.com/github", Type: "Organization"},
	}

	out, err := execute(t, "search", "users", "octo", "--sort", "followers")

	require.NoError(t, err)
	assert.Equal(t, domain.SortFollowers, ts.users.state.Query.Sort)
	assert.Contains(t, out, "[1] octocat  https://github.com/octocat")
	assert.Contains(t, out, "github (Organization)")
}

func TestSearch_RequiresQuery(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "search", "repos")
	assert.Error(t, err)
}

func TestRepos(t *testing.T) {
	ts := setupTestServices(t)
	ts.userRepos.all = makeRepos(2)

	out, err := execute(t, "repos", "octocat")

	require.NoError(t, err)
	assert.Equal(t, "octocat", ts.userRepos.state.Query.Text)
	assert.Contains(t, out, "octocat/repo1")
	assert.True(t, ts.userRepos.closed)
}

func TestSelected(t *testing.T) {
	items := []string{"a", "b"}

	_, ok, err := selected(items, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	got, ok, err := selected(items, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b", got)

	_, _, err = selected(items, -1)
	assert.Error(t, err)
}
