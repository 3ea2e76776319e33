package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gitscope/internal/core/domain"
)

func TestTokenStore(t *testing.T) {
	ctx := context.Background()
	store := NewTokenStore()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.Save(ctx, "ghp_x"))
	token, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ghp_x", token)

	require.NoError(t, store.Delete(ctx))
	require.NoError(t, store.Delete(ctx))
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHistoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewHistoryStore()

	items, err := store.Load(ctx, "repository_history")
	require.NoError(t, err)
	assert.Empty(t, items)

	in := []domain.HistoryItem{{ID: "repo_1"}, {ID: "repo_2"}}
	require.NoError(t, store.Save(ctx, "repository_history", in))
	in[0].ID = "mutated"

	items, err = store.Load(ctx, "repository_history")
	require.NoError(t, err)
	assert.Equal(t, "repo_1", items[0].ID)
	assert.Equal(t, 1, store.Saves())
}
