package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFollowingIndexAddIsIdempotent(t *testing.T) {
	repo := NewFollowingIndexRepository(testDomainDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, "alice", "https://remote.example/users/bob"))
	require.NoError(t, repo.Add(ctx, "alice", "https://remote.example/users/bob"))
	require.NoError(t, repo.Add(ctx, "carol", "https://remote.example/users/bob"))

	slugs, err := repo.FollowersOfActor(ctx, "https://remote.example/users/bob")
	require.NoError(t, err)
	require.Equal(t, []string{"alice", "carol"}, slugs)
}

func TestFollowingIndexRemove(t *testing.T) {
	repo := NewFollowingIndexRepository(testDomainDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, "alice", "https://remote.example/users/bob"))
	require.NoError(t, repo.Add(ctx, "alice", "https://remote.example/users/carol"))
	require.NoError(t, repo.Remove(ctx, "alice", "https://remote.example/users/bob"))

	slugs, err := repo.FollowersOfActor(ctx, "https://remote.example/users/bob")
	require.NoError(t, err)
	require.Empty(t, slugs)

	slugs, err = repo.FollowersOfActor(ctx, "https://remote.example/users/carol")
	require.NoError(t, err)
	require.Equal(t, []string{"alice"}, slugs)
}
