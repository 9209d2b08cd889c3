package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tryvocalcat/fediprofile/internal/models"
)

func TestSettingGetMissingKeyReturnsEmpty(t *testing.T) {
	repo := NewSettingRepository(testTenantDB(t))

	value, err := repo.Get(context.Background(), models.SettingBio)
	require.NoError(t, err)
	require.Empty(t, value)
}

func TestSettingSetOverwrites(t *testing.T) {
	repo := NewSettingRepository(testTenantDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, models.SettingDisplayName, "Alice"))
	require.NoError(t, repo.Set(ctx, models.SettingDisplayName, "Alice L."))

	value, err := repo.Get(ctx, models.SettingDisplayName)
	require.NoError(t, err)
	require.Equal(t, "Alice L.", value)
}
