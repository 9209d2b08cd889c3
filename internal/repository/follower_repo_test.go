package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tryvocalcat/fediprofile/internal/database"
	"github.com/tryvocalcat/fediprofile/internal/models"
)

func testTenantDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "tenant.db"))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Follower{},
		&models.Link{},
		&models.BadgeIssuer{},
		&models.ReceivedBadge{},
		&models.KeyMaterial{},
		&models.Setting{},
	))
	return db
}

func testDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "domain.db"))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Tenant{}, &models.FollowingEntry{}))
	return db
}

func TestFollowerUpsertIsIdempotent(t *testing.T) {
	repo := NewFollowerRepository(testTenantDB(t))
	ctx := context.Background()

	follower := models.Follower{
		ActorURI: "https://remote.example/users/bob",
		Domain:   "remote.example",
		Inbox:    "https://remote.example/users/bob/inbox",
		Status:   models.FollowerStatusAccepted,
	}
	require.NoError(t, repo.Upsert(ctx, follower))
	require.NoError(t, repo.Upsert(ctx, follower))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestFollowerUpsertPreservesInboxOnDegradedRedelivery(t *testing.T) {
	repo := NewFollowerRepository(testTenantDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, models.Follower{
		ActorURI:    "https://remote.example/users/bob",
		Inbox:       "https://remote.example/users/bob/inbox",
		DisplayName: "Bob",
		Status:      models.FollowerStatusAccepted,
	}))

	// Re-delivery while the remote actor document is unreachable carries no
	// metadata; the stored inbox must survive.
	require.NoError(t, repo.Upsert(ctx, models.Follower{
		ActorURI: "https://remote.example/users/bob",
		Status:   models.FollowerStatusPending,
	}))

	stored, err := repo.Get(ctx, "https://remote.example/users/bob")
	require.NoError(t, err)
	require.Equal(t, "https://remote.example/users/bob/inbox", stored.Inbox)
	require.Equal(t, "Bob", stored.DisplayName)
	require.Equal(t, models.FollowerStatusPending, stored.Status)
}

func TestFollowerRemove(t *testing.T) {
	repo := NewFollowerRepository(testTenantDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, models.Follower{ActorURI: "https://remote.example/users/bob"}))
	require.NoError(t, repo.Upsert(ctx, models.Follower{ActorURI: "https://remote.example/users/carol"}))

	require.NoError(t, repo.Remove(ctx, "https://remote.example/users/bob"))

	_, err := repo.Get(ctx, "https://remote.example/users/bob")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}
