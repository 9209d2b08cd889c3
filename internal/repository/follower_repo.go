package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tryvocalcat/fediprofile/internal/models"
)

// FollowerRepository provides access to a tenant's follower rows.
type FollowerRepository interface {
	Upsert(ctx context.Context, follower models.Follower) error
	Remove(ctx context.Context, actorURI string) error
	Get(ctx context.Context, actorURI string) (models.Follower, error)
	List(ctx context.Context) ([]models.Follower, error)
	Count(ctx context.Context) (int64, error)
}

type followerRepository struct {
	db *gorm.DB
}

// NewFollowerRepository constructs a follower repository over a tenant store.
func NewFollowerRepository(db *gorm.DB) FollowerRepository {
	return &followerRepository{db: db}
}

// Upsert inserts or updates the row keyed by actor URI. Metadata fields only
// overwrite when non-empty, so a degraded re-delivery (actor document
// unreachable) never clobbers a previously resolved inbox.
func (r *followerRepository) Upsert(ctx context.Context, follower models.Follower) error {
	var existing models.Follower
	err := r.db.WithContext(ctx).Where("actor_uri = ?", follower.ActorURI).First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return err
		}
		return r.db.WithContext(ctx).Create(&follower).Error
	}

	updates := map[string]any{"status": follower.Status}
	if follower.Inbox != "" {
		updates["inbox"] = follower.Inbox
	}
	if follower.DisplayName != "" {
		updates["display_name"] = follower.DisplayName
	}
	if follower.Avatar != "" {
		updates["avatar"] = follower.Avatar
	}
	if follower.Domain != "" {
		updates["domain"] = follower.Domain
	}

	return r.db.WithContext(ctx).Model(&models.Follower{}).
		Where("actor_uri = ?", follower.ActorURI).
		Updates(updates).Error
}

func (r *followerRepository) Remove(ctx context.Context, actorURI string) error {
	return r.db.WithContext(ctx).Where("actor_uri = ?", actorURI).Delete(&models.Follower{}).Error
}

func (r *followerRepository) Get(ctx context.Context, actorURI string) (models.Follower, error) {
	var follower models.Follower
	if err := r.db.WithContext(ctx).Where("actor_uri = ?", actorURI).First(&follower).Error; err != nil {
		return models.Follower{}, err
	}
	return follower, nil
}

func (r *followerRepository) List(ctx context.Context) ([]models.Follower, error) {
	var followers []models.Follower
	if err := r.db.WithContext(ctx).Order("created_at asc").Find(&followers).Error; err != nil {
		return nil, err
	}
	return followers, nil
}

func (r *followerRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follower{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
