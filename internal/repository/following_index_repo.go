package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tryvocalcat/fediprofile/internal/models"
)

// FollowingIndexRepository maintains the domain-wide (slug, remote actor)
// index used for shared-inbox fan-out.
type FollowingIndexRepository interface {
	Add(ctx context.Context, slug, actorURL string) error
	Remove(ctx context.Context, slug, actorURL string) error
	FollowersOfActor(ctx context.Context, actorURL string) ([]string, error)
}

type followingIndexRepository struct {
	db *gorm.DB
}

// NewFollowingIndexRepository constructs the index over a domain store.
func NewFollowingIndexRepository(db *gorm.DB) FollowingIndexRepository {
	return &followingIndexRepository{db: db}
}

// Add records the pair; re-adding an existing pair is a silent no-op.
func (r *followingIndexRepository) Add(ctx context.Context, slug, actorURL string) error {
	entry := models.FollowingEntry{Slug: slug, ActorURL: actorURL}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entry).Error
}

func (r *followingIndexRepository) Remove(ctx context.Context, slug, actorURL string) error {
	return r.db.WithContext(ctx).
		Where("slug = ? AND actor_url = ?", slug, actorURL).
		Delete(&models.FollowingEntry{}).Error
}

// FollowersOfActor answers "which local tenants follow this actor" with a
// single query regardless of tenant count.
func (r *followingIndexRepository) FollowersOfActor(ctx context.Context, actorURL string) ([]string, error) {
	var slugs []string
	err := r.db.WithContext(ctx).Model(&models.FollowingEntry{}).
		Where("actor_url = ?", actorURL).
		Order("slug asc").
		Pluck("slug", &slugs).Error
	if err != nil {
		return nil, err
	}
	return slugs, nil
}
