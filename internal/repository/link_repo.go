package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tryvocalcat/fediprofile/internal/models"
)

// LinkRepository reads the profile links the admin layer writes.
type LinkRepository interface {
	Create(ctx context.Context, link *models.Link) error
	ListVisible(ctx context.Context) ([]models.Link, error)
	ListAutoBoost(ctx context.Context) ([]models.Link, error)
	ListAll(ctx context.Context) ([]models.Link, error)
}

type linkRepository struct {
	db *gorm.DB
}

// NewLinkRepository constructs a link repository over a tenant store.
func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) Create(ctx context.Context, link *models.Link) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *linkRepository) ListVisible(ctx context.Context) ([]models.Link, error) {
	var links []models.Link
	err := r.db.WithContext(ctx).
		Where("hidden = ?", false).
		Order("position asc, id asc").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (r *linkRepository) ListAutoBoost(ctx context.Context) ([]models.Link, error) {
	var links []models.Link
	err := r.db.WithContext(ctx).
		Where("auto_boost = ?", true).
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (r *linkRepository) ListAll(ctx context.Context) ([]models.Link, error) {
	var links []models.Link
	if err := r.db.WithContext(ctx).Order("position asc, id asc").Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}
