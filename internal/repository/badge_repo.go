package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tryvocalcat/fediprofile/internal/models"
)

// BadgeRepository stores badge issuers and received badge assertions.
type BadgeRepository interface {
	UpsertIssuer(ctx context.Context, issuer models.BadgeIssuer) (models.BadgeIssuer, error)
	UpsertBadge(ctx context.Context, badge models.ReceivedBadge) error
	GetBadgeByNote(ctx context.Context, noteURI string) (models.ReceivedBadge, error)
	ListBadges(ctx context.Context) ([]models.ReceivedBadge, error)
}

type badgeRepository struct {
	db *gorm.DB
}

// NewBadgeRepository constructs a badge repository over a tenant store.
func NewBadgeRepository(db *gorm.DB) BadgeRepository {
	return &badgeRepository{db: db}
}

// UpsertIssuer inserts or refreshes the issuer keyed by actor URI and
// returns the stored row so callers can link badges to it.
func (r *badgeRepository) UpsertIssuer(ctx context.Context, issuer models.BadgeIssuer) (models.BadgeIssuer, error) {
	var existing models.BadgeIssuer
	err := r.db.WithContext(ctx).Where("actor_uri = ?", issuer.ActorURI).First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return models.BadgeIssuer{}, err
		}
		if err := r.db.WithContext(ctx).Create(&issuer).Error; err != nil {
			return models.BadgeIssuer{}, err
		}
		return issuer, nil
	}

	existing.Name = issuer.Name
	existing.URL = issuer.URL
	existing.Avatar = issuer.Avatar
	if err := r.db.WithContext(ctx).Save(&existing).Error; err != nil {
		return models.BadgeIssuer{}, err
	}
	return existing, nil
}

// UpsertBadge inserts or refreshes the badge keyed by note URI, so
// re-delivery of the same note updates rather than duplicates.
func (r *badgeRepository) UpsertBadge(ctx context.Context, badge models.ReceivedBadge) error {
	var existing models.ReceivedBadge
	err := r.db.WithContext(ctx).Where("note_uri = ?", badge.NoteURI).First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return err
		}
		return r.db.WithContext(ctx).Create(&badge).Error
	}

	badge.ID = existing.ID
	badge.CreatedAt = existing.CreatedAt
	return r.db.WithContext(ctx).Save(&badge).Error
}

func (r *badgeRepository) GetBadgeByNote(ctx context.Context, noteURI string) (models.ReceivedBadge, error) {
	var badge models.ReceivedBadge
	if err := r.db.WithContext(ctx).Where("note_uri = ?", noteURI).First(&badge).Error; err != nil {
		return models.ReceivedBadge{}, err
	}
	return badge, nil
}

func (r *badgeRepository) ListBadges(ctx context.Context) ([]models.ReceivedBadge, error) {
	var badges []models.ReceivedBadge
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&badges).Error; err != nil {
		return nil, err
	}
	return badges, nil
}
