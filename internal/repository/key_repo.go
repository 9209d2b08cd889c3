package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tryvocalcat/fediprofile/internal/models"
)

// KeyRepository accesses a tenant's single RSA keypair.
type KeyRepository interface {
	Get(ctx context.Context) (models.KeyMaterial, error)
	Create(ctx context.Context, privatePEM, publicPEM string) error
}

type keyRepository struct {
	db *gorm.DB
}

// NewKeyRepository constructs a key repository over a tenant store.
func NewKeyRepository(db *gorm.DB) KeyRepository {
	return &keyRepository{db: db}
}

func (r *keyRepository) Get(ctx context.Context) (models.KeyMaterial, error) {
	var key models.KeyMaterial
	if err := r.db.WithContext(ctx).First(&key).Error; err != nil {
		return models.KeyMaterial{}, err
	}
	return key, nil
}

func (r *keyRepository) Create(ctx context.Context, privatePEM, publicPEM string) error {
	key := models.KeyMaterial{PrivateKeyPEM: privatePEM, PublicKeyPEM: publicPEM}
	return r.db.WithContext(ctx).Create(&key).Error
}
