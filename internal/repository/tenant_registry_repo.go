package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tryvocalcat/fediprofile/internal/models"
)

// TenantRegistryRepository manages the domain-level slug registry.
type TenantRegistryRepository interface {
	Register(ctx context.Context, tenant *models.Tenant) error
	GetBySlug(ctx context.Context, slug string) (models.Tenant, error)
	GetByIdentity(ctx context.Context, externalIdentity string) (models.Tenant, error)
	List(ctx context.Context) ([]models.Tenant, error)
}

type tenantRegistryRepository struct {
	db *gorm.DB
}

// NewTenantRegistryRepository constructs a registry repository over a domain store.
func NewTenantRegistryRepository(db *gorm.DB) TenantRegistryRepository {
	return &tenantRegistryRepository{db: db}
}

func (r *tenantRegistryRepository) Register(ctx context.Context, tenant *models.Tenant) error {
	return r.db.WithContext(ctx).Create(tenant).Error
}

func (r *tenantRegistryRepository) GetBySlug(ctx context.Context, slug string) (models.Tenant, error) {
	var tenant models.Tenant
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&tenant).Error; err != nil {
		return models.Tenant{}, err
	}
	return tenant, nil
}

func (r *tenantRegistryRepository) GetByIdentity(ctx context.Context, externalIdentity string) (models.Tenant, error) {
	var tenant models.Tenant
	if err := r.db.WithContext(ctx).Where("external_identity = ?", externalIdentity).First(&tenant).Error; err != nil {
		return models.Tenant{}, err
	}
	return tenant, nil
}

func (r *tenantRegistryRepository) List(ctx context.Context) ([]models.Tenant, error) {
	var tenants []models.Tenant
	if err := r.db.WithContext(ctx).Order("slug asc").Find(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}
