// Package store resolves inbound (domain, slug) pairs to isolated sqlite
// stores and owns tenant lifecycle: registration, lazy schema creation and
// lazy keypair generation.
package store

import (
	"sync"

	"gorm.io/gorm"

	"github.com/tryvocalcat/fediprofile/internal/models"
)

// Scope says whether a resolved store actually carries user-scoped schema.
// Callers that received a fallback must not rely on tenant tables.
type Scope int

const (
	// ScopeDomain marks the shared domain-level store.
	ScopeDomain Scope = iota
	// ScopeTenant marks a per-user store.
	ScopeTenant
)

// Store is a handle to one sqlite file. Schema creation is deferred until
// the first physical access: construct the handle, then EnsureSchema.
type Store struct {
	db     *gorm.DB
	path   string
	slug   string
	domain *Store // nil for domain stores

	schemaOnce sync.Once
	schemaErr  error
	scope      Scope
}

// DB exposes the underlying gorm handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Path returns the sqlite file backing this store.
func (s *Store) Path() string {
	return s.path
}

// Slug returns the tenant slug, empty for domain stores.
func (s *Store) Slug() string {
	return s.slug
}

// Scope reports whether this handle is domain- or tenant-scoped.
func (s *Store) Scope() Scope {
	return s.scope
}

// HasUserScope reports whether tenant-scoped operations are safe on this
// handle. A Tenant() resolution may have fallen back to the domain store.
func (s *Store) HasUserScope() bool {
	return s.scope == ScopeTenant
}

// DomainStore returns the domain-level store a tenant store belongs to, or
// the store itself when it already is domain-scoped.
func (s *Store) DomainStore() *Store {
	if s.domain != nil {
		return s.domain
	}
	return s
}

// EnsureSchema migrates the store's tables exactly once per handle, so
// concurrent first access from multiple requests cannot race table creation.
func (s *Store) EnsureSchema() error {
	s.schemaOnce.Do(func() {
		if s.scope == ScopeDomain {
			s.schemaErr = s.db.AutoMigrate(&models.Tenant{}, &models.FollowingEntry{})
			return
		}
		s.schemaErr = s.db.AutoMigrate(
			&models.Follower{},
			&models.Link{},
			&models.BadgeIssuer{},
			&models.ReceivedBadge{},
			&models.KeyMaterial{},
			&models.Setting{},
		)
	})
	return s.schemaErr
}
