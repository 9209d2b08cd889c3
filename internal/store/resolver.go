package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/tryvocalcat/fediprofile/internal/database"
	"github.com/tryvocalcat/fediprofile/internal/models"
	"github.com/tryvocalcat/fediprofile/internal/repository"
	"github.com/tryvocalcat/fediprofile/pkg/keyring"
)

// Tenant lifecycle errors surfaced to the admin/login collaborators.
var (
	ErrReservedSlug  = errors.New("slug is reserved")
	ErrInvalidSlug   = errors.New("slug must be lowercase letters, digits or dashes")
	ErrIdentityBound = errors.New("external identity is already bound to another profile")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Resolver maps normalized (domain, slug) keys to isolated stores. Handles
// are memoized process-wide: the same key always yields the same handle,
// first-writer-wins under concurrent first access.
type Resolver struct {
	dataDir  string
	reserved map[string]struct{}
	validate *validator.Validate
	logger   zerolog.Logger

	mu     sync.Mutex
	stores map[string]*Store
}

// NewResolver constructs a resolver rooted at dataDir.
func NewResolver(dataDir string, reservedSlugs []string, logger zerolog.Logger) *Resolver {
	reserved := make(map[string]struct{}, len(reservedSlugs))
	for _, slug := range reservedSlugs {
		reserved[NormalizeSlug(slug)] = struct{}{}
	}

	return &Resolver{
		dataDir:  dataDir,
		reserved: reserved,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With().Str("component", "store_resolver").Logger(),
		stores:   make(map[string]*Store),
	}
}

// NormalizeDomain lower-cases a host and strips port and trailing slash.
func NormalizeDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	domain = strings.TrimSuffix(domain, "/")
	if host, _, found := strings.Cut(domain, ":"); found {
		domain = host
	}
	return domain
}

// NormalizeSlug lower-cases and trims a profile slug.
func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(strings.Trim(slug, "/")))
}

// Domain resolves the shared store for a domain, creating schema lazily.
func (r *Resolver) Domain(domain string) (*Store, error) {
	domain = NormalizeDomain(domain)
	if domain == "" {
		return nil, fmt.Errorf("domain must not be empty")
	}

	st, err := r.handle(domain, filepath.Join(r.dataDir, domain, "domain.db"), ScopeDomain, nil, "")
	if err != nil {
		return nil, err
	}
	if err := st.EnsureSchema(); err != nil {
		return nil, fmt.Errorf("failed to prepare domain store %s: %w", domain, err)
	}
	return st, nil
}

// Tenant resolves the store for a slug on a domain. The second return value
// reports whether the result is genuinely user-scoped: when the slug is not
// registered, or its backing storage has not been materialized and
// autoCreate is false, the domain store is returned instead and callers
// must not assume tenant schema.
func (r *Resolver) Tenant(ctx context.Context, domain, slug string, autoCreate bool) (*Store, bool, error) {
	domainStore, err := r.Domain(domain)
	if err != nil {
		return nil, false, err
	}

	slug = NormalizeSlug(slug)
	if slug == "" {
		return domainStore, false, nil
	}

	registry := repository.NewTenantRegistryRepository(domainStore.DB())
	if _, err := registry.GetBySlug(ctx, slug); err != nil {
		r.logger.Debug().Str("slug", slug).Msg("slug not registered, falling back to domain store")
		return domainStore, false, nil
	}

	path := r.tenantPath(domain, slug)
	if !autoCreate {
		if _, err := os.Stat(path); err != nil {
			r.logger.Warn().Str("slug", slug).Msg("tenant store not materialized, falling back to domain store")
			return domainStore, false, nil
		}
	}

	st, err := r.handle(NormalizeDomain(domain)+"/"+slug, path, ScopeTenant, domainStore, slug)
	if err != nil {
		return nil, false, err
	}
	if err := st.EnsureSchema(); err != nil {
		return nil, false, fmt.Errorf("failed to prepare tenant store %s: %w", slug, err)
	}
	return st, true, nil
}

// InitializeTenant registers a slug, materializes its store and lazily
// generates its keypair. The three steps are not transactional: a partial
// failure leaves a registered-but-incomplete tenant, and re-invocation
// completes the missing steps instead of erroring.
func (r *Resolver) InitializeTenant(ctx context.Context, domain, slug, externalIdentity, displayName string) (*Store, error) {
	domain = NormalizeDomain(domain)
	slug = NormalizeSlug(slug)

	if err := r.validate.Var(slug, "required,min=2,max=64"); err != nil || !slugPattern.MatchString(slug) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}
	if err := r.validate.Var(displayName, "max=255"); err != nil {
		return nil, fmt.Errorf("display name too long: %w", err)
	}
	if _, ok := r.reserved[slug]; ok {
		return nil, fmt.Errorf("%w: %q", ErrReservedSlug, slug)
	}

	domainStore, err := r.Domain(domain)
	if err != nil {
		return nil, err
	}

	registry := repository.NewTenantRegistryRepository(domainStore.DB())

	if externalIdentity != "" {
		if bound, err := registry.GetByIdentity(ctx, externalIdentity); err == nil && bound.Slug != slug {
			return nil, fmt.Errorf("%w: %s", ErrIdentityBound, externalIdentity)
		}
	}

	if _, err := registry.GetBySlug(ctx, slug); err != nil {
		tenant := models.Tenant{
			Slug:             slug,
			Domain:           domain,
			ExternalIdentity: externalIdentity,
			DisplayName:      displayName,
		}
		if err := registry.Register(ctx, &tenant); err != nil {
			return nil, fmt.Errorf("failed to register tenant %s: %w", slug, err)
		}
	}

	st, scoped, err := r.Tenant(ctx, domain, slug, true)
	if err != nil {
		return nil, err
	}
	if !scoped {
		return nil, fmt.Errorf("tenant store for %s did not materialize", slug)
	}

	keys := repository.NewKeyRepository(st.DB())
	if _, err := keys.Get(ctx); err != nil {
		pair, err := keyring.Generate()
		if err != nil {
			return nil, fmt.Errorf("failed to generate tenant keypair: %w", err)
		}
		if err := keys.Create(ctx, pair.PrivatePEM, pair.PublicPEM); err != nil {
			return nil, fmt.Errorf("failed to store tenant keypair: %w", err)
		}
		r.logger.Info().Str("slug", slug).Msg("generated tenant keypair")
	}

	return st, nil
}

func (r *Resolver) tenantPath(domain, slug string) string {
	return filepath.Join(r.dataDir, NormalizeDomain(domain), "users", slug+".db")
}

func (r *Resolver) handle(key, path string, scope Scope, domain *Store, slug string) (*Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if st, ok := r.stores[key]; ok {
		return st, nil
	}

	db, err := database.OpenSQLite(path)
	if err != nil {
		return nil, err
	}

	st := &Store{db: db, path: path, scope: scope, domain: domain, slug: slug}
	r.stores[key] = st
	return st, nil
}
