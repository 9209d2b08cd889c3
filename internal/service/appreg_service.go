package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// AppRegistration is the OAuth client credentials issued by a remote host.
type AppRegistration struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// AppRegistrationService deduplicates per-host OAuth client registration.
// One coarse lock serializes all first-time registrations; registration is a
// one-time-per-host, low-frequency operation, so the simplicity wins over
// per-host locking.
type AppRegistrationService struct {
	clientName  string
	redirectURI string
	http        *resty.Client
	logger      zerolog.Logger

	mu   sync.RWMutex
	apps map[string]AppRegistration
}

// NewAppRegistrationService constructs the registration cache.
func NewAppRegistrationService(clientName, redirectURI string, timeout time.Duration, logger zerolog.Logger) *AppRegistrationService {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &AppRegistrationService{
		clientName:  clientName,
		redirectURI: redirectURI,
		http:        resty.New().SetTimeout(timeout),
		logger:      logger.With().Str("component", "app_registration").Logger(),
		apps:        make(map[string]AppRegistration),
	}
}

// GetOrRegister returns the cached credentials for a remote host, performing
// the registration handshake at most once per host. Concurrent first callers
// collapse to a single remote call via the re-check under the write lock.
func (s *AppRegistrationService) GetOrRegister(ctx context.Context, remoteHost string) (AppRegistration, error) {
	host := normalizeHost(remoteHost)
	if host == "" {
		return AppRegistration{}, fmt.Errorf("remote host must not be empty")
	}

	s.mu.RLock()
	app, ok := s.apps[host]
	s.mu.RUnlock()
	if ok {
		return app, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if app, ok := s.apps[host]; ok {
		return app, nil
	}

	var registered AppRegistration
	resp, err := s.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"client_name":   s.clientName,
			"redirect_uris": s.redirectURI,
			"scopes":        "read:accounts",
		}).
		SetResult(&registered).
		Post("https://" + host + "/api/v1/apps")
	if err != nil {
		return AppRegistration{}, fmt.Errorf("app registration with %s failed: %w", host, err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return AppRegistration{}, fmt.Errorf("app registration with %s returned status %d", host, resp.StatusCode())
	}
	if registered.ClientID == "" {
		return AppRegistration{}, fmt.Errorf("app registration with %s returned no client id", host)
	}

	s.apps[host] = registered
	s.logger.Info().Str("host", host).Msg("registered oauth application")
	return registered, nil
}

// normalizeHost lower-cases and trims a remote host. The port is kept: a
// remote instance on a non-default port is a distinct registration target.
func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	host = strings.TrimPrefix(host, "https://")
	return strings.TrimSuffix(host, "/")
}
