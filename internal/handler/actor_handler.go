package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/tryvocalcat/fediprofile/internal/service"
	"github.com/tryvocalcat/fediprofile/internal/store"
	"github.com/tryvocalcat/fediprofile/internal/utils"
)

// ActorHandler serves the public federation documents: actor, webfinger and
// the followers collection summary.
type ActorHandler struct {
	resolver *store.Resolver
	actors   *service.ActorService
	logger   zerolog.Logger
}

// NewActorHandler builds an actor handler instance.
func NewActorHandler(resolver *store.Resolver, actors *service.ActorService, logger zerolog.Logger) *ActorHandler {
	return &ActorHandler{
		resolver: resolver,
		actors:   actors,
		logger:   logger.With().Str("component", "actor_handler").Logger(),
	}
}

// Actor handles GET /{slug}, serving the ActivityStreams actor document.
func (h *ActorHandler) Actor(c *fiber.Ctx) error {
	slug := store.NormalizeSlug(c.Params("slug"))
	host := c.Hostname()

	st, scoped, err := h.resolver.Tenant(c.Context(), host, slug, false)
	if err != nil {
		h.logger.Error().Err(err).Str("slug", slug).Msg("failed to resolve tenant store")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
	if !scoped {
		return utils.SendError(c, fiber.StatusNotFound, "profile not found")
	}

	actor, err := h.actors.BuildActor(c.Context(), st, host, slug)
	if err != nil {
		h.logger.Error().Err(err).Str("slug", slug).Msg("failed to build actor document")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendActivityJSON(c, actor)
}

// WebFinger handles GET /.well-known/webfinger for acct: resources.
func (h *ActorHandler) WebFinger(c *fiber.Ctx) error {
	resource := c.Query("resource")
	slug, ok := slugFromResource(resource, c.Hostname())
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "unsupported resource")
	}

	_, scoped, err := h.resolver.Tenant(c.Context(), c.Hostname(), slug, false)
	if err != nil || !scoped {
		return utils.SendError(c, fiber.StatusNotFound, "profile not found")
	}

	return utils.SendJSONAs(c, h.actors.WebFinger(store.NormalizeDomain(c.Hostname()), slug), "application/jrd+json")
}

// Followers handles GET /{slug}/followers with an unpaged collection summary.
func (h *ActorHandler) Followers(c *fiber.Ctx) error {
	slug := store.NormalizeSlug(c.Params("slug"))
	host := c.Hostname()

	st, scoped, err := h.resolver.Tenant(c.Context(), host, slug, false)
	if err != nil || !scoped {
		return utils.SendError(c, fiber.StatusNotFound, "profile not found")
	}

	collection, err := h.actors.FollowersCollection(c.Context(), st, host, slug)
	if err != nil {
		h.logger.Error().Err(err).Str("slug", slug).Msg("failed to build followers collection")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendActivityJSON(c, collection)
}

// slugFromResource extracts the slug from "acct:slug@host" when the host
// part matches the serving domain.
func slugFromResource(resource, host string) (string, bool) {
	resource = strings.TrimPrefix(strings.TrimSpace(resource), "acct:")
	slug, domain, found := strings.Cut(resource, "@")
	if !found || slug == "" {
		return "", false
	}
	if store.NormalizeDomain(domain) != store.NormalizeDomain(host) {
		return "", false
	}
	return store.NormalizeSlug(slug), true
}
