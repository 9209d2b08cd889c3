package handler

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/tryvocalcat/fediprofile/internal/apub"
	"github.com/tryvocalcat/fediprofile/internal/observability"
	"github.com/tryvocalcat/fediprofile/internal/repository"
	"github.com/tryvocalcat/fediprofile/internal/service"
	"github.com/tryvocalcat/fediprofile/internal/store"
	"github.com/tryvocalcat/fediprofile/internal/utils"
)

// InboxHandler is the federation ingress: the per-user inbox and the
// domain-wide shared inbox.
type InboxHandler struct {
	resolver   *store.Resolver
	dispatcher *service.DispatchService
	logger     zerolog.Logger
}

// NewInboxHandler builds an inbox handler instance.
func NewInboxHandler(resolver *store.Resolver, dispatcher *service.DispatchService, logger zerolog.Logger) *InboxHandler {
	return &InboxHandler{
		resolver:   resolver,
		dispatcher: dispatcher,
		logger:     logger.With().Str("component", "inbox_handler").Logger(),
	}
}

// Inbox handles POST /{slug}/inbox. A valid JSON body always yields 200,
// even when downstream processing degrades; expected domain failures are
// absorbed so delivery stays fire-and-forget for the remote peer.
func (h *InboxHandler) Inbox(c *fiber.Ctx) error {
	activity, err := apub.ParseActivity(c.Body())
	if err != nil {
		observability.InboxActivities().WithLabelValues("invalid", "rejected").Inc()
		return utils.SendError(c, fiber.StatusBadRequest, "invalid activity body")
	}

	slug := c.Params("slug")
	host := c.Hostname()

	st, scoped, err := h.resolver.Tenant(c.Context(), host, slug, false)
	if err != nil {
		h.logger.Error().Err(err).Str("slug", slug).Msg("failed to resolve tenant store")
		observability.InboxActivities().WithLabelValues(activity.Type, "error").Inc()
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
	if !scoped {
		h.logger.Warn().Str("slug", slug).Str("type", activity.Type).Msg("inbox delivery for unknown profile ignored")
		observability.InboxActivities().WithLabelValues(activity.Type, "ignored").Inc()
		return utils.SendSuccess(c, "ignored", nil)
	}

	localActor := service.ActorURI(host, store.NormalizeSlug(slug))
	if err := h.dispatcher.Dispatch(c.Context(), activity, st, localActor); err != nil {
		h.logger.Error().Err(err).Str("type", activity.Type).Msg("activity processing failed")
		observability.InboxActivities().WithLabelValues(activity.Type, "error").Inc()
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	observability.InboxActivities().WithLabelValues(activity.Type, "ok").Inc()
	return utils.SendSuccess(c, "processed", nil)
}

// SharedInbox handles POST /sharedInbox. Follow and Undo resolve their
// target tenant from the activity object URL; Create fans out through the
// domain-level following index, each tenant delivery independent.
func (h *InboxHandler) SharedInbox(c *fiber.Ctx) error {
	activity, err := apub.ParseActivity(c.Body())
	if err != nil {
		observability.InboxActivities().WithLabelValues("invalid", "rejected").Inc()
		return utils.SendError(c, fiber.StatusBadRequest, "invalid activity body")
	}

	host := c.Hostname()

	switch activity.Type {
	case apub.TypeFollow, apub.TypeUndo:
		h.routeToTarget(c, activity, host)
	case apub.TypeCreate:
		h.fanOutCreate(c, activity, host)
	default:
		h.logger.Debug().Str("type", activity.Type).Msg("shared inbox ignoring activity")
		observability.InboxActivities().WithLabelValues(activity.Type, "ignored").Inc()
	}

	return utils.SendSuccess(c, "processed", nil)
}

func (h *InboxHandler) routeToTarget(c *fiber.Ctx, activity *apub.Activity, host string) {
	target := activity.ObjectRef
	if activity.Type == apub.TypeUndo && activity.ObjectFollow != nil {
		target = activity.ObjectFollow.Object
	}

	slug, ok := localSlugFromURL(target, host)
	if !ok {
		h.logger.Warn().Str("object", target).Str("type", activity.Type).Msg("shared inbox target is not a local profile")
		observability.InboxActivities().WithLabelValues(activity.Type, "ignored").Inc()
		return
	}

	st, scoped, err := h.resolver.Tenant(c.Context(), host, slug, false)
	if err != nil || !scoped {
		h.logger.Warn().Str("slug", slug).Msg("shared inbox target slug not registered, ignoring")
		observability.InboxActivities().WithLabelValues(activity.Type, "ignored").Inc()
		return
	}

	localActor := service.ActorURI(host, slug)
	if err := h.dispatcher.Dispatch(c.Context(), activity, st, localActor); err != nil {
		h.logger.Error().Err(err).Str("slug", slug).Msg("shared inbox dispatch failed")
		observability.InboxActivities().WithLabelValues(activity.Type, "error").Inc()
		return
	}
	observability.InboxActivities().WithLabelValues(activity.Type, "ok").Inc()
}

func (h *InboxHandler) fanOutCreate(c *fiber.Ctx, activity *apub.Activity, host string) {
	domainStore, err := h.resolver.Domain(host)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to resolve domain store for fan-out")
		observability.InboxActivities().WithLabelValues(activity.Type, "error").Inc()
		return
	}

	index := repository.NewFollowingIndexRepository(domainStore.DB())
	slugs, err := index.FollowersOfActor(c.Context(), activity.Actor)
	if err != nil {
		h.logger.Error().Err(err).Str("actor", activity.Actor).Msg("following index lookup failed")
		observability.InboxActivities().WithLabelValues(activity.Type, "error").Inc()
		return
	}

	for _, slug := range slugs {
		st, scoped, err := h.resolver.Tenant(c.Context(), host, slug, false)
		if err != nil || !scoped {
			h.logger.Warn().Str("slug", slug).Msg("skipping fan-out to unresolvable tenant")
			continue
		}
		if err := h.dispatcher.Dispatch(c.Context(), activity, st, service.ActorURI(host, slug)); err != nil {
			h.logger.Warn().Err(err).Str("slug", slug).Msg("fan-out dispatch failed, continuing")
		}
	}
	observability.InboxActivities().WithLabelValues(activity.Type, "ok").Inc()
}

// localSlugFromURL extracts the first path segment of a URL on the request
// host; ok is false when the URL belongs to another host or has no path.
func localSlugFromURL(rawURL, host string) (string, bool) {
	if rawURL == "" {
		return "", false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	if store.NormalizeDomain(u.Host) != store.NormalizeDomain(host) {
		return "", false
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return "", false
	}
	return store.NormalizeSlug(segments[0]), true
}
