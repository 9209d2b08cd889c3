package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tryvocalcat/fediprofile/internal/apub"
	"github.com/tryvocalcat/fediprofile/internal/models"
	"github.com/tryvocalcat/fediprofile/internal/repository"
	"github.com/tryvocalcat/fediprofile/internal/store"
)

// ActorService projects a tenant store into the public ActivityStreams
// documents: the actor itself, its webfinger record and the followers
// collection summary. It has no UI dependency.
type ActorService struct {
	logger zerolog.Logger
}

// NewActorService constructs an ActorService instance.
func NewActorService(logger zerolog.Logger) *ActorService {
	return &ActorService{logger: logger.With().Str("component", "actor_service").Logger()}
}

// ActorURI is the canonical URI for a slug served on a host.
func ActorURI(requestHost, slug string) string {
	return "https://" + requestHost + "/" + slug
}

// BuildActor assembles the actor document from the tenant's settings, key
// material and visible links.
func (s *ActorService) BuildActor(ctx context.Context, st *store.Store, requestHost, slug string) (apub.Actor, error) {
	if !st.HasUserScope() {
		return apub.Actor{}, fmt.Errorf("store for %s is not tenant scoped", slug)
	}

	settings := repository.NewSettingRepository(st.DB())
	id := ActorURI(requestHost, slug)

	displayName, _ := settings.Get(ctx, models.SettingDisplayName)
	if displayName == "" {
		displayName = slug
	}
	bio, _ := settings.Get(ctx, models.SettingBio)
	avatar, _ := settings.Get(ctx, models.SettingAvatarURL)

	actor := apub.Actor{
		Context:           apub.DocumentContext,
		ID:                id,
		Type:              apub.TypePerson,
		PreferredUsername: slug,
		Name:              displayName,
		Summary:           bio,
		Inbox:             id + "/inbox",
		Outbox:            id + "/outbox",
		Followers:         id + "/followers",
		Following:         id + "/following",
		Endpoints:         &apub.Endpoints{SharedInbox: "https://" + requestHost + "/sharedInbox"},
	}

	if avatar != "" {
		actor.Icon = &apub.Image{Type: "Image", URL: avatar}
	}

	if key, err := repository.NewKeyRepository(st.DB()).Get(ctx); err == nil {
		actor.PublicKey = &apub.PublicKey{
			ID:           KeyID(id),
			Owner:        id,
			PublicKeyPem: key.PublicKeyPEM,
		}
	} else {
		s.logger.Warn().Str("slug", slug).Msg("tenant has no key material, serving actor without public key")
	}

	links, err := repository.NewLinkRepository(st.DB()).ListVisible(ctx)
	if err != nil {
		return apub.Actor{}, fmt.Errorf("failed to load links: %w", err)
	}
	for _, link := range links {
		actor.Attachment = append(actor.Attachment, apub.Attachment{
			Type:  "PropertyValue",
			Name:  link.Title,
			Value: link.URL,
		})
	}

	return actor, nil
}

// WebFinger builds the discovery document for a registered slug.
func (s *ActorService) WebFinger(requestHost, slug string) apub.WebFinger {
	return apub.WebFinger{
		Subject: "acct:" + slug + "@" + requestHost,
		Links: []apub.WebFingerLink{
			{
				Rel:  "self",
				Type: "application/activity+json",
				Href: ActorURI(requestHost, slug),
			},
		},
	}
}

// FollowersCollection builds the unpaged followers summary.
func (s *ActorService) FollowersCollection(ctx context.Context, st *store.Store, requestHost, slug string) (apub.OrderedCollection, error) {
	count, err := repository.NewFollowerRepository(st.DB()).Count(ctx)
	if err != nil {
		return apub.OrderedCollection{}, fmt.Errorf("failed to count followers: %w", err)
	}

	return apub.OrderedCollection{
		Context:    apub.DocumentContext,
		ID:         ActorURI(requestHost, slug) + "/followers",
		Type:       "OrderedCollection",
		TotalItems: count,
	}, nil
}
