package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/tryvocalcat/fediprofile/internal/apub"
	"github.com/tryvocalcat/fediprofile/internal/models"
	"github.com/tryvocalcat/fediprofile/internal/observability"
	"github.com/tryvocalcat/fediprofile/internal/repository"
	"github.com/tryvocalcat/fediprofile/internal/store"
	"github.com/tryvocalcat/fediprofile/pkg/httpsig"
)

// AnnounceService implements badge ingestion and the auto-boost relay
// triggered by inbound Create activities.
type AnnounceService struct {
	client    *httpsig.Client
	fetcher   *ActorFetcher
	follow    *FollowService
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewAnnounceService constructs an AnnounceService instance.
func NewAnnounceService(client *httpsig.Client, fetcher *ActorFetcher, follow *FollowService, logger zerolog.Logger) *AnnounceService {
	return &AnnounceService{
		client:    client,
		fetcher:   fetcher,
		follow:    follow,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger.With().Str("component", "announce_service").Logger(),
	}
}

// HandleCreate runs the two independent Create effects: badge ingestion when
// the note carries an assertion mentioning this tenant, and the auto-boost
// relay when the note's author matches an auto-boost link. Both effects are
// best-effort; neither failure propagates to the remote peer.
func (s *AnnounceService) HandleCreate(ctx context.Context, activity *apub.Activity, st *store.Store, localActor string) error {
	note := activity.ObjectNote
	if note == nil {
		s.logger.Debug().Str("id", activity.ID).Msg("create without structured note, ignoring")
		return nil
	}

	relayed := false

	if note.Badge != nil && s.mentionsLocal(ctx, note, st, localActor) {
		if err := s.ingestBadge(ctx, activity, note, st); err != nil {
			s.logger.Warn().Err(err).Str("note", note.ID).Msg("badge ingestion failed")
		} else if err := s.SendAnnounce(ctx, activity, st, localActor); err != nil {
			s.logger.Warn().Err(err).Str("note", note.ID).Msg("badge relay failed")
		} else {
			relayed = true
		}
	}

	if s.matchesAutoBoost(ctx, activity.Actor, st) {
		s.autoFollowSource(ctx, activity.Actor, st, localActor)
		if !relayed {
			if err := s.SendAnnounce(ctx, activity, st, localActor); err != nil {
				s.logger.Warn().Err(err).Str("actor", activity.Actor).Msg("auto-boost relay failed")
			}
		}
	}

	return nil
}

// SendAnnounce relays the Create to every stored follower. The document is
// built and encoded once; each delivery is signed and sent independently,
// and a failure for one follower never aborts the rest.
func (s *AnnounceService) SendAnnounce(ctx context.Context, activity *apub.Activity, st *store.Store, localActor string) error {
	key, err := repository.NewKeyRepository(st.DB()).Get(ctx)
	if err != nil {
		return fmt.Errorf("cannot announce: %w", ErrMissingPrivateKey)
	}

	object := activity.ID
	if object == "" {
		object = activity.ObjectURI()
	}

	announce := apub.Document{
		Context: apub.DocumentContext,
		ID:      localActor + "#announces/" + uuid.NewString(),
		Type:    apub.TypeAnnounce,
		Actor:   localActor,
		Object:  object,
		To:      []string{apub.PublicAudience},
	}

	body, err := json.Marshal(announce)
	if err != nil {
		return fmt.Errorf("failed to encode announce: %w", err)
	}

	followers, err := repository.NewFollowerRepository(st.DB()).List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list followers: %w", err)
	}

	for _, follower := range followers {
		if follower.Inbox == "" {
			s.logger.Warn().Str("actor", follower.ActorURI).Msg("follower has no inbox, skipping announce")
			continue
		}
		if _, _, err := s.client.SendSigned(ctx, "POST", follower.Inbox, body, key.PrivateKeyPEM, KeyID(localActor)); err != nil {
			observability.Deliveries().WithLabelValues(apub.TypeAnnounce, "failed").Inc()
			s.logger.Warn().Err(err).Str("inbox", follower.Inbox).Msg("announce delivery failed")
			continue
		}
		observability.Deliveries().WithLabelValues(apub.TypeAnnounce, "ok").Inc()
	}

	return nil
}

func (s *AnnounceService) ingestBadge(ctx context.Context, activity *apub.Activity, note *apub.Note, st *store.Store) error {
	badges := repository.NewBadgeRepository(st.DB())

	issuer := models.BadgeIssuer{ActorURI: activity.Actor}
	if ref := note.Badge.Issuer; ref != nil {
		if ref.ID != "" {
			issuer.ActorURI = ref.ID
		}
		issuer.Name = ref.Name
		issuer.URL = ref.URL
		issuer.Avatar = ref.Image
	}

	stored, err := badges.UpsertIssuer(ctx, issuer)
	if err != nil {
		return fmt.Errorf("failed to upsert issuer: %w", err)
	}

	badge := models.ReceivedBadge{
		NoteURI:     note.ID,
		IssuerID:    stored.ID,
		Name:        note.Badge.Name,
		Description: note.Badge.Description,
		Image:       note.Badge.Image,
		Content:     s.sanitizer.Sanitize(note.Content),
		AwardedAt:   note.Badge.IssuedOn,
	}

	if err := badges.UpsertBadge(ctx, badge); err != nil {
		return fmt.Errorf("failed to upsert badge: %w", err)
	}

	s.logger.Info().Str("note", note.ID).Str("issuer", stored.ActorURI).Msg("badge recorded")
	return nil
}

// mentionsLocal reports whether the note addresses this tenant: the local
// actor URI in to/cc, a Mention tag, or the actor URI or any published link
// URL appearing in the content.
func (s *AnnounceService) mentionsLocal(ctx context.Context, note *apub.Note, st *store.Store, localActor string) bool {
	for _, recipient := range append(append([]string{}, note.To...), note.Cc...) {
		if sameURL(recipient, localActor) {
			return true
		}
	}
	for _, tag := range note.Tag {
		if tag.Type == apub.TypeMention && sameURL(tag.Href, localActor) {
			return true
		}
	}

	if strings.Contains(note.Content, localActor) {
		return true
	}

	links, err := repository.NewLinkRepository(st.DB()).ListAll(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load links for mention detection")
		return false
	}
	for _, link := range links {
		if link.URL != "" && strings.Contains(note.Content, strings.TrimSuffix(link.URL, "/")) {
			return true
		}
	}
	return false
}

func (s *AnnounceService) matchesAutoBoost(ctx context.Context, actorURI string, st *store.Store) bool {
	if actorURI == "" {
		return false
	}

	links, err := repository.NewLinkRepository(st.DB()).ListAutoBoost(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load auto-boost links")
		return false
	}

	for _, link := range links {
		if sameURL(link.URL, actorURI) {
			return true
		}
	}
	return false
}

// autoFollowSource establishes a follow toward the boosted actor when the
// tenant is not already marked as following it. Every step is best-effort;
// the relay proceeds regardless of the outcome.
func (s *AnnounceService) autoFollowSource(ctx context.Context, actorURI string, st *store.Store, localActor string) {
	settings := repository.NewSettingRepository(st.DB())
	marker := models.FollowingMarkerPrefix + strings.TrimSuffix(actorURI, "/")

	if value, err := settings.Get(ctx, marker); err != nil || value == "true" {
		return
	}

	key, err := repository.NewKeyRepository(st.DB()).Get(ctx)
	if err != nil {
		s.logger.Warn().Str("actor", actorURI).Msg("no private key, skipping auto-follow")
		return
	}

	remote, err := s.fetcher.Fetch(ctx, actorURI, key.PrivateKeyPEM, KeyID(localActor))
	if err != nil || remote.Inbox == "" {
		s.logger.Warn().Err(err).Str("actor", actorURI).Msg("cannot resolve inbox for auto-follow")
		return
	}

	if err := s.follow.SendFollowRequest(ctx, actorURI, remote.Inbox, st, localActor); err != nil {
		s.logger.Warn().Err(err).Str("actor", actorURI).Msg("auto-follow delivery failed")
		return
	}

	if err := settings.Set(ctx, marker, "true"); err != nil {
		s.logger.Warn().Err(err).Msg("failed to mark auto-follow")
	}

	domainStore := st.DomainStore()
	if st.Slug() != "" {
		index := repository.NewFollowingIndexRepository(domainStore.DB())
		if err := index.Add(ctx, st.Slug(), actorURI); err != nil {
			s.logger.Warn().Err(err).Msg("failed to index following entry")
		}
	}
}

// sameURL compares two URLs ignoring a trailing slash.
func sameURL(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.TrimSuffix(a, "/") == strings.TrimSuffix(b, "/")
}
