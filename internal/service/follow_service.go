package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tryvocalcat/fediprofile/internal/apub"
	"github.com/tryvocalcat/fediprofile/internal/models"
	"github.com/tryvocalcat/fediprofile/internal/observability"
	"github.com/tryvocalcat/fediprofile/internal/repository"
	"github.com/tryvocalcat/fediprofile/internal/store"
	"github.com/tryvocalcat/fediprofile/pkg/httpsig"
)

// ErrMissingPrivateKey indicates the tenant store holds no key material, so
// no outbound request can be signed on its behalf.
var ErrMissingPrivateKey = errors.New("tenant has no private key")

// FollowService implements the Follow/Accept/Undo protocol exchange.
type FollowService struct {
	client  *httpsig.Client
	fetcher *ActorFetcher
	logger  zerolog.Logger
}

// NewFollowService constructs a FollowService instance.
func NewFollowService(client *httpsig.Client, fetcher *ActorFetcher, logger zerolog.Logger) *FollowService {
	return &FollowService{
		client:  client,
		fetcher: fetcher,
		logger:  logger.With().Str("component", "follow_service").Logger(),
	}
}

// KeyID returns the key identifier advertised for a local actor's keypair.
func KeyID(localActor string) string {
	return localActor + "#main-key"
}

// HandleFollow records the follower and replies with a signed Accept. The
// follower row is written even when the remote actor document cannot be
// fetched (inbox left unset, no Accept sent): the relationship is real even
// if delivery back is currently impossible.
func (s *FollowService) HandleFollow(ctx context.Context, activity *apub.Activity, st *store.Store, localActor string) error {
	if activity.Actor == "" {
		s.logger.Warn().Str("id", activity.ID).Msg("follow activity without actor, ignoring")
		return nil
	}

	followers := repository.NewFollowerRepository(st.DB())
	follower := models.Follower{
		ActorURI: activity.Actor,
		Domain:   hostOf(activity.Actor),
		Status:   models.FollowerStatusPending,
	}

	key, err := repository.NewKeyRepository(st.DB()).Get(ctx)
	if err != nil {
		s.logger.Warn().Str("actor", activity.Actor).Msg("no private key for tenant, recording follower without accept")
		return followers.Upsert(ctx, follower)
	}

	remote, err := s.fetcher.Fetch(ctx, activity.Actor, key.PrivateKeyPEM, KeyID(localActor))
	if err != nil {
		s.logger.Warn().Err(err).Str("actor", activity.Actor).Msg("remote actor unreachable, recording follower without accept")
		return followers.Upsert(ctx, follower)
	}

	follower.Inbox = remote.Inbox
	follower.DisplayName = remote.Name
	if remote.Icon != nil {
		follower.Avatar = remote.Icon.URL
	}
	follower.Status = models.FollowerStatusAccepted

	if err := followers.Upsert(ctx, follower); err != nil {
		return fmt.Errorf("failed to record follower: %w", err)
	}

	if remote.Inbox == "" {
		s.logger.Warn().Str("actor", activity.Actor).Msg("remote actor has no inbox, skipping accept")
		return nil
	}

	accept := apub.Document{
		Context: apub.DocumentContext,
		ID:      localActor + "#accepts/" + uuid.NewString(),
		Type:    apub.TypeAccept,
		Actor:   localActor,
		Object: apub.FollowObject{
			ID:     activity.ID,
			Type:   apub.TypeFollow,
			Actor:  activity.Actor,
			Object: localActor,
		},
	}

	if err := s.deliver(ctx, accept, remote.Inbox, key.PrivateKeyPEM, KeyID(localActor)); err != nil {
		s.logger.Warn().Err(err).Str("inbox", remote.Inbox).Msg("accept delivery failed")
	}
	return nil
}

// HandleUnfollow removes the follower named by an Undo whose nested object
// is a Follow. Any other Undo payload is ignored; no network call is made.
func (s *FollowService) HandleUnfollow(ctx context.Context, activity *apub.Activity, st *store.Store) error {
	inner := activity.ObjectFollow
	if inner == nil || inner.Type != apub.TypeFollow || inner.Actor == "" {
		s.logger.Debug().Str("id", activity.ID).Msg("undo without nested follow, ignoring")
		return nil
	}

	return repository.NewFollowerRepository(st.DB()).Remove(ctx, inner.Actor)
}

// SendFollowRequest signs and delivers a Follow with a fresh id. No pending
// state is persisted; the relationship is only marked once the caller
// records it explicitly.
func (s *FollowService) SendFollowRequest(ctx context.Context, remoteActorURL, remoteInboxURL string, st *store.Store, localActor string) error {
	key, err := repository.NewKeyRepository(st.DB()).Get(ctx)
	if err != nil {
		return fmt.Errorf("cannot follow %s: %w", remoteActorURL, ErrMissingPrivateKey)
	}

	follow := apub.Document{
		Context: apub.DocumentContext,
		ID:      localActor + "#follows/" + uuid.NewString(),
		Type:    apub.TypeFollow,
		Actor:   localActor,
		Object:  remoteActorURL,
	}

	return s.deliver(ctx, follow, remoteInboxURL, key.PrivateKeyPEM, KeyID(localActor))
}

// SendUnfollow signs and delivers an Undo wrapping a reconstructed Follow,
// both with fresh ids.
func (s *FollowService) SendUnfollow(ctx context.Context, remoteActorURL, remoteInboxURL string, st *store.Store, localActor string) error {
	key, err := repository.NewKeyRepository(st.DB()).Get(ctx)
	if err != nil {
		return fmt.Errorf("cannot unfollow %s: %w", remoteActorURL, ErrMissingPrivateKey)
	}

	undo := apub.Document{
		Context: apub.DocumentContext,
		ID:      localActor + "#undos/" + uuid.NewString(),
		Type:    apub.TypeUndo,
		Actor:   localActor,
		Object: apub.FollowObject{
			ID:     localActor + "#follows/" + uuid.NewString(),
			Type:   apub.TypeFollow,
			Actor:  localActor,
			Object: remoteActorURL,
		},
	}

	return s.deliver(ctx, undo, remoteInboxURL, key.PrivateKeyPEM, KeyID(localActor))
}

func (s *FollowService) deliver(ctx context.Context, doc apub.Document, inbox, privateKeyPEM, keyID string) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s activity: %w", doc.Type, err)
	}

	_, _, err = s.client.SendSigned(ctx, "POST", inbox, body, privateKeyPEM, keyID)
	if err != nil {
		observability.Deliveries().WithLabelValues(doc.Type, "failed").Inc()
		return err
	}
	observability.Deliveries().WithLabelValues(doc.Type, "ok").Inc()
	return nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
