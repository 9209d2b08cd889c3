package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tryvocalcat/fediprofile/internal/apub"
	"github.com/tryvocalcat/fediprofile/pkg/httpsig"
)

// ActorFetcher retrieves remote actor documents over signed GETs, with an
// optional Redis cache in front. A nil cache client disables caching.
type ActorFetcher struct {
	client *httpsig.Client
	cache  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewActorFetcher constructs an actor fetcher.
func NewActorFetcher(client *httpsig.Client, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) *ActorFetcher {
	return &ActorFetcher{
		client: client,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With().Str("component", "actor_fetcher").Logger(),
	}
}

// Fetch returns the actor document at actorURL. Errors are returned to the
// caller, which decides whether the failure degrades or aborts its flow.
func (f *ActorFetcher) Fetch(ctx context.Context, actorURL, privateKeyPEM, keyID string) (*apub.Actor, error) {
	cacheKey := "actor:" + actorURL

	if f.cache != nil {
		if cached, err := f.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			var actor apub.Actor
			if err := json.Unmarshal(cached, &actor); err == nil {
				return &actor, nil
			}
		}
	}

	var actor apub.Actor
	if err := f.client.FetchJSON(ctx, actorURL, privateKeyPEM, keyID, &actor); err != nil {
		return nil, fmt.Errorf("failed to fetch actor %s: %w", actorURL, err)
	}
	if actor.ID == "" {
		actor.ID = actorURL
	}

	if f.cache != nil {
		if encoded, err := json.Marshal(actor); err == nil {
			if err := f.cache.Set(ctx, cacheKey, encoded, f.ttl).Err(); err != nil {
				f.logger.Debug().Err(err).Str("actor", actorURL).Msg("failed to cache actor document")
			}
		}
	}

	return &actor, nil
}
