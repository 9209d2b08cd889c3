package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tryvocalcat/fediprofile/internal/apub"
	"github.com/tryvocalcat/fediprofile/internal/store"
)

// DispatchService classifies an inbound activity and routes it to the
// follow or announce coordinator. It keeps no state of its own; handlers
// may run concurrently for the same tenant, so every route target is
// idempotent over its natural key.
type DispatchService struct {
	follow   *FollowService
	announce *AnnounceService
	logger   zerolog.Logger
}

// NewDispatchService constructs a DispatchService instance.
func NewDispatchService(follow *FollowService, announce *AnnounceService, logger zerolog.Logger) *DispatchService {
	return &DispatchService{
		follow:   follow,
		announce: announce,
		logger:   logger.With().Str("component", "dispatch_service").Logger(),
	}
}

// Dispatch routes one activity against one tenant store. Unknown types and
// remote Announces are ignored: relaying third-party boosts would let any
// followed account amplify arbitrary content through every tenant.
func (s *DispatchService) Dispatch(ctx context.Context, activity *apub.Activity, st *store.Store, localActor string) error {
	switch activity.Type {
	case apub.TypeFollow:
		return s.follow.HandleFollow(ctx, activity, st, localActor)
	case apub.TypeUndo:
		if activity.ObjectFollow == nil {
			s.logger.Debug().Str("id", activity.ID).Msg("undo of non-follow object, ignoring")
			return nil
		}
		return s.follow.HandleUnfollow(ctx, activity, st)
	case apub.TypeCreate:
		return s.announce.HandleCreate(ctx, activity, st, localActor)
	case apub.TypeAnnounce:
		s.logger.Debug().Str("id", activity.ID).Msg("remote announce ignored")
		return nil
	default:
		s.logger.Debug().Str("type", activity.Type).Str("id", activity.ID).Msg("unknown activity type ignored")
		return nil
	}
}
