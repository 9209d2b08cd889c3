package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tryvocalcat/fediprofile/internal/apub"
	"github.com/tryvocalcat/fediprofile/internal/repository"
)

func newTestDispatchService() *DispatchService {
	client := newTestClient()
	fetcher := NewActorFetcher(client, nil, 0, zerolog.Nop())
	follow := NewFollowService(client, fetcher, zerolog.Nop())
	announce := NewAnnounceService(client, fetcher, follow, zerolog.Nop())
	return NewDispatchService(follow, announce, zerolog.Nop())
}

func TestDispatchRoutesFollow(t *testing.T) {
	st := newTenantStoreWithoutKey(t)
	svc := newTestDispatchService()
	ctx := context.Background()

	activity := &apub.Activity{
		ID:        "https://remote.example/activities/1",
		Type:      apub.TypeFollow,
		Actor:     "https://remote.example/users/bob",
		ObjectRef: testLocalActor,
	}
	require.NoError(t, svc.Dispatch(ctx, activity, st, testLocalActor))

	count, err := repository.NewFollowerRepository(st.DB()).Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestDispatchIgnoresUndoWithoutNestedFollow(t *testing.T) {
	st := newTenantStore(t)
	svc := newTestDispatchService()

	activity := &apub.Activity{
		ID:        "https://remote.example/activities/2",
		Type:      apub.TypeUndo,
		Actor:     "https://remote.example/users/bob",
		ObjectRef: "https://remote.example/notes/1",
	}
	require.NoError(t, svc.Dispatch(context.Background(), activity, st, testLocalActor))
}

func TestDispatchIgnoresRemoteAnnounceAndUnknownTypes(t *testing.T) {
	st := newTenantStore(t)
	svc := newTestDispatchService()
	ctx := context.Background()

	require.NoError(t, svc.Dispatch(ctx, &apub.Activity{
		ID:        "https://remote.example/activities/3",
		Type:      apub.TypeAnnounce,
		Actor:     "https://remote.example/users/bob",
		ObjectRef: "https://elsewhere.example/notes/1",
	}, st, testLocalActor))

	require.NoError(t, svc.Dispatch(ctx, &apub.Activity{
		ID:    "https://remote.example/activities/4",
		Type:  "Like",
		Actor: "https://remote.example/users/bob",
	}, st, testLocalActor))
}
