package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tryvocalcat/fediprofile/internal/apub"
	"github.com/tryvocalcat/fediprofile/internal/models"
	"github.com/tryvocalcat/fediprofile/internal/repository"
	"github.com/tryvocalcat/fediprofile/internal/store"
	"github.com/tryvocalcat/fediprofile/pkg/httpsig"
)

func newTestAnnounceService() *AnnounceService {
	client := newTestClient()
	fetcher := NewActorFetcher(client, nil, 0, zerolog.Nop())
	follow := NewFollowService(client, fetcher, zerolog.Nop())
	return NewAnnounceService(client, fetcher, follow, zerolog.Nop())
}

func newFollowerInbox(t *testing.T, recorder *inboxRecorder) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder.record(r)
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func addFollower(t *testing.T, st *store.Store, actorURI, inbox string) {
	t.Helper()
	require.NoError(t, repository.NewFollowerRepository(st.DB()).Upsert(context.Background(), models.Follower{
		ActorURI: actorURI,
		Inbox:    inbox,
		Status:   models.FollowerStatusAccepted,
	}))
}

func TestSendAnnounceContinuesPastFailedDelivery(t *testing.T) {
	st := newTenantStore(t)
	svc := newTestAnnounceService()
	recorder := &inboxRecorder{}
	srv := newFollowerInbox(t, recorder)
	ctx := context.Background()

	// Unreachable follower first, no-inbox follower next; the reachable one
	// must still receive the relay.
	addFollower(t, st, "https://dead.example/users/x", "http://127.0.0.1:1/inbox")
	addFollower(t, st, "https://limbo.example/users/y", "")
	addFollower(t, st, "https://live.example/users/z", srv.URL+"/inbox")

	activity := &apub.Activity{
		ID:         "https://remote.example/activities/9",
		Type:       apub.TypeCreate,
		Actor:      "https://remote.example/users/bob",
		ObjectNote: &apub.Note{ID: "https://remote.example/notes/9", Type: apub.TypeNote},
	}
	require.NoError(t, svc.SendAnnounce(ctx, activity, st, testLocalActor))

	requests := recorder.all()
	require.Len(t, requests, 1)

	var announce struct {
		Type   string   `json:"type"`
		Actor  string   `json:"actor"`
		Object string   `json:"object"`
		To     []string `json:"to"`
	}
	require.NoError(t, json.Unmarshal(requests[0].Body, &announce))
	require.Equal(t, apub.TypeAnnounce, announce.Type)
	require.Equal(t, testLocalActor, announce.Actor)
	require.Equal(t, activity.ID, announce.Object)
	require.Equal(t, []string{apub.PublicAudience}, announce.To)

	key, err := repository.NewKeyRepository(st.DB()).Get(ctx)
	require.NoError(t, err)
	require.NoError(t, httpsig.Verify(
		"POST", srv.URL+"/inbox", verifyHeaders(requests[0]), requests[0].Body, key.PublicKeyPEM))
}

func TestSendAnnounceRequiresKey(t *testing.T) {
	st := newTenantStoreWithoutKey(t)
	svc := newTestAnnounceService()

	err := svc.SendAnnounce(context.Background(), &apub.Activity{ID: "x", Type: apub.TypeCreate}, st, testLocalActor)
	require.ErrorIs(t, err, ErrMissingPrivateKey)
}

func TestHandleCreateIngestsBadgeAndRelays(t *testing.T) {
	st := newTenantStore(t)
	svc := newTestAnnounceService()
	recorder := &inboxRecorder{}
	srv := newFollowerInbox(t, recorder)
	ctx := context.Background()

	addFollower(t, st, "https://live.example/users/z", srv.URL+"/inbox")

	activity := &apub.Activity{
		ID:    "https://badges.example/activities/1",
		Type:  apub.TypeCreate,
		Actor: "https://badges.example/org",
		ObjectNote: &apub.Note{
			ID:      "https://badges.example/notes/1",
			Type:    apub.TypeNote,
			Content: `<p>Congrats!</p><script>alert(1)</script>`,
			To:      []string{testLocalActor},
			Badge: &apub.BadgeAssertion{
				Name:        "Contributor",
				Description: "Merged a patch",
				IssuedOn:    "2026-05-01",
				Issuer:      &apub.BadgeIssuerRef{ID: "https://badges.example/org", Name: "Badge Org"},
			},
		},
	}
	require.NoError(t, svc.HandleCreate(ctx, activity, st, testLocalActor))

	badges := repository.NewBadgeRepository(st.DB())
	badge, err := badges.GetBadgeByNote(ctx, "https://badges.example/notes/1")
	require.NoError(t, err)
	require.Equal(t, "Contributor", badge.Name)
	require.Equal(t, "2026-05-01", badge.AwardedAt)
	require.Contains(t, badge.Content, "Congrats!")
	require.NotContains(t, badge.Content, "script")

	require.Len(t, recorder.all(), 1)

	// Re-delivery updates the stored badge and never duplicates it.
	require.NoError(t, svc.HandleCreate(ctx, activity, st, testLocalActor))
	list, err := badges.ListBadges(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestHandleCreateIgnoresUnrelatedNote(t *testing.T) {
	st := newTenantStore(t)
	svc := newTestAnnounceService()
	recorder := &inboxRecorder{}
	srv := newFollowerInbox(t, recorder)
	ctx := context.Background()

	addFollower(t, st, "https://live.example/users/z", srv.URL+"/inbox")

	activity := &apub.Activity{
		ID:    "https://remote.example/activities/2",
		Type:  apub.TypeCreate,
		Actor: "https://remote.example/users/bob",
		ObjectNote: &apub.Note{
			ID:      "https://remote.example/notes/2",
			Type:    apub.TypeNote,
			Content: "<p>just a post</p>",
		},
	}
	require.NoError(t, svc.HandleCreate(ctx, activity, st, testLocalActor))

	require.Empty(t, recorder.all())
	list, err := repository.NewBadgeRepository(st.DB()).ListBadges(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestHandleCreateAutoBoostFollowsAndRelays(t *testing.T) {
	st := newTenantStore(t)
	svc := newTestAnnounceService()
	ctx := context.Background()

	sourceRecorder := &inboxRecorder{}
	source := newRemoteActorServer(t, sourceRecorder)
	sourceActor := source.URL + "/users/bob"

	followerRecorder := &inboxRecorder{}
	followerInbox := newFollowerInbox(t, followerRecorder)
	addFollower(t, st, "https://live.example/users/z", followerInbox.URL+"/inbox")

	require.NoError(t, repository.NewLinkRepository(st.DB()).Create(ctx, &models.Link{
		Title:     "Bob's blog",
		URL:       sourceActor,
		AutoBoost: true,
	}))

	activity := &apub.Activity{
		ID:    sourceActor + "/activities/5",
		Type:  apub.TypeCreate,
		Actor: sourceActor,
		ObjectNote: &apub.Note{
			ID:      sourceActor + "/notes/5",
			Type:    apub.TypeNote,
			Content: "<p>new post</p>",
		},
	}
	require.NoError(t, svc.HandleCreate(ctx, activity, st, testLocalActor))

	// One Follow toward the boosted source.
	sourceRequests := sourceRecorder.all()
	require.Len(t, sourceRequests, 1)
	var follow struct {
		Type   string `json:"type"`
		Object string `json:"object"`
	}
	require.NoError(t, json.Unmarshal(sourceRequests[0].Body, &follow))
	require.Equal(t, apub.TypeFollow, follow.Type)
	require.Equal(t, sourceActor, follow.Object)

	marker, err := repository.NewSettingRepository(st.DB()).Get(ctx, models.FollowingMarkerPrefix+sourceActor)
	require.NoError(t, err)
	require.Equal(t, "true", marker)

	slugs, err := repository.NewFollowingIndexRepository(st.DomainStore().DB()).FollowersOfActor(ctx, sourceActor)
	require.NoError(t, err)
	require.Equal(t, []string{"alice"}, slugs)

	// One Announce toward the stored follower.
	require.Len(t, followerRecorder.all(), 1)

	// A second post from the same source must not trigger another Follow.
	require.NoError(t, svc.HandleCreate(ctx, activity, st, testLocalActor))
	require.Len(t, sourceRecorder.all(), 1)
	require.Len(t, followerRecorder.all(), 2)
}

func TestMentionsLocal(t *testing.T) {
	st := newTenantStore(t)
	svc := newTestAnnounceService()
	ctx := context.Background()

	require.True(t, svc.mentionsLocal(ctx, &apub.Note{To: []string{testLocalActor + "/"}}, st, testLocalActor))
	require.True(t, svc.mentionsLocal(ctx, &apub.Note{Cc: []string{testLocalActor}}, st, testLocalActor))
	require.True(t, svc.mentionsLocal(ctx, &apub.Note{
		Tag: []apub.Tag{{Type: apub.TypeMention, Href: testLocalActor}},
	}, st, testLocalActor))
	require.True(t, svc.mentionsLocal(ctx, &apub.Note{
		Content: "<p>awarded to " + testLocalActor + "</p>",
	}, st, testLocalActor))
	require.False(t, svc.mentionsLocal(ctx, &apub.Note{
		Content: "<p>someone else entirely</p>",
	}, st, testLocalActor))

	require.NoError(t, repository.NewLinkRepository(st.DB()).Create(ctx, &models.Link{
		Title: "Blog",
		URL:   "https://blog.example/alice/",
	}))
	require.True(t, svc.mentionsLocal(ctx, &apub.Note{
		Content: `<p>see <a href="https://blog.example/alice">this</a></p>`,
	}, st, testLocalActor))
}

func TestSameURL(t *testing.T) {
	require.True(t, sameURL("https://a.example/x", "https://a.example/x/"))
	require.False(t, sameURL("https://a.example/x", "https://a.example/y"))
	require.False(t, sameURL("", "https://a.example/x"))
}
