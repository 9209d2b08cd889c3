package httpsig

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tryvocalcat/fediprofile/pkg/keyring"
)

func testPair(t *testing.T) keyring.KeyPair {
	t.Helper()
	pair, err := keyring.Generate()
	require.NoError(t, err)
	return pair
}

func TestSignVerifyRoundTripPost(t *testing.T) {
	pair := testPair(t)
	body := []byte(`{"type":"Follow"}`)
	url := "https://remote.example/users/bob/inbox"

	headers, err := Sign("POST", url, body, pair.PrivatePEM, "https://local.example/alice#main-key", time.Now())
	require.NoError(t, err)
	require.Contains(t, headers["Signature"], `algorithm="rsa-sha256"`)
	require.Contains(t, headers["Signature"], "digest")
	require.NotEmpty(t, headers["Digest"])

	require.NoError(t, Verify("POST", url, headers, body, pair.PublicPEM))
}

func TestSignVerifyRoundTripGet(t *testing.T) {
	pair := testPair(t)
	url := "https://remote.example/users/bob?page=1"

	headers, err := Sign("GET", url, nil, pair.PrivatePEM, "key", time.Now())
	require.NoError(t, err)
	require.Empty(t, headers["Digest"])

	require.NoError(t, Verify("GET", url, headers, nil, pair.PublicPEM))
}

func TestVerifyRejectsTampering(t *testing.T) {
	pair := testPair(t)
	body := []byte(`{"type":"Follow"}`)
	url := "https://remote.example/inbox"

	headers, err := Sign("POST", url, body, pair.PrivatePEM, "key", time.Now())
	require.NoError(t, err)

	tamperedBody := append([]byte{}, body...)
	tamperedBody[0] ^= 0xff
	require.Error(t, Verify("POST", url, headers, tamperedBody, pair.PublicPEM))

	require.Error(t, Verify("POST", "https://remote.example/other", headers, body, pair.PublicPEM))

	tamperedHeaders := map[string]string{}
	for k, v := range headers {
		tamperedHeaders[k] = v
	}
	tamperedHeaders["Date"] = time.Now().Add(time.Hour).UTC().Format(time.RFC1123)
	require.Error(t, Verify("POST", url, tamperedHeaders, body, pair.PublicPEM))
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	pair := testPair(t)
	other := testPair(t)
	url := "https://remote.example/inbox"

	headers, err := Sign("GET", url, nil, pair.PrivatePEM, "key", time.Now())
	require.NoError(t, err)
	require.Error(t, Verify("GET", url, headers, nil, other.PublicPEM))
}

func TestSendSignedDeliversSignedRequest(t *testing.T) {
	pair := testPair(t)

	var gotSignature, gotDigest, gotDate string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("Signature")
		gotDigest = r.Header.Get("Digest")
		gotDate = r.Header.Get("Date")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewClient(zerolog.Nop(), time.Second)
	status, _, err := client.SendSigned(context.Background(), "POST", srv.URL+"/inbox", []byte(`{}`), pair.PrivatePEM, "key")
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, status)
	require.NotEmpty(t, gotSignature)
	require.NotEmpty(t, gotDigest)

	_, err = time.Parse(time.RFC1123, gotDate)
	require.NoError(t, err)
}

func TestSendSignedSurfacesNon2xx(t *testing.T) {
	pair := testPair(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(zerolog.Nop(), time.Second)
	status, _, err := client.SendSigned(context.Background(), "POST", srv.URL+"/inbox", []byte(`{}`), pair.PrivatePEM, "key")
	require.Error(t, err)
	require.Equal(t, http.StatusForbidden, status)
}

func TestFetchJSONDecodesResponse(t *testing.T) {
	pair := testPair(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NotEmpty(t, r.Header.Get("Signature"))
		w.Header().Set("Content-Type", ContentType)
		_, _ = w.Write([]byte(`{"id":"https://remote.example/bob","inbox":"https://remote.example/bob/inbox"}`))
	}))
	defer srv.Close()

	client := NewClient(zerolog.Nop(), time.Second)
	var doc struct {
		ID    string `json:"id"`
		Inbox string `json:"inbox"`
	}
	require.NoError(t, client.FetchJSON(context.Background(), srv.URL+"/bob", pair.PrivatePEM, "key", &doc))
	require.Equal(t, "https://remote.example/bob", doc.ID)
	require.Equal(t, "https://remote.example/bob/inbox", doc.Inbox)
}
