package stowrystore_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/sagarc03/relapse"
	"github.com/sagarc03/relapse/blob/stowrystore"
	"github.com/sagarc03/stowry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccessKey = "AKIATEST"
	testSecretKey = "secret"
)

// signedAt returns the timestamp embedded in a presigned query.
func signedAt(t *testing.T, q url.Values) int64 {
	t.Helper()
	ts, err := strconv.ParseInt(q.Get(stowry.StowryDateParam), 10, 64)
	require.NoError(t, err)
	return ts
}

func TestStore_SignURL(t *testing.T) {
	store := stowrystore.New(stowrystore.Config{
		Endpoint:  "http://localhost:5708/",
		AccessKey: testAccessKey,
		SecretKey: testSecretKey,
	})

	before := time.Now().Unix()
	signed, err := store.SignURL(context.Background(), "photos/u1/abc.jpg", time.Hour)
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "localhost:5708", u.Host)
	assert.Equal(t, "/photos/u1/abc.jpg", u.Path)

	q := u.Query()
	assert.Equal(t, testAccessKey, q.Get(stowry.StowryCredentialParam))
	assert.Equal(t, "3600", q.Get(stowry.StowryExpiresParam))

	ts := signedAt(t, q)
	assert.GreaterOrEqual(t, ts, before)
	assert.LessOrEqual(t, ts, time.Now().Unix())

	want := stowry.Sign(testSecretKey, http.MethodGet, "/photos/u1/abc.jpg", ts, 3600)
	assert.Equal(t, want, q.Get(stowry.StowrySignatureParam))
}

func TestStore_SignURL_Expiry(t *testing.T) {
	store := stowrystore.New(stowrystore.Config{
		Endpoint:  "http://localhost:5708",
		AccessKey: testAccessKey,
		SecretKey: testSecretKey,
	})

	tests := []struct {
		name    string
		expires time.Duration
		want    int
	}{
		{name: "within limit", expires: 15 * time.Minute, want: 900},
		{name: "capped at seven days", expires: 30 * 24 * time.Hour, want: stowry.MaxExpires},
		{name: "zero uses default", expires: 0, want: stowry.DefaultExpires},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signed, err := store.SignURL(context.Background(), "photos/u1/abc.jpg", tt.expires)
			require.NoError(t, err)

			u, err := url.Parse(signed)
			require.NoError(t, err)
			q := u.Query()
			assert.Equal(t, strconv.Itoa(tt.want), q.Get(stowry.StowryExpiresParam))

			want := stowry.Sign(testSecretKey, http.MethodGet, "/photos/u1/abc.jpg", signedAt(t, q), int64(tt.want))
			assert.Equal(t, want, q.Get(stowry.StowrySignatureParam))
		})
	}
}

func TestStore_Upload(t *testing.T) {
	var (
		gotMethod string
		gotPath   string
		gotType   string
		gotBody   []byte
		gotQuery  url.Values
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		gotQuery = r.URL.Query()
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	store := stowrystore.New(stowrystore.Config{
		Endpoint:  server.URL,
		AccessKey: testAccessKey,
		SecretKey: testSecretKey,
	}, stowrystore.WithHTTPClient(server.Client()))

	err := store.Upload(context.Background(), "photos/u1/a.jpg", bytes.NewReader([]byte("jpeg")), "image/jpeg", relapse.AccessPrivate)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/photos/u1/a.jpg", gotPath)
	assert.Equal(t, "image/jpeg", gotType)
	assert.Equal(t, "jpeg", string(gotBody))
	assert.Equal(t, testAccessKey, gotQuery.Get(stowry.StowryCredentialParam))
	assert.Equal(t, "900", gotQuery.Get(stowry.StowryExpiresParam))

	want := stowry.Sign(testSecretKey, http.MethodPut, "/photos/u1/a.jpg", signedAt(t, gotQuery), 900)
	assert.Equal(t, want, gotQuery.Get(stowry.StowrySignatureParam))
}

func TestStore_Upload_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer server.Close()

	store := stowrystore.New(stowrystore.Config{Endpoint: server.URL}, stowrystore.WithHTTPClient(server.Client()))

	err := store.Upload(context.Background(), "photos/u1/a.jpg", bytes.NewReader([]byte("x")), "image/jpeg", relapse.AccessPrivate)
	require.Error(t, err)
	assert.ErrorIs(t, err, &stowrystore.APIError{StatusCode: http.StatusForbidden})
	assert.Contains(t, err.Error(), "denied")
}

func TestStore_NotConfigured(t *testing.T) {
	store := stowrystore.New(stowrystore.Config{})
	ctx := context.Background()

	err := store.Upload(ctx, "photos/u1/a.jpg", bytes.NewReader([]byte("x")), "image/jpeg", relapse.AccessPrivate)
	assert.ErrorIs(t, err, relapse.ErrNotConfigured)

	_, err = store.SignURL(ctx, "photos/u1/a.jpg", time.Hour)
	assert.ErrorIs(t, err, relapse.ErrNotConfigured)
}
