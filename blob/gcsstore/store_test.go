package gcsstore_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sagarc03/relapse"
	"github.com/sagarc03/relapse/blob/gcsstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func testPrivateKey(t *testing.T) []byte {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
}

func newTestStore(t *testing.T, bucket string, opts ...option.ClientOption) *gcsstore.Store {
	t.Helper()
	opts = append([]option.ClientOption{option.WithoutAuthentication()}, opts...)
	store, err := gcsstore.New(context.Background(), gcsstore.Config{
		Bucket:         bucket,
		GoogleAccessID: "relapse@test-project.iam.gserviceaccount.com",
		PrivateKey:     testPrivateKey(t),
	}, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_SignURL(t *testing.T) {
	store := newTestStore(t, "relapse-photos")

	signed, err := store.SignURL(context.Background(), "photos/u1/abc.jpg", 15*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)

	assert.Contains(t, u.Path, "photos/u1/abc.jpg")

	q := u.Query()
	assert.Equal(t, "GOOG4-RSA-SHA256", q.Get("X-Goog-Algorithm"))
	assert.Equal(t, "900", q.Get("X-Goog-Expires"))
	assert.Contains(t, q.Get("X-Goog-Credential"), "relapse@test-project.iam.gserviceaccount.com")
	assert.NotEmpty(t, q.Get("X-Goog-Signature"))
}

func TestStore_NotConfigured(t *testing.T) {
	store := newTestStore(t, "")
	ctx := context.Background()

	err := store.Upload(ctx, "photos/u1/a.jpg", bytes.NewReader([]byte("x")), "image/jpeg", relapse.AccessPrivate)
	assert.ErrorIs(t, err, relapse.ErrNotConfigured)

	_, err = store.SignURL(ctx, "photos/u1/a.jpg", time.Hour)
	assert.ErrorIs(t, err, relapse.ErrNotConfigured)
}

var errReadFailed = errors.New("read failed")

type failingReader struct {
	sent bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.sent {
		r.sent = true
		return copy(p, "partial jpeg"), nil
	}
	return 0, errReadFailed
}

func TestStore_Upload_ReadErrorAbandonsObject(t *testing.T) {
	var completed atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			return
		}
		completed.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"bucket":"relapse-photos","name":"photos/u1/abc.jpg"}`))
	}))
	defer server.Close()

	store := newTestStore(t, "relapse-photos", option.WithEndpoint(server.URL+"/storage/v1/"))

	err := store.Upload(context.Background(), "photos/u1/abc.jpg", &failingReader{}, "image/jpeg", relapse.AccessPrivate)
	require.Error(t, err)
	assert.ErrorIs(t, err, errReadFailed)
	assert.Zero(t, completed.Load(), "a failed read must not commit the object")
}
