package storage

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/marketplace/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 serves the path-style object calls the store makes
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	switch r.Method {
	case http.MethodHead:
		w.WriteHeader(http.StatusOK)
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[path] = body
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := f.objects[path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`))
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write(body)
	case http.MethodDelete:
		delete(f.objects, path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestS3Store(t *testing.T) (*S3UploadStore, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: make(map[string][]byte)}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client := s3.New(s3.Options{
		Region:                     "us-east-1",
		BaseEndpoint:               aws.String(srv.URL),
		UsePathStyle:               true,
		Credentials:                credentials.NewStaticCredentialsProvider("test-key", "test-secret", ""),
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
		ResponseChecksumValidation: aws.ResponseChecksumValidationWhenRequired,
		HTTPClient:                 srv.Client(),
	})
	return NewS3UploadStoreWithClient(client, "imports", "/catalog/"), fake
}

func TestNewS3UploadStore_Validation(t *testing.T) {
	ctx := t.Context()

	_, err := NewS3UploadStore(ctx, nil)
	assert.ErrorContains(t, err, "configuration is required")

	_, err = NewS3UploadStore(ctx, &config.StorageConfig{})
	assert.ErrorContains(t, err, "bucket is required")

	_, err = NewS3UploadStore(ctx, &config.StorageConfig{Bucket: "imports", AccessKeyID: "only-id"})
	assert.ErrorContains(t, err, "must be set together")

	store, err := NewS3UploadStore(ctx, &config.StorageConfig{
		Bucket:          "imports",
		Endpoint:        "minio.local:9000",
		AccessKeyID:     "id",
		SecretAccessKey: "secret",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "imports", store.Bucket())
}

func TestS3UploadStore_RoundTrip(t *testing.T) {
	store, fake := newTestS3Store(t)
	ctx := t.Context()

	require.NoError(t, store.EnsureBucket(ctx))

	key, err := store.Save(ctx, "feed.csv", strings.NewReader("Handle,Title\n"))
	require.NoError(t, err)
	assert.Contains(t, fake.objects, "imports/catalog/"+key)

	rc, err := store.Open(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "Handle,Title\n", string(data))

	require.NoError(t, store.Delete(ctx, key))
	assert.Empty(t, fake.objects)

	_, err = store.Open(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3UploadStore_RejectsForeignKeys(t *testing.T) {
	store, _ := newTestS3Store(t)
	_, err := store.Open(t.Context(), "../other/feed.csv")
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.ErrorIs(t, store.Delete(t.Context(), ""), ErrInvalidKey)
}
