package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"barcatalog-backend/internal/domains/snapshot"
	"barcatalog-backend/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct {
	objects      map[string][]byte
	contentTypes map[string]string
	uploadOrder  []string
	failOn       string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		objects:      map[string][]byte{},
		contentTypes: map[string]string{},
	}
}

func (s *fakeStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if s.failOn != "" && key == s.failOn {
		return errors.New("upload refused")
	}
	s.objects[key] = append([]byte(nil), data...)
	s.contentTypes[key] = contentType
	s.uploadOrder = append(s.uploadOrder, key)
	return nil
}

func (s *fakeStorage) PresignedGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://storage.example/" + key + "?signed=1", nil
}

func TestPublishWritesArtifactThenChecksum(t *testing.T) {
	storage := newFakeStorage()
	publisher := NewPublisher(storage, shared.FormatJSON)

	path, size, err := publisher.Publish(context.Background(), "v1", "20240101.120000", []byte("artifact"), "abc123")
	require.NoError(t, err)

	assert.Equal(t, "snapshots/json/v1/20240101.120000.json.gz", path)
	assert.Equal(t, int64(8), size)

	require.Equal(t, []string{path, path + ".sha256"}, storage.uploadOrder)
	assert.Equal(t, []byte("artifact"), storage.objects[path])
	assert.Equal(t, []byte("abc123"), storage.objects[path+".sha256"])
	assert.Equal(t, "application/gzip", storage.contentTypes[path])
	assert.Equal(t, "text/plain", storage.contentTypes[path+".sha256"])
}

func TestPublishIsIdempotent(t *testing.T) {
	storage := newFakeStorage()
	publisher := NewPublisher(storage, shared.FormatJSON)

	data := []byte("same bytes")
	path1, _, err := publisher.Publish(context.Background(), "v1", "20240101.120000", data, "h")
	require.NoError(t, err)
	path2, _, err := publisher.Publish(context.Background(), "v1", "20240101.120000", data, "h")
	require.NoError(t, err)

	assert.Equal(t, path1, path2)
	// exactly one reachable object at the deterministic path,
	// byte-identical to the input
	assert.Len(t, storage.objects, 2) // artifact + checksum
	assert.Equal(t, data, storage.objects[path1])
}

func TestPublishFailsWhenArtifactUploadFails(t *testing.T) {
	storage := newFakeStorage()
	storage.failOn = BlobPath(shared.FormatJSON, "v1", "20240101.120000")
	publisher := NewPublisher(storage, shared.FormatJSON)

	_, _, err := publisher.Publish(context.Background(), "v1", "20240101.120000", []byte("x"), "h")
	require.Error(t, err)
	assert.True(t, errors.Is(err, snapshot.ErrPublish))
	assert.Empty(t, storage.objects)
}

func TestPublishFailsWhenChecksumUploadFails(t *testing.T) {
	path := BlobPath(shared.FormatJSON, "v1", "20240101.120000")
	storage := newFakeStorage()
	storage.failOn = path + ".sha256"
	publisher := NewPublisher(storage, shared.FormatJSON)

	_, _, err := publisher.Publish(context.Background(), "v1", "20240101.120000", []byte("x"), "h")
	require.Error(t, err)
	assert.True(t, errors.Is(err, snapshot.ErrPublish))
	// partial upload left behind is acceptable: no metadata row will
	// point at it
	assert.Contains(t, storage.objects, path)
}

func TestBlobPathByFormat(t *testing.T) {
	assert.Equal(t, "snapshots/json/v2/20240601.000000.json.gz", BlobPath(shared.FormatJSON, "v2", "20240601.000000"))
	assert.Equal(t, "snapshots/sqlite/v2/20240601.000000.db.gz", BlobPath(shared.FormatSQLite, "v2", "20240601.000000"))
}
