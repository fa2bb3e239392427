package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"barcatalog-backend/internal/domains/catalog"
	"barcatalog-backend/internal/domains/snapshot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metaAt(version string, createdAt time.Time) *snapshot.Metadata {
	return &snapshot.Metadata{
		SchemaVersion:   "v1",
		SnapshotVersion: version,
		BlobPath:        "snapshots/json/v1/" + version + ".json.gz",
		SizeBytes:       1024,
		SHA256:          "cafe",
		Counts:          catalog.Counts{Drinks: 7},
		CreatedAt:       createdAt,
	}
}

func TestLatestReturnsMostRecentRegardlessOfInsertionOrder(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeMetadataRepo{}
	ctx := context.Background()

	// inserted out of creation order
	require.NoError(t, repo.Record(ctx, metaAt("20240603.000000", base.Add(48*time.Hour))))
	require.NoError(t, repo.Record(ctx, metaAt("20240601.000000", base)))
	require.NoError(t, repo.Record(ctx, metaAt("20240602.000000", base.Add(24*time.Hour))))

	svc := NewService(repo, newFakeStorage(), 15*time.Minute)
	dto, err := svc.Latest(ctx)

	require.NoError(t, err)
	assert.Equal(t, "20240603.000000", dto.SnapshotVersion)
	assert.Equal(t, "https://storage.example/snapshots/json/v1/20240603.000000.json.gz?signed=1", dto.SignedURL)
	assert.Equal(t, int64(1024), dto.SizeBytes)
	assert.Equal(t, "cafe", dto.SHA256)
	assert.Equal(t, 7, dto.Counts.Drinks)
}

func TestLatestOnEmptyLogIsNoSnapshotNotAFault(t *testing.T) {
	svc := NewService(&fakeMetadataRepo{}, newFakeStorage(), 15*time.Minute)

	dto, err := svc.Latest(context.Background())
	assert.Nil(t, dto)
	assert.True(t, errors.Is(err, snapshot.ErrNoSnapshot))
}

func TestLatestPropagatesSigningFailure(t *testing.T) {
	repo := &fakeMetadataRepo{}
	require.NoError(t, repo.Record(context.Background(), metaAt("20240601.000000", time.Now())))

	svc := NewService(repo, &failAllStorage{}, 15*time.Minute)
	_, err := svc.Latest(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, snapshot.ErrNoSnapshot))
}
