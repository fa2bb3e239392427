package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"barcatalog-backend/internal/domains/catalog"
	"barcatalog-backend/internal/domains/snapshot"
	"barcatalog-backend/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	drinks []catalog.Drink
	err    error
	calls  int
}

func (f *fakeFetcher) FetchCatalog(ctx context.Context) ([]catalog.Drink, error) {
	f.calls++
	return f.drinks, f.err
}

type fakeCatalogRepo struct {
	syncCalls  int
	syncInput  []catalog.Drink
	syncCounts catalog.Counts
	syncErr    error
	lockHeld   bool
}

func (f *fakeCatalogRepo) Sync(ctx context.Context, drinks []catalog.Drink) (catalog.Counts, error) {
	f.syncCalls++
	f.syncInput = drinks
	if f.syncErr != nil {
		return catalog.Counts{}, f.syncErr
	}
	return f.syncCounts, nil
}
func (f *fakeCatalogRepo) AllDrinks(ctx context.Context) ([]catalog.DrinkRow, error)   { return nil, nil }
func (f *fakeCatalogRepo) AllIngredients(ctx context.Context) ([]catalog.IngredientRow, error) {
	return nil, nil
}
func (f *fakeCatalogRepo) AllMeasures(ctx context.Context) ([]catalog.MeasureRow, error) {
	return nil, nil
}
func (f *fakeCatalogRepo) AllTags(ctx context.Context) ([]catalog.TagRow, error) { return nil, nil }
func (f *fakeCatalogRepo) AcquireRunLock(ctx context.Context) (func(), bool, error) {
	if f.lockHeld {
		return nil, false, nil
	}
	return func() {}, true, nil
}

type fakeBuilder struct {
	artifact *snapshot.Artifact
	err      error
	calls    int
}

func (f *fakeBuilder) Build(ctx context.Context) (*snapshot.Artifact, error) {
	f.calls++
	return f.artifact, f.err
}

type fakeMetadataRepo struct {
	rows      []*snapshot.Metadata
	recordErr error
}

func (f *fakeMetadataRepo) Record(ctx context.Context, meta *snapshot.Metadata) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.rows = append(f.rows, meta)
	return nil
}

func (f *fakeMetadataRepo) Latest(ctx context.Context) (*snapshot.Metadata, error) {
	var latest *snapshot.Metadata
	for _, row := range f.rows {
		if latest == nil || row.CreatedAt.After(latest.CreatedAt) {
			latest = row
		}
	}
	return latest, nil
}

func testArtifact() *snapshot.Artifact {
	return &snapshot.Artifact{
		Data:      []byte("compressed"),
		SHA256:    "deadbeef",
		SizeBytes: 10,
		Counts:    catalog.Counts{Drinks: 2, Ingredients: 5, Categories: 1, Glasses: 2, Tags: 1},
	}
}

type pipelineFixture struct {
	fetcher  *fakeFetcher
	catalog  *fakeCatalogRepo
	builder  *fakeBuilder
	storage  *fakeStorage
	metadata *fakeMetadataRepo
	pipeline snapshot.Pipeline
}

func newPipelineFixture() *pipelineFixture {
	f := &pipelineFixture{
		fetcher:  &fakeFetcher{drinks: []catalog.Drink{{ExternalID: "1", Name: "Aviation"}}},
		catalog:  &fakeCatalogRepo{syncCounts: catalog.Counts{Drinks: 1}},
		builder:  &fakeBuilder{artifact: testArtifact()},
		storage:  newFakeStorage(),
		metadata: &fakeMetadataRepo{},
	}
	f.pipeline = NewPipeline(
		f.fetcher,
		f.catalog,
		f.builder,
		NewPublisher(f.storage, shared.FormatJSON),
		f.metadata,
		"v1",
	)
	return f
}

func TestRunPublishesAndRecordsMetadata(t *testing.T) {
	f := newPipelineFixture()

	meta, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, meta)

	assert.Equal(t, "v1", meta.SchemaVersion)
	assert.Regexp(t, regexp.MustCompile(`^\d{8}\.\d{6}$`), meta.SnapshotVersion)
	assert.Equal(t, "deadbeef", meta.SHA256)
	assert.Equal(t, testArtifact().Counts, meta.Counts)
	assert.False(t, meta.CreatedAt.IsZero())

	// the artifact and checksum are reachable at the recorded path
	assert.Contains(t, f.storage.objects, meta.BlobPath)
	assert.Contains(t, f.storage.objects, meta.BlobPath+".sha256")

	require.Len(t, f.metadata.rows, 1)
	assert.Equal(t, 1, f.catalog.syncCalls)
	assert.Len(t, f.catalog.syncInput, 1)
}

func TestRunAbortsOnFetchFailure(t *testing.T) {
	f := newPipelineFixture()
	f.fetcher.err = catalog.ErrFetchExhausted

	_, err := f.pipeline.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrFetchExhausted))
	assert.Zero(t, f.catalog.syncCalls)
	assert.Zero(t, f.builder.calls)
	assert.Empty(t, f.metadata.rows)
}

func TestRunAbortsOnSyncFailure(t *testing.T) {
	f := newPipelineFixture()
	f.catalog.syncErr = catalog.ErrSyncAborted

	_, err := f.pipeline.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrSyncAborted))
	assert.Zero(t, f.builder.calls)
	assert.Empty(t, f.metadata.rows)
}

func TestRunRecordsNothingWhenPublishFails(t *testing.T) {
	f := newPipelineFixture()
	pipe := NewPipeline(f.fetcher, f.catalog, f.builder, NewPublisher(&failAllStorage{}, shared.FormatJSON), f.metadata, "v1")

	_, err := pipe.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, snapshot.ErrPublish))
	assert.Empty(t, f.metadata.rows)
}

type failAllStorage struct{}

func (s *failAllStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	return errors.New("storage down")
}

func (s *failAllStorage) PresignedGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "", errors.New("storage down")
}

func TestRunSurfacesMetadataRecordFailureDistinctly(t *testing.T) {
	f := newPipelineFixture()
	f.metadata.recordErr = errors.New("insert refused")

	_, err := f.pipeline.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, snapshot.ErrMetadataRecord))

	// the artifact was published; only discovery failed
	assert.Len(t, f.storage.objects, 2)
}

func TestRunRefusesOverlappingRuns(t *testing.T) {
	f := newPipelineFixture()
	f.catalog.lockHeld = true

	_, err := f.pipeline.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, snapshot.ErrRunInProgress))
	assert.Zero(t, f.fetcher.calls)
}
