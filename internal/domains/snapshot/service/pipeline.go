package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"barcatalog-backend/internal/domains/catalog"
	"barcatalog-backend/internal/domains/snapshot"
	"barcatalog-backend/internal/domains/snapshot/builder"

	"github.com/rs/zerolog/log"
)

// CatalogFetcher pulls the full external catalog
type CatalogFetcher interface {
	FetchCatalog(ctx context.Context) ([]catalog.Drink, error)
}

type pipeline struct {
	fetcher       CatalogFetcher
	catalogRepo   catalog.Repository
	builder       builder.Builder
	publisher     snapshot.Publisher
	metadataRepo  snapshot.Repository
	schemaVersion string
	now           func() time.Time
}

// NewPipeline wires the run: fetch → sync → build → publish → record
func NewPipeline(
	fetcher CatalogFetcher,
	catalogRepo catalog.Repository,
	artifactBuilder builder.Builder,
	publisher snapshot.Publisher,
	metadataRepo snapshot.Repository,
	schemaVersion string,
) snapshot.Pipeline {
	return &pipeline{
		fetcher:       fetcher,
		catalogRepo:   catalogRepo,
		builder:       artifactBuilder,
		publisher:     publisher,
		metadataRepo:  metadataRepo,
		schemaVersion: schemaVersion,
		now:           time.Now,
	}
}

// Run executes one full pipeline pass. Every stage fails loud and
// aborts the rest; there is no partial-success reporting. If the
// process dies mid-run the relational store keeps its prior
// committed state and no metadata row is recorded, so the read path
// is unaffected.
func (p *pipeline) Run(ctx context.Context) (*snapshot.Metadata, error) {
	release, ok, err := p.catalogRepo.AcquireRunLock(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, snapshot.ErrRunInProgress
	}
	defer release()

	started := p.now()
	log.Info().Msg("Starting snapshot pipeline run")

	drinks, err := p.fetcher.FetchCatalog(ctx)
	if err != nil {
		return nil, err
	}

	syncCounts, err := p.catalogRepo.Sync(ctx, drinks)
	if err != nil {
		return nil, err
	}
	log.Info().
		Int("drinks", syncCounts.Drinks).
		Int("ingredients", syncCounts.Ingredients).
		Int("categories", syncCounts.Categories).
		Int("glasses", syncCounts.Glasses).
		Int("tags", syncCounts.Tags).
		Msg("Catalog store replaced")

	artifact, err := p.builder.Build(ctx)
	if err != nil {
		return nil, err
	}

	version := snapshot.NewVersion(p.now())
	blobPath, sizeBytes, err := p.publisher.Publish(ctx, p.schemaVersion, version, artifact.Data, artifact.SHA256)
	if err != nil {
		return nil, err
	}

	meta := &snapshot.Metadata{
		SchemaVersion:   p.schemaVersion,
		SnapshotVersion: version,
		BlobPath:        blobPath,
		SizeBytes:       sizeBytes,
		SHA256:          artifact.SHA256,
		Counts:          artifact.Counts,
		CreatedAt:       p.now().UTC(),
	}
	if err := p.metadataRepo.Record(ctx, meta); err != nil {
		// the artifact exists but is not discoverable; a human should
		// verify and re-run rather than lose a good artifact
		log.Error().
			Err(err).
			Str("blob_path", blobPath).
			Str("sha256", artifact.SHA256).
			Msg("Metadata record failed AFTER successful publish; artifact is orphaned")
		return nil, fmt.Errorf("%w: %w", snapshot.ErrMetadataRecord, err)
	}

	log.Info().
		Str("snapshot_version", version).
		Str("blob_path", blobPath).
		Int64("size_bytes", sizeBytes).
		Dur("elapsed", p.now().Sub(started)).
		Msg("Snapshot pipeline run completed")

	return meta, nil
}

// IsRunInProgress reports whether err is the benign overlapping-run case
func IsRunInProgress(err error) bool {
	return errors.Is(err, snapshot.ErrRunInProgress)
}
