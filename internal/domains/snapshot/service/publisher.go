package service

import (
	"context"
	"fmt"

	"barcatalog-backend/internal/domains/snapshot"
	"barcatalog-backend/internal/shared"

	"github.com/rs/zerolog/log"
)

type publisher struct {
	storage snapshot.ObjectStorage
	format  shared.SnapshotFormat
}

// NewPublisher creates the artifact publisher
func NewPublisher(storage snapshot.ObjectStorage, format shared.SnapshotFormat) snapshot.Publisher {
	return &publisher{
		storage: storage,
		format:  format,
	}
}

// BlobPath is the deterministic storage path for one snapshot.
// Re-publishing the same versions overwrites in place.
func BlobPath(format shared.SnapshotFormat, schemaVersion, snapshotVersion string) string {
	return fmt.Sprintf("snapshots/%s/%s/%s.%s", format, schemaVersion, snapshotVersion, format.Ext())
}

// Publish uploads the artifact, then its hex checksum as a sibling
// text object. Two independent writes in that order: a reader that
// finds the artifact but not a matching checksum has seen a torn
// write and must discard it. Consumers that only discover artifacts
// through the metadata log never see either half-state, because the
// log row is appended after both writes succeed.
func (p *publisher) Publish(ctx context.Context, schemaVersion, snapshotVersion string, data []byte, sha256 string) (string, int64, error) {
	path := BlobPath(p.format, schemaVersion, snapshotVersion)

	if err := p.storage.Upload(ctx, path, data, "application/gzip"); err != nil {
		return "", 0, fmt.Errorf("%w: artifact upload: %w", snapshot.ErrPublish, err)
	}
	if err := p.storage.Upload(ctx, path+".sha256", []byte(sha256), "text/plain"); err != nil {
		return "", 0, fmt.Errorf("%w: checksum upload: %w", snapshot.ErrPublish, err)
	}

	log.Info().
		Str("blob_path", path).
		Int("size_bytes", len(data)).
		Str("sha256", sha256).
		Msg("Published snapshot artifact")

	return path, int64(len(data)), nil
}
