package snapshot

import (
	"context"
	"time"
)

// ObjectStorage is the durable blob store the publisher writes to
// and the signer issues links against. Satisfied by the MinIO
// infrastructure wrapper; faked in tests.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	PresignedGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Publisher uploads a built artifact and its checksum to durable
// storage under a version-addressed path.
type Publisher interface {
	Publish(ctx context.Context, schemaVersion, snapshotVersion string, data []byte, sha256 string) (blobPath string, sizeBytes int64, err error)
}

// Pipeline is the full ingestion-to-publication run. A run is
// binary: it either fully succeeds, with a new metadata row, or it
// returns an error and records nothing.
type Pipeline interface {
	Run(ctx context.Context) (*Metadata, error)
}

// Service is the stateless read path: latest snapshot lookup plus
// signed download link. Safe for any number of concurrent callers.
type Service interface {
	Latest(ctx context.Context) (*LatestSnapshotDTO, error)
}
