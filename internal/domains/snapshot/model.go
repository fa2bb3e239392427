package snapshot

import (
	"time"

	"barcatalog-backend/internal/domains/catalog"
)

// Metadata is one append-only row of the snapshot log. Created
// exactly once per successful publish, never updated or deleted.
type Metadata struct {
	ID              int            `json:"-"`
	SchemaVersion   string         `json:"schemaVersion"`
	SnapshotVersion string         `json:"snapshotVersion"`
	BlobPath        string         `json:"blobPath"`
	SizeBytes       int64          `json:"sizeBytes"`
	SHA256          string         `json:"sha256"`
	Counts          catalog.Counts `json:"counts"`
	CreatedAt       time.Time      `json:"createdAtUtc"`
}

// Artifact is a built, compressed, content-hashed snapshot blob.
// SHA256 covers the compressed bytes, i.e. what clients download.
type Artifact struct {
	Data      []byte
	SHA256    string
	SizeBytes int64
	Counts    catalog.Counts
}

// LatestSnapshotDTO is the read endpoint's entire success response
type LatestSnapshotDTO struct {
	SchemaVersion   string         `json:"schemaVersion"`
	SnapshotVersion string         `json:"snapshotVersion"`
	SizeBytes       int64          `json:"sizeBytes"`
	SHA256          string         `json:"sha256"`
	SignedURL       string         `json:"signedUrl"`
	CreatedAtUTC    time.Time      `json:"createdAtUtc"`
	Counts          catalog.Counts `json:"counts"`
}

// NewVersion derives a monotonic snapshot version from a timestamp.
// Collisions only occur on deliberate re-runs within one second,
// which overwrite in place.
func NewVersion(t time.Time) string {
	return t.UTC().Format("20060102.150405")
}
