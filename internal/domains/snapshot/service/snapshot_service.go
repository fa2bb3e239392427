package service

import (
	"context"
	"fmt"
	"time"

	"barcatalog-backend/internal/domains/snapshot"
)

type snapshotService struct {
	repo      snapshot.Repository
	storage   snapshot.ObjectStorage
	signedTTL time.Duration
}

// NewService creates the read-path service
func NewService(repo snapshot.Repository, storage snapshot.ObjectStorage, signedTTL time.Duration) snapshot.Service {
	return &snapshotService{
		repo:      repo,
		storage:   storage,
		signedTTL: signedTTL,
	}
}

// Latest returns the most recent published snapshot together with a
// fresh time-limited download link. ErrNoSnapshot on an empty log.
func (s *snapshotService) Latest(ctx context.Context) (*snapshot.LatestSnapshotDTO, error) {
	meta, err := s.repo.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, snapshot.ErrNoSnapshot
	}

	signedURL, err := s.storage.PresignedGet(ctx, meta.BlobPath, s.signedTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue signed url: %w", err)
	}

	return &snapshot.LatestSnapshotDTO{
		SchemaVersion:   meta.SchemaVersion,
		SnapshotVersion: meta.SnapshotVersion,
		SizeBytes:       meta.SizeBytes,
		SHA256:          meta.SHA256,
		SignedURL:       signedURL,
		CreatedAtUTC:    meta.CreatedAt,
		Counts:          meta.Counts,
	}, nil
}
