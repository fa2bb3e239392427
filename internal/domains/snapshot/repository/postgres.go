package repository

import (
	"context"
	"errors"
	"fmt"

	"barcatalog-backend/internal/domains/snapshot"
	"barcatalog-backend/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates the snapshot metadata repository
func NewPostgresRepository(pool *pgxpool.Pool) snapshot.Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) Record(ctx context.Context, meta *snapshot.Metadata) error {
	const query = `
		INSERT INTO snapshot_metadata (
			schema_version, snapshot_version, blob_path, size_bytes, sha256,
			drink_count, ingredient_count, category_count, glass_count, tag_count,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	err := r.pool.QueryRow(ctx, query,
		meta.SchemaVersion,
		meta.SnapshotVersion,
		meta.BlobPath,
		meta.SizeBytes,
		meta.SHA256,
		meta.Counts.Drinks,
		meta.Counts.Ingredients,
		meta.Counts.Categories,
		meta.Counts.Glasses,
		meta.Counts.Tags,
		meta.CreatedAt,
	).Scan(&meta.ID)
	if err != nil {
		logger.Error("Record: failed to append snapshot metadata", err)
		return fmt.Errorf("failed to record snapshot metadata: %w", err)
	}

	return nil
}

func (r *postgresRepository) Latest(ctx context.Context) (*snapshot.Metadata, error) {
	const query = `
		SELECT id, schema_version, snapshot_version, blob_path, size_bytes, sha256,
			drink_count, ingredient_count, category_count, glass_count, tag_count,
			created_at
		FROM snapshot_metadata
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	meta := &snapshot.Metadata{}
	err := r.pool.QueryRow(ctx, query).Scan(
		&meta.ID,
		&meta.SchemaVersion,
		&meta.SnapshotVersion,
		&meta.BlobPath,
		&meta.SizeBytes,
		&meta.SHA256,
		&meta.Counts.Drinks,
		&meta.Counts.Ingredients,
		&meta.Counts.Categories,
		&meta.Counts.Glasses,
		&meta.Counts.Tags,
		&meta.CreatedAt,
	)
	if err != nil {
		// an empty log is a legitimate steady state, not a fault
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}

	return meta, nil
}
