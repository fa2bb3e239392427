package builder

import (
	"context"
	"fmt"
	"time"

	"barcatalog-backend/internal/domains/catalog"
	"barcatalog-backend/internal/domains/snapshot"

	"github.com/goccy/go-json"
)

// Document is the JSON artifact shape: one self-describing file with
// a metadata block and the full denormalized drink list. Readable by
// any JSON parser, independent of this pipeline.
type Document struct {
	Metadata Meta     `json:"metadata"`
	Drinks   []Record `json:"drinks"`
}

type documentBuilder struct {
	repo catalog.Repository
}

func (b *documentBuilder) Build(ctx context.Context) (*snapshot.Artifact, error) {
	records, counts, err := assemble(ctx, b.repo)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", snapshot.ErrBuild, err)
	}

	doc := Document{
		Metadata: Meta{
			GeneratedAt: time.Now().UTC(),
			Counts:      counts,
		},
		Drinks: records,
	}

	serialized, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: serialize document: %w", snapshot.ErrBuild, err)
	}

	artifact, err := finalize(serialized, counts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", snapshot.ErrBuild, err)
	}
	return artifact, nil
}
