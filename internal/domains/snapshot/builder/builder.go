package builder

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"barcatalog-backend/internal/domains/catalog"
	"barcatalog-backend/internal/domains/snapshot"
	"barcatalog-backend/internal/shared"

	"github.com/klauspost/compress/gzip"
)

// Builder constructs one self-contained snapshot artifact from the
// committed catalog store. Implementations are interchangeable
// serialization strategies over the same assembled catalog.
type Builder interface {
	Build(ctx context.Context) (*snapshot.Artifact, error)
}

// New selects the artifact strategy by configured format
func New(format shared.SnapshotFormat, repo catalog.Repository) Builder {
	if format == shared.FormatSQLite {
		return &sqliteBuilder{repo: repo}
	}
	return &documentBuilder{repo: repo}
}

// Record is one denormalized drink as it appears in the artifact
type Record struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Category     *string            `json:"category"`
	Alcoholic    *string            `json:"alcoholic"`
	Glass        *string            `json:"glass"`
	Instructions *string            `json:"instructions"`
	ThumbnailURL *string            `json:"thumbnailUrl"`
	Ingredients  []RecordIngredient `json:"ingredients"`
	Tags         []string           `json:"tags"`
}

type RecordIngredient struct {
	Name     string  `json:"name"`
	Measure  *string `json:"measure"`
	Position int     `json:"position"`
}

// Meta is the build metadata block embedded in every artifact
type Meta struct {
	GeneratedAt time.Time      `json:"generatedAt"`
	Counts      catalog.Counts `json:"counts"`
}

// assemble re-queries the committed store (four independent reads,
// no dependency on any in-flight sync state) and joins the rows into
// denormalized records in memory.
func assemble(ctx context.Context, repo catalog.Repository) ([]Record, catalog.Counts, error) {
	drinks, err := repo.AllDrinks(ctx)
	if err != nil {
		return nil, catalog.Counts{}, err
	}
	ingredients, err := repo.AllIngredients(ctx)
	if err != nil {
		return nil, catalog.Counts{}, err
	}
	measures, err := repo.AllMeasures(ctx)
	if err != nil {
		return nil, catalog.Counts{}, err
	}
	tags, err := repo.AllTags(ctx)
	if err != nil {
		return nil, catalog.Counts{}, err
	}

	// measures join ingredients by (drink_id, position); a measure at
	// a position with no ingredient row is silently ignored
	measureAt := make(map[string]map[int]string, len(drinks))
	for _, m := range measures {
		if measureAt[m.DrinkID] == nil {
			measureAt[m.DrinkID] = make(map[int]string)
		}
		measureAt[m.DrinkID][m.Position] = m.Measure
	}

	byID := make(map[string]*Record, len(drinks))
	records := make([]Record, 0, len(drinks))
	for _, d := range drinks {
		records = append(records, Record{
			ID:           d.ExternalID,
			Name:         d.Name,
			Category:     d.Category,
			Alcoholic:    d.Alcoholic,
			Glass:        d.Glass,
			Instructions: d.Instructions,
			ThumbnailURL: d.ThumbnailURL,
		})
		byID[d.ExternalID] = &records[len(records)-1]
	}

	counts := catalog.Counts{Drinks: len(records), Ingredients: len(ingredients)}
	for _, i := range ingredients {
		record, ok := byID[i.DrinkID]
		if !ok {
			continue
		}
		ing := RecordIngredient{Name: i.Name, Position: i.Position}
		if m, ok := measureAt[i.DrinkID][i.Position]; ok {
			ing.Measure = &m
		}
		record.Ingredients = append(record.Ingredients, ing)
	}

	tagSet := make(map[string]struct{})
	for _, t := range tags {
		if record, ok := byID[t.DrinkID]; ok {
			record.Tags = append(record.Tags, t.Tag)
		}
		tagSet[t.Tag] = struct{}{}
	}
	counts.Tags = len(tagSet)

	categorySet := make(map[string]struct{})
	glassSet := make(map[string]struct{})
	for _, d := range drinks {
		if d.Category != nil {
			categorySet[*d.Category] = struct{}{}
		}
		if d.Glass != nil {
			glassSet[*d.Glass] = struct{}{}
		}
	}
	counts.Categories = len(categorySet)
	counts.Glasses = len(glassSet)

	return records, counts, nil
}

// finalize compresses the serialized artifact and hashes it. The
// hash covers the compressed bytes, i.e. exactly what a client
// downloads and can verify.
func finalize(serialized []byte, counts catalog.Counts) (*snapshot.Artifact, error) {
	var buf bytes.Buffer
	gz, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}
	if _, err := gz.Write(serialized); err != nil {
		return nil, fmt.Errorf("failed to compress artifact: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("failed to flush gzip writer: %w", err)
	}

	compressed := buf.Bytes()
	digest := sha256.Sum256(compressed)

	return &snapshot.Artifact{
		Data:      compressed,
		SHA256:    hex.EncodeToString(digest[:]),
		SizeBytes: int64(len(compressed)),
		Counts:    counts,
	}, nil
}
