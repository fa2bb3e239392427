package builder

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"barcatalog-backend/internal/domains/catalog"
	"barcatalog-backend/internal/domains/snapshot"

	_ "github.com/mattn/go-sqlite3"
)

// sqliteBuilder serializes the catalog as a single-file SQLite
// database with drinks, drink_ingredients and metadata tables,
// readable by any SQLite client without this pipeline.
type sqliteBuilder struct {
	repo catalog.Repository
}

const sqliteSchema = `
	CREATE TABLE drinks (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		category      TEXT,
		alcoholic     TEXT,
		glass         TEXT,
		instructions  TEXT,
		thumbnail_url TEXT,
		tags          TEXT
	);
	CREATE TABLE drink_ingredients (
		drink_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		name     TEXT NOT NULL,
		measure  TEXT,
		PRIMARY KEY (drink_id, position)
	);
	CREATE TABLE metadata (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
`

func (b *sqliteBuilder) Build(ctx context.Context) (*snapshot.Artifact, error) {
	records, counts, err := assemble(ctx, b.repo)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", snapshot.ErrBuild, err)
	}

	serialized, err := serializeSQLite(ctx, records, counts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", snapshot.ErrBuild, err)
	}

	artifact, err := finalize(serialized, counts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", snapshot.ErrBuild, err)
	}
	return artifact, nil
}

// serializeSQLite writes the catalog into a scratch database file
// and returns the file bytes. The scratch file is always removed.
func serializeSQLite(ctx context.Context, records []Record, counts catalog.Counts) ([]byte, error) {
	dir, err := os.MkdirTemp("", "snapshot-sqlite-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "catalog.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scratch database: %w", err)
	}

	if err := populateSQLite(ctx, db, records, counts); err != nil {
		db.Close()
		return nil, err
	}
	if err := db.Close(); err != nil {
		return nil, fmt.Errorf("failed to close scratch database: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scratch database: %w", err)
	}
	return data, nil
}

func populateSQLite(ctx context.Context, db *sql.DB, records []Record, counts catalog.Counts) error {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to create artifact schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin artifact transaction: %w", err)
	}
	defer tx.Rollback()

	const insertDrink = `
		INSERT INTO drinks (id, name, category, alcoholic, glass, instructions, thumbnail_url, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	const insertIngredient = `
		INSERT INTO drink_ingredients (drink_id, position, name, measure)
		VALUES (?, ?, ?, ?)
	`
	for _, r := range records {
		var tags *string
		if len(r.Tags) > 0 {
			joined := strings.Join(r.Tags, ",")
			tags = &joined
		}
		if _, err := tx.ExecContext(ctx, insertDrink,
			r.ID, r.Name, r.Category, r.Alcoholic, r.Glass, r.Instructions, r.ThumbnailURL, tags,
		); err != nil {
			return fmt.Errorf("failed to insert artifact drink %s: %w", r.ID, err)
		}
		for _, ing := range r.Ingredients {
			if _, err := tx.ExecContext(ctx, insertIngredient,
				r.ID, ing.Position, ing.Name, ing.Measure,
			); err != nil {
				return fmt.Errorf("failed to insert artifact ingredient %s/%d: %w", r.ID, ing.Position, err)
			}
		}
	}

	meta := map[string]string{
		"generated_at":     time.Now().UTC().Format(time.RFC3339),
		"drink_count":      strconv.Itoa(counts.Drinks),
		"ingredient_count": strconv.Itoa(counts.Ingredients),
		"category_count":   strconv.Itoa(counts.Categories),
		"glass_count":      strconv.Itoa(counts.Glasses),
		"tag_count":        strconv.Itoa(counts.Tags),
	}
	for key, value := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO metadata (key, value) VALUES (?, ?)`, key, value); err != nil {
			return fmt.Errorf("failed to insert artifact metadata %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit artifact transaction: %w", err)
	}
	return nil
}
