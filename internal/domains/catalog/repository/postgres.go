package repository

import (
	"context"
	"fmt"

	"barcatalog-backend/internal/domains/catalog"
	"barcatalog-backend/pkg/database"
	"barcatalog-backend/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// runLockKey is the advisory lock key guarding pipeline runs.
// Arbitrary but fixed; all instances must agree on it.
const runLockKey = 7268231504

type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates the catalog repository
func NewPostgresRepository(pool *pgxpool.Pool) catalog.Repository {
	return &postgresRepository{pool: pool}
}

// Sync wipes and reloads the whole catalog in one transaction.
// Hard replace, not diff-and-patch: the catalog is small enough to
// reload wholesale and this leaves no orphan rows or stale joins.
func (r *postgresRepository) Sync(ctx context.Context, drinks []catalog.Drink) (catalog.Counts, error) {
	counts, err := database.WithTransactionResult(ctx, r.pool, func(tx pgx.Tx) (catalog.Counts, error) {
		if err := truncateAll(ctx, tx); err != nil {
			return catalog.Counts{}, err
		}

		categories, err := upsertDimension(ctx, tx, "categories", distinctNames(drinks, func(d catalog.Drink) *string { return d.Category }))
		if err != nil {
			return catalog.Counts{}, err
		}
		glasses, err := upsertDimension(ctx, tx, "glasses", distinctNames(drinks, func(d catalog.Drink) *string { return d.Glass }))
		if err != nil {
			return catalog.Counts{}, err
		}
		tags, err := upsertDimension(ctx, tx, "tags", distinctTags(drinks))
		if err != nil {
			return catalog.Counts{}, err
		}

		for i := range drinks {
			if err := insertDrink(ctx, tx, &drinks[i], categories, glasses, tags); err != nil {
				return catalog.Counts{}, err
			}
		}

		return countAll(ctx, tx)
	})
	if err != nil {
		logger.Error("Sync: transaction rolled back", err)
		return catalog.Counts{}, fmt.Errorf("%w: %w", catalog.ErrSyncAborted, err)
	}

	return counts, nil
}

func truncateAll(ctx context.Context, tx pgx.Tx) error {
	const query = `
		TRUNCATE drinks, drink_ingredients, drink_measures,
			drink_categories, drink_glasses, drink_tags,
			categories, glasses, tags
		RESTART IDENTITY CASCADE
	`
	if _, err := tx.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to truncate catalog tables: %w", err)
	}
	return nil
}

// upsertDimension inserts the distinct name set into a dimension
// table, ignoring conflicts, then reads back name→id. Post-truncate
// no conflicts should occur; the idempotent form is used anyway.
func upsertDimension(ctx context.Context, tx pgx.Tx, table string, names []string) (map[string]int, error) {
	ids := make(map[string]int, len(names))
	if len(names) == 0 {
		return ids, nil
	}

	insert := fmt.Sprintf(`
		INSERT INTO %s (name)
		SELECT DISTINCT unnest($1::text[])
		ON CONFLICT (name) DO NOTHING
	`, table)
	if _, err := tx.Exec(ctx, insert, names); err != nil {
		return nil, fmt.Errorf("failed to insert %s: %w", table, err)
	}

	selectBack := fmt.Sprintf(`SELECT id, name FROM %s WHERE name = ANY($1)`, table)
	rows, err := tx.Query(ctx, selectBack, names)
	if err != nil {
		return nil, fmt.Errorf("failed to read back %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		ids[name] = id
	}
	return ids, rows.Err()
}

func insertDrink(ctx context.Context, tx pgx.Tx, drink *catalog.Drink, categories, glasses, tags map[string]int) error {
	const insertDrinkQuery = `
		INSERT INTO drinks (
			external_id, name, category, alcoholic, glass,
			instructions, thumbnail_url, raw
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := tx.Exec(ctx, insertDrinkQuery,
		drink.ExternalID,
		drink.Name,
		drink.Category,
		drink.Alcoholic,
		drink.Glass,
		drink.Instructions,
		drink.ThumbnailURL,
		drink.Raw,
	)
	if err != nil {
		return fmt.Errorf("failed to insert drink %s: %w", drink.ExternalID, err)
	}

	for _, ing := range drink.Ingredients {
		const insertIngredient = `
			INSERT INTO drink_ingredients (drink_id, position, name)
			VALUES ($1, $2, $3)
		`
		if _, err := tx.Exec(ctx, insertIngredient, drink.ExternalID, ing.Position, ing.Name); err != nil {
			return fmt.Errorf("failed to insert ingredient %s/%d: %w", drink.ExternalID, ing.Position, err)
		}

		if ing.Measure != nil {
			const insertMeasure = `
				INSERT INTO drink_measures (drink_id, position, measure)
				VALUES ($1, $2, $3)
			`
			if _, err := tx.Exec(ctx, insertMeasure, drink.ExternalID, ing.Position, *ing.Measure); err != nil {
				return fmt.Errorf("failed to insert measure %s/%d: %w", drink.ExternalID, ing.Position, err)
			}
		}
	}

	// Zero-or-one joins: only written when the dimension lookup hit
	if drink.Category != nil {
		if id, ok := categories[*drink.Category]; ok {
			if err := insertJoin(ctx, tx, "drink_categories", "category_id", drink.ExternalID, id); err != nil {
				return err
			}
		}
	}
	if drink.Glass != nil {
		if id, ok := glasses[*drink.Glass]; ok {
			if err := insertJoin(ctx, tx, "drink_glasses", "glass_id", drink.ExternalID, id); err != nil {
				return err
			}
		}
	}
	for _, tag := range drink.Tags {
		id, ok := tags[tag]
		if !ok {
			// should not happen: the dimension set is collected from
			// the same input records
			continue
		}
		if err := insertJoin(ctx, tx, "drink_tags", "tag_id", drink.ExternalID, id); err != nil {
			return err
		}
	}

	return nil
}

func insertJoin(ctx context.Context, tx pgx.Tx, table, column, drinkID string, dimensionID int) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (drink_id, %s)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, table, column)
	if _, err := tx.Exec(ctx, query, drinkID, dimensionID); err != nil {
		return fmt.Errorf("failed to insert %s join for %s: %w", table, drinkID, err)
	}
	return nil
}

func countAll(ctx context.Context, tx pgx.Tx) (catalog.Counts, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM drinks),
			(SELECT COUNT(*) FROM drink_ingredients),
			(SELECT COUNT(*) FROM categories),
			(SELECT COUNT(*) FROM glasses),
			(SELECT COUNT(*) FROM tags)
	`
	var counts catalog.Counts
	err := tx.QueryRow(ctx, query).Scan(
		&counts.Drinks,
		&counts.Ingredients,
		&counts.Categories,
		&counts.Glasses,
		&counts.Tags,
	)
	if err != nil {
		return catalog.Counts{}, fmt.Errorf("failed to count catalog tables: %w", err)
	}
	return counts, nil
}

func distinctNames(drinks []catalog.Drink, field func(catalog.Drink) *string) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, d := range drinks {
		value := field(d)
		if value == nil || *value == "" {
			continue
		}
		if _, ok := seen[*value]; ok {
			continue
		}
		seen[*value] = struct{}{}
		names = append(names, *value)
	}
	return names
}

func distinctTags(drinks []catalog.Drink) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, d := range drinks {
		for _, tag := range d.Tags {
			if tag == "" {
				continue
			}
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			names = append(names, tag)
		}
	}
	return names
}

func (r *postgresRepository) AllDrinks(ctx context.Context) ([]catalog.DrinkRow, error) {
	const query = `
		SELECT external_id, name, category, alcoholic, glass, instructions, thumbnail_url
		FROM drinks
		ORDER BY external_id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query drinks: %w", err)
	}
	defer rows.Close()

	var out []catalog.DrinkRow
	for rows.Next() {
		var d catalog.DrinkRow
		if err := rows.Scan(&d.ExternalID, &d.Name, &d.Category, &d.Alcoholic, &d.Glass, &d.Instructions, &d.ThumbnailURL); err != nil {
			return nil, fmt.Errorf("failed to scan drink row: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *postgresRepository) AllIngredients(ctx context.Context) ([]catalog.IngredientRow, error) {
	const query = `
		SELECT drink_id, position, name
		FROM drink_ingredients
		ORDER BY drink_id, position
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingredients: %w", err)
	}
	defer rows.Close()

	var out []catalog.IngredientRow
	for rows.Next() {
		var i catalog.IngredientRow
		if err := rows.Scan(&i.DrinkID, &i.Position, &i.Name); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient row: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (r *postgresRepository) AllMeasures(ctx context.Context) ([]catalog.MeasureRow, error) {
	const query = `
		SELECT drink_id, position, measure
		FROM drink_measures
		ORDER BY drink_id, position
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query measures: %w", err)
	}
	defer rows.Close()

	var out []catalog.MeasureRow
	for rows.Next() {
		var m catalog.MeasureRow
		if err := rows.Scan(&m.DrinkID, &m.Position, &m.Measure); err != nil {
			return nil, fmt.Errorf("failed to scan measure row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *postgresRepository) AllTags(ctx context.Context) ([]catalog.TagRow, error) {
	const query = `
		SELECT dt.drink_id, t.name
		FROM drink_tags dt
		JOIN tags t ON t.id = dt.tag_id
		ORDER BY dt.drink_id, t.name
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	var out []catalog.TagRow
	for rows.Next() {
		var t catalog.TagRow
		if err := rows.Scan(&t.DrinkID, &t.Tag); err != nil {
			return nil, fmt.Errorf("failed to scan tag row: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// AcquireRunLock pins one pool connection and takes the advisory
// lock on it. Advisory locks are session scoped, so the connection
// stays pinned until release is called.
func (r *postgresRepository) AcquireRunLock(ctx context.Context) (func(), bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire connection for run lock: %w", err)
	}

	var locked bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, runLockKey).Scan(&locked); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("failed to take run lock: %w", err)
	}
	if !locked {
		conn.Release()
		return nil, false, nil
	}

	release := func() {
		// background context: unlock must run even when the run's
		// context is already cancelled
		if _, err := conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1)`, runLockKey); err != nil {
			logger.Error("failed to release run lock", err)
		}
		conn.Release()
	}
	return release, true, nil
}
