package catalog

import "context"

// DrinkRow is one drinks-table row as read back for snapshot builds
type DrinkRow struct {
	ExternalID   string
	Name         string
	Category     *string
	Alcoholic    *string
	Glass        *string
	Instructions *string
	ThumbnailURL *string
}

// IngredientRow is one drink_ingredients row, ordered by (drink, position)
type IngredientRow struct {
	DrinkID  string
	Position int
	Name     string
}

// MeasureRow is one drink_measures row, matched to its ingredient
// by (drink_id, position)
type MeasureRow struct {
	DrinkID  string
	Position int
	Measure  string
}

// TagRow is one drink→tag association
type TagRow struct {
	DrinkID string
	Tag     string
}

// Repository is the catalog data access layer.
//
// Sync is the write side: it replaces the whole catalog inside one
// transaction. The read methods serve snapshot builds and always see
// the last committed state, never an in-flight sync.
type Repository interface {
	// Sync replaces the entire catalog with the given records. On any
	// failure the transaction rolls back, the previous state stays
	// untouched and ErrSyncAborted is returned with the cause attached.
	Sync(ctx context.Context, drinks []Drink) (Counts, error)

	AllDrinks(ctx context.Context) ([]DrinkRow, error)
	AllIngredients(ctx context.Context) ([]IngredientRow, error)
	AllMeasures(ctx context.Context) ([]MeasureRow, error)
	AllTags(ctx context.Context) ([]TagRow, error)

	// AcquireRunLock takes the advisory lock guarding pipeline runs.
	// ok=false means another run holds it. The release func must be
	// called when ok=true.
	AcquireRunLock(ctx context.Context) (release func(), ok bool, err error)
}
