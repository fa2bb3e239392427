package catalog

// ingredientSlots is the number of indexed ingredient/measure
// fields a raw source record carries.
const ingredientSlots = 15

// Ingredient is one positioned ingredient of a drink.
// Position is 1-based, matches the source slot index and defines
// display order; it is persisted explicitly because positions are
// not necessarily contiguous.
type Ingredient struct {
	Name     string
	Measure  *string
	Position int
}

// Drink is the normalized form of one raw source record.
// Optional source fields stay nil when absent so "unknown" and
// "empty" remain distinguishable downstream.
type Drink struct {
	ExternalID   string
	Name         string
	Category     *string
	Alcoholic    *string
	Glass        *string
	Instructions *string
	ThumbnailURL *string
	Ingredients  []Ingredient
	Tags         []string
	Raw          []byte // original source payload, retained for forward compatibility
}

// Counts are the per-entity row counts after a sync, computed from
// the committed store rather than the input slice.
type Counts struct {
	Drinks      int `json:"drinks"`
	Ingredients int `json:"ingredients"`
	Categories  int `json:"categories"`
	Glasses     int `json:"glasses"`
	Tags        int `json:"tags"`
}
