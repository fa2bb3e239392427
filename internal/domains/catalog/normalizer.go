package catalog

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Normalize maps one raw source record into a Drink. Pure mapping,
// no I/O. The raw payload is loosely typed (any field may be absent,
// null, or a non-string); everything downstream operates on the
// normalized optionals produced here, never on the raw map.
func Normalize(raw map[string]any) (Drink, error) {
	id := stringField(raw, "idDrink")
	name := stringField(raw, "strDrink")
	if id == nil || *id == "" {
		return Drink{}, fmt.Errorf("raw record has no idDrink")
	}

	drink := Drink{
		ExternalID:   *id,
		Category:     stringField(raw, "strCategory"),
		Alcoholic:    stringField(raw, "strAlcoholic"),
		Glass:        stringField(raw, "strGlass"),
		Instructions: stringField(raw, "strInstructions"),
		ThumbnailURL: stringField(raw, "strDrinkThumb"),
		Ingredients:  ingredients(raw),
		Tags:         tags(stringField(raw, "strTags")),
	}
	if name != nil {
		drink.Name = *name
	}

	payload, err := json.Marshal(raw)
	if err != nil {
		return Drink{}, fmt.Errorf("failed to re-marshal raw record %s: %w", drink.ExternalID, err)
	}
	drink.Raw = payload

	return drink, nil
}

// ingredients scans the fixed indexed slot fields. A blank slot is
// skipped without stopping the scan, so later slots still contribute
// and final positions are not necessarily contiguous.
func ingredients(raw map[string]any) []Ingredient {
	var out []Ingredient
	for slot := 1; slot <= ingredientSlots; slot++ {
		name := stringField(raw, fmt.Sprintf("strIngredient%d", slot))
		if name == nil || strings.TrimSpace(*name) == "" {
			continue
		}

		ing := Ingredient{
			Name:     strings.TrimSpace(*name),
			Position: slot,
		}
		if measure := stringField(raw, fmt.Sprintf("strMeasure%d", slot)); measure != nil {
			if trimmed := strings.TrimSpace(*measure); trimmed != "" {
				ing.Measure = &trimmed
			}
		}
		out = append(out, ing)
	}
	return out
}

// tags splits the single comma-delimited tag field; empty segments
// are dropped and surrounding whitespace trimmed.
func tags(field *string) []string {
	if field == nil {
		return nil
	}

	var out []string
	for _, segment := range strings.Split(*field, ",") {
		tag := strings.TrimSpace(segment)
		if tag == "" {
			continue
		}
		out = append(out, tag)
	}
	return out
}

// stringField returns the field as *string, or nil when it is
// absent or not a string. Never returns a pointer to "nothing".
func stringField(raw map[string]any, key string) *string {
	value, ok := raw[key]
	if !ok {
		return nil
	}
	s, ok := value.(string)
	if !ok {
		return nil
	}
	return &s
}
