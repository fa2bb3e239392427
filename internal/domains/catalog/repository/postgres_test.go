package repository

import (
	"testing"

	"barcatalog-backend/internal/domains/catalog"

	"github.com/stretchr/testify/assert"
)

func str(s string) *string { return &s }

func TestDistinctNamesDeduplicatesAndSkipsEmpty(t *testing.T) {
	drinks := []catalog.Drink{
		{ExternalID: "1", Category: str("Cocktail")},
		{ExternalID: "2", Category: str("Cocktail")},
		{ExternalID: "3", Category: str("Shot")},
		{ExternalID: "4", Category: nil},
		{ExternalID: "5", Category: str("")},
	}

	names := distinctNames(drinks, func(d catalog.Drink) *string { return d.Category })
	assert.Equal(t, []string{"Cocktail", "Shot"}, names)
}

func TestDistinctTagsFlattensAcrossDrinks(t *testing.T) {
	drinks := []catalog.Drink{
		{ExternalID: "1", Tags: []string{"IBA", "Classic"}},
		{ExternalID: "2", Tags: []string{"IBA"}},
		{ExternalID: "3", Tags: nil},
	}

	assert.Equal(t, []string{"IBA", "Classic"}, distinctTags(drinks))
}
