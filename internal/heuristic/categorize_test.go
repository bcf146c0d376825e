package heuristic

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/expenselens/receipt-engine/constants"
	"github.com/expenselens/receipt-engine/internal/entity"
	"github.com/expenselens/receipt-engine/internal/vendor"
)

func TestCategorizeVendorPatternWins(t *testing.T) {
	p := NewParser(Config{}, vendor.NewRegistry(), nil)
	reg := vendor.NewRegistry()
	pat, _ := reg.Lookup(vendor.TypePharmacy)

	// the matched pattern's default beats any keyword guess
	got := p.categorize("CVS PHARMACY", pat, nil)
	assert.Equal(t, constants.Pharmacy, got)
}

func TestCategorizeByVendorKeyword(t *testing.T) {
	p := NewParser(Config{}, vendor.NewRegistry(), nil)
	tests := []struct {
		vendor string
		want   constants.Category
	}{
		{"JOE'S COFFEE SHOP", constants.Dining},
		{"SHELL STATION", constants.Fuel},
		{"CITY SUPERMARKET", constants.Groceries},
		{"GRAND HOTEL", constants.Travel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.categorize(tt.vendor, nil, nil), tt.vendor)
	}
}

func TestCategorizeFallsBackToDominantItems(t *testing.T) {
	p := NewParser(Config{}, vendor.NewRegistry(), nil)
	items := []entity.LineItem{
		{Description: "WHOLE MILK"},
		{Description: "WHEAT BREAD"},
		{Description: "MYSTERY THING"},
	}
	got := p.categorize("ACME STORE", nil, items)
	assert.Equal(t, constants.Groceries, got)
}

func TestCategorizeUnknownIsOther(t *testing.T) {
	p := NewParser(Config{}, vendor.NewRegistry(), nil)
	got := p.categorize("ACME STORE", nil, nil)
	assert.Equal(t, constants.Other, got)
}

func TestCategorizeItemsFillsInPlace(t *testing.T) {
	p := NewParser(Config{}, vendor.NewRegistry(), nil)
	items := []entity.LineItem{
		{Description: "CHEDDAR CHEESE"},
		{Description: "USB CHARGER"},
		{Description: "MYSTERY THING"},
		{Description: "PRESET", Category: "Travel"},
	}
	p.categorizeItems(items)

	assert.Equal(t, "Groceries", items[0].Category)
	assert.Equal(t, "Electronics", items[1].Category)
	assert.Equal(t, "Other", items[2].Category)
	assert.Equal(t, "Travel", items[3].Category) // existing category untouched
}
