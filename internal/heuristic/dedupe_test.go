package heuristic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expenselens/receipt-engine/internal/entity"
	"github.com/expenselens/receipt-engine/internal/vendor"
)

func item(desc string, qty, unit, total float64) entity.LineItem {
	return entity.LineItem{Description: desc, Quantity: qty, UnitPrice: unit, TotalPrice: total}
}

func TestDeduplicateMergesIdenticalDescriptions(t *testing.T) {
	p := NewParser(Config{}, vendor.NewRegistry(), nil)
	in := []entity.LineItem{
		item("COKE", 1, 1.99, 1.99),
		item("COKE", 1, 1.99, 1.99),
	}
	out := p.Deduplicate(in)

	require.Len(t, out, 1)
	assert.Equal(t, 2.0, out[0].Quantity)
	assert.InDelta(t, 3.98, out[0].TotalPrice, 1e-9)
	assert.InDelta(t, 1.99, out[0].UnitPrice, 1e-9)
}

func TestDeduplicateMergesNearDuplicates(t *testing.T) {
	p := NewParser(Config{}, vendor.NewRegistry(), nil)
	in := []entity.LineItem{
		item("COCA COLA 12OZ", 1, 1.99, 1.99),
		item("COCA-COLA 12 OZ", 1, 1.99, 1.99),
	}
	out := p.Deduplicate(in)

	require.Len(t, out, 1)
	assert.Equal(t, "COCA-COLA 12 OZ", out[0].Description) // longer one wins
	assert.Equal(t, 2.0, out[0].Quantity)
}

func TestDeduplicateKeepsDistinctItemsWithSamePrice(t *testing.T) {
	p := NewParser(Config{}, vendor.NewRegistry(), nil)
	in := []entity.LineItem{
		item("COKE", 1, 1.99, 1.99),
		item("PEPSI", 1, 1.99, 1.99),
	}
	out := p.Deduplicate(in)
	assert.Len(t, out, 2)
}

func TestDeduplicateIsIdempotent(t *testing.T) {
	p := NewParser(Config{}, vendor.NewRegistry(), nil)
	in := []entity.LineItem{
		item("COKE", 1, 1.99, 1.99),
		item("COKE", 1, 1.99, 1.99),
		item("CHIPS", 2, 1.00, 2.00),
	}
	once := p.Deduplicate(in)
	twice := p.Deduplicate(once)
	assert.Equal(t, once, twice)
}

func TestDeduplicateKeepsFirstSKU(t *testing.T) {
	p := NewParser(Config{}, vendor.NewRegistry(), nil)
	a := item("MILK", 1, 3.49, 3.49)
	a.SKU = "123456789"
	b := item("MILK", 1, 3.49, 3.49)
	b.SKU = "987654321"
	out := p.Deduplicate([]entity.LineItem{a, b})

	require.Len(t, out, 1)
	assert.Equal(t, "123456789", out[0].SKU)
}

func TestSameDescriptionNormalizesCaseAndSpacing(t *testing.T) {
	assert.True(t, sameDescription("Whole  Milk", "whole milk", 0.8))
	assert.False(t, sameDescription("APPLES", "ORANGES", 0.8))
}
