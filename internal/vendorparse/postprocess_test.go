package vendorparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expenselens/receipt-engine/internal/entity"
	"github.com/expenselens/receipt-engine/internal/vendor"
)

func walmartPattern(t *testing.T) *vendor.Pattern {
	t.Helper()
	pat, ok := vendor.NewRegistry().Lookup(vendor.TypeWalmart)
	require.True(t, ok)
	return pat
}

func TestPostProcessRewritesBulkNotation(t *testing.T) {
	data := entity.ExtractedReceiptData{
		LineItems: []entity.LineItem{
			{Description: "COOKIES 6 AT 1 FOR 0.78", Quantity: 1, UnitPrice: 0.78, TotalPrice: 0.78},
			{Description: "MILK", Quantity: 1, UnitPrice: 3.49, TotalPrice: 3.49},
		},
	}
	postProcess(&data, walmartPattern(t))

	require.Len(t, data.LineItems, 2)
	it := data.LineItems[0]
	assert.Equal(t, "COOKIES", it.Description)
	assert.Equal(t, 6.0, it.Quantity)
	assert.InDelta(t, 0.78, it.TotalPrice, 1e-9)
	assert.InDelta(t, 0.13, it.UnitPrice, 1e-9)
}

func TestPostProcessMergesExpandedDuplicates(t *testing.T) {
	// the model expanded one bulk line into identical unit entries
	dup := entity.LineItem{Description: "COOKIES", Quantity: 1, UnitPrice: 0.13, TotalPrice: 0.13}
	data := entity.ExtractedReceiptData{
		LineItems: []entity.LineItem{dup, dup, dup},
	}
	postProcess(&data, walmartPattern(t))

	require.Len(t, data.LineItems, 1)
	assert.Equal(t, 3.0, data.LineItems[0].Quantity)
	assert.InDelta(t, 0.39, data.LineItems[0].TotalPrice, 1e-9)
}

func TestPostProcessExtractsSKUFromDescription(t *testing.T) {
	data := entity.ExtractedReceiptData{
		LineItems: []entity.LineItem{
			{Description: "GREAT VALUE COOKIES 007874201234", Quantity: 1, UnitPrice: 0.78, TotalPrice: 0.78},
		},
	}
	postProcess(&data, walmartPattern(t))

	assert.Equal(t, "007874201234", data.LineItems[0].SKU)
	assert.Equal(t, "GREAT VALUE COOKIES", data.LineItems[0].Description)
}

func TestPostProcessKeepsExistingSKU(t *testing.T) {
	data := entity.ExtractedReceiptData{
		LineItems: []entity.LineItem{
			{Description: "COOKIES 007874201234", SKU: "999", Quantity: 1, UnitPrice: 1, TotalPrice: 1},
		},
	}
	postProcess(&data, walmartPattern(t))
	assert.Equal(t, "999", data.LineItems[0].SKU)
}

func TestPostProcessStripsTaxFlags(t *testing.T) {
	data := entity.ExtractedReceiptData{
		LineItems: []entity.LineItem{
			{Description: "MILK X", Quantity: 1, UnitPrice: 3.49, TotalPrice: 3.49},
			{Description: "VITAMIN B", Quantity: 1, UnitPrice: 7.99, TotalPrice: 7.99},
			{Description: "BRAND Z", Quantity: 1, UnitPrice: 1.00, TotalPrice: 1.00},
		},
	}
	postProcess(&data, walmartPattern(t))

	assert.Equal(t, "MILK", data.LineItems[0].Description)
	assert.Equal(t, "VITAMIN", data.LineItems[1].Description) // B is a tax flag letter
	assert.Equal(t, "BRAND Z", data.LineItems[2].Description)
}

func TestPostProcessNilPatternIsNoop(t *testing.T) {
	data := entity.ExtractedReceiptData{
		LineItems: []entity.LineItem{{Description: "MILK X", Quantity: 1, UnitPrice: 1, TotalPrice: 1}},
	}
	postProcess(&data, nil)
	assert.Equal(t, "MILK X", data.LineItems[0].Description)
}
