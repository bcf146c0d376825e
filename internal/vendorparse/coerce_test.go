package vendorparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceReceiptFullRecord(t *testing.T) {
	raw := []byte(`{
		"vendor": "Walmart",
		"date": "2024-01-15",
		"total_amount": 10.80,
		"subtotal": 10.00,
		"tax": 0.80,
		"currency": "USD",
		"category": "grocery",
		"confidence": 85,
		"line_items": [
			{"description": "COOKIES", "quantity": 2, "unit_price": 5.00, "total_price": 10.00}
		]
	}`)
	data, err := CoerceReceipt(raw)
	require.NoError(t, err)

	assert.Equal(t, "Walmart", data.Vendor)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), data.Date)
	assert.Equal(t, "Groceries", data.Category) // synonym canonicalized
	assert.Equal(t, 85.0, data.Confidence)
	require.Len(t, data.LineItems, 1)
	assert.NotEmpty(t, data.LineItems[0].ID)
}

func TestCoerceReceiptDefaults(t *testing.T) {
	data, err := CoerceReceipt([]byte(`{}`))
	require.NoError(t, err)

	assert.Equal(t, "Unknown", data.Vendor)
	assert.Equal(t, "USD", data.Currency)
	assert.Equal(t, "Other", data.Category)
	assert.False(t, data.Date.IsZero()) // missing date becomes today
	assert.Equal(t, time.UTC, data.Date.Location())
}

func TestCoerceReceiptClampsConfidence(t *testing.T) {
	data, err := CoerceReceipt([]byte(`{"confidence": 250}`))
	require.NoError(t, err)
	assert.Equal(t, 100.0, data.Confidence)

	data, err = CoerceReceipt([]byte(`{"confidence": -5}`))
	require.NoError(t, err)
	assert.Zero(t, data.Confidence)
}

func TestCoerceReceiptItemInference(t *testing.T) {
	raw := []byte(`{"line_items": [
		{"description": "NO QTY", "unit_price": 2.50, "total_price": 2.50},
		{"description": "NO UNIT", "quantity": 2, "total_price": 5.00},
		{"description": "NO TOTAL", "quantity": 3, "unit_price": 1.00},
		{"description": ""}
	]}`)
	data, err := CoerceReceipt(raw)
	require.NoError(t, err)

	require.Len(t, data.LineItems, 3) // blank description dropped
	assert.Equal(t, 1.0, data.LineItems[0].Quantity)
	assert.InDelta(t, 2.50, data.LineItems[1].UnitPrice, 1e-9)
	assert.InDelta(t, 3.00, data.LineItems[2].TotalPrice, 1e-9)
}

func TestCoerceReceiptRejectsMalformedJSON(t *testing.T) {
	_, err := CoerceReceipt([]byte(`not json`))
	assert.Error(t, err)
}

func TestCoerceReceiptBadDateBecomesToday(t *testing.T) {
	data, err := CoerceReceipt([]byte(`{"date": "01/15/2024"}`))
	require.NoError(t, err)
	today := time.Now().UTC()
	assert.Equal(t, today.Year(), data.Date.Year())
	assert.Equal(t, today.Month(), data.Date.Month())
}
