package vendorparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/expenselens/receipt-engine/internal/entity"
)

func goodReceipt() entity.ExtractedReceiptData {
	return entity.ExtractedReceiptData{
		Vendor:      "Walmart",
		Date:        time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		TotalAmount: 10.80,
		Subtotal:    10.00,
		Tax:         0.80,
		Confidence:  85,
		LineItems: []entity.LineItem{
			{Description: "COOKIES", Quantity: 2, UnitPrice: 5.00, TotalPrice: 10.00},
		},
	}
}

func TestAssessQualityCleanExtraction(t *testing.T) {
	data := goodReceipt()
	q := AssessQuality(&data, 0.9)

	assert.InDelta(t, 100.0, q.MathConsistency, 1e-9)
	assert.InDelta(t, 100.0, q.LineItemAccuracy, 1e-9)
	assert.InDelta(t, 90.0, q.VendorFormatMatch, 1e-9)
	assert.Empty(t, q.MissingFields)
	assert.Empty(t, q.SuspiciousPatterns)
	// 0.3*100 + 0.4*100 + 0.2*90 + 0.1*100
	assert.InDelta(t, 98.0, q.OverallScore, 1e-9)
}

func TestAssessQualityMathPenalty(t *testing.T) {
	data := goodReceipt()
	data.Tax = 1.80 // off by exactly one dollar
	q := AssessQuality(&data, 0.9)

	assert.InDelta(t, 50.0, q.MathConsistency, 1e-9)
	assert.Empty(t, q.SuspiciousPatterns) // one dollar is the threshold, not over it
}

func TestAssessQualityLargeMathErrorIsSuspicious(t *testing.T) {
	data := goodReceipt()
	data.TotalAmount = 50.00
	q := AssessQuality(&data, 0.9)

	assert.Zero(t, q.MathConsistency)
	assert.NotEmpty(t, q.SuspiciousPatterns)
}

func TestAssessQualityNoItemsIsNeutralAndSuspicious(t *testing.T) {
	data := goodReceipt()
	data.LineItems = nil
	q := AssessQuality(&data, 0.9)

	assert.InDelta(t, 50.0, q.LineItemAccuracy, 1e-9)
	assert.NotContains(t, q.MissingFields, "line_items")
	assert.Contains(t, q.SuspiciousPatterns, "no line items extracted")
}

func TestAssessQualityLowConfidenceIsSuspicious(t *testing.T) {
	data := goodReceipt()
	data.Confidence = 30
	q := AssessQuality(&data, 0.9)
	assert.NotEmpty(t, q.SuspiciousPatterns)
}

func TestAssessQualityMissingFieldsWeighting(t *testing.T) {
	data := entity.ExtractedReceiptData{Vendor: "Unknown", Confidence: 85}
	q := AssessQuality(&data, 0.0)

	// vendor, total_amount and date all missing
	assert.Len(t, q.MissingFields, 3)
	assert.Contains(t, q.MissingFields, "vendor")
	assert.Contains(t, q.MissingFields, "total_amount")
	assert.Contains(t, q.MissingFields, "date")
	// 0.3*100 + 0.4*50 + 0.2*0 + 0.1*40
	assert.InDelta(t, 54.0, q.OverallScore, 1e-9)
}

func TestLineItemAccuracyCountsInvalidItems(t *testing.T) {
	items := []entity.LineItem{
		{Description: "OK", Quantity: 1, UnitPrice: 2.00, TotalPrice: 2.00},
		{Description: "  ", Quantity: 2, UnitPrice: 2.00, TotalPrice: 4.00},
		{Description: "ZERO PRICE", Quantity: 1, UnitPrice: 0, TotalPrice: 0},
		{Description: "OK TOO", Quantity: 3, UnitPrice: 1.50, TotalPrice: 4.50},
	}
	assert.InDelta(t, 50.0, lineItemAccuracy(items), 1e-9)
}

func TestValidLineItem(t *testing.T) {
	tests := []struct {
		name string
		it   entity.LineItem
		want bool
	}{
		{"valid", entity.LineItem{Description: "COOKIES", TotalPrice: 2.00}, true},
		{"empty description", entity.LineItem{Description: "", TotalPrice: 2.00}, false},
		{"blank description", entity.LineItem{Description: "   ", TotalPrice: 2.00}, false},
		{"placeholder unknown", entity.LineItem{Description: "Unknown", TotalPrice: 2.00}, false},
		{"placeholder item", entity.LineItem{Description: "item", TotalPrice: 2.00}, false},
		{"zero total", entity.LineItem{Description: "COOKIES", TotalPrice: 0}, false},
		{"negative total", entity.LineItem{Description: "COOKIES", TotalPrice: -1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, validLineItem(tt.it))
		})
	}
}
