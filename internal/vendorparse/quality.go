package vendorparse

import (
	"fmt"
	"strings"

	"github.com/expenselens/receipt-engine/internal/entity"
)

// AssessQuality scores an extraction along independent dimensions and blends
// them into an overall score. detectionConfidence is the classifier's [0,1].
func AssessQuality(data *entity.ExtractedReceiptData, detectionConfidence float64) entity.ParseQuality {
	q := entity.ParseQuality{
		MathConsistency:   mathConsistency(data),
		LineItemAccuracy:  lineItemAccuracy(data.LineItems),
		VendorFormatMatch: detectionConfidence * 100,
	}

	if !data.HasVendor() {
		q.MissingFields = append(q.MissingFields, "vendor")
	}
	if data.TotalAmount == 0 {
		q.MissingFields = append(q.MissingFields, "total_amount")
	}
	if data.Date.IsZero() {
		q.MissingFields = append(q.MissingFields, "date")
	}

	if err := data.MathError(); err > 1.0 {
		q.SuspiciousPatterns = append(q.SuspiciousPatterns, fmt.Sprintf("totals off by %.2f", err))
	}
	if len(data.LineItems) == 0 {
		q.SuspiciousPatterns = append(q.SuspiciousPatterns, "no line items extracted")
	}
	if data.Confidence < 50 {
		q.SuspiciousPatterns = append(q.SuspiciousPatterns, fmt.Sprintf("low self-reported confidence %.0f", data.Confidence))
	}

	completeness := 100 - 20*float64(len(q.MissingFields))
	if completeness < 0 {
		completeness = 0
	}
	q.OverallScore = 0.3*q.MathConsistency + 0.4*q.LineItemAccuracy + 0.2*q.VendorFormatMatch + 0.1*completeness
	return q
}

// mathConsistency penalizes 50 points per dollar of disagreement between
// total and subtotal+tax, floored at zero.
func mathConsistency(data *entity.ExtractedReceiptData) float64 {
	penalty := 50 * data.MathError()
	if penalty > 100 {
		penalty = 100
	}
	return 100 - penalty
}

// lineItemAccuracy is the share of items carrying a real description and a
// positive total. No items at all scores a neutral 50.
func lineItemAccuracy(items []entity.LineItem) float64 {
	if len(items) == 0 {
		return 50
	}
	valid := 0
	for _, it := range items {
		if validLineItem(it) {
			valid++
		}
	}
	return float64(valid) / float64(len(items)) * 100
}

// validLineItem requires a non-placeholder description and a positive total.
// Quantity and price plausibility is enforced by the parsers upstream.
func validLineItem(it entity.LineItem) bool {
	desc := strings.TrimSpace(it.Description)
	if desc == "" || strings.EqualFold(desc, "unknown") || strings.EqualFold(desc, "item") {
		return false
	}
	return it.TotalPrice > 0
}
