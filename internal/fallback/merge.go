package fallback

import (
	"fmt"
	"time"

	"github.com/expenselens/receipt-engine/internal/entity"
)

const (
	mergeAgentName = "partial-merge"

	// A merged record carrying a vendor and a positive total is minimally
	// usable even when every contributing attempt reported less.
	mergeFloorConfidence = 35.0
)

// MergePartials combines non-empty fields across the baseline and every
// previously attempted result, failures included, into one best-effort record.
// Earlier candidates win field conflicts; later ones only fill gaps.
func MergePartials(fc *Context) entity.AgentResult[entity.ExtractedReceiptData] {
	start := time.Now()

	candidates := make([]*entity.ExtractedReceiptData, 0, len(fc.PriorResults)+1)
	if fc.Baseline != nil {
		candidates = append(candidates, fc.Baseline)
	}
	for i := range fc.PriorResults {
		candidates = append(candidates, &fc.PriorResults[i].Data)
	}

	merged := entity.ExtractedReceiptData{Vendor: "Unknown", Currency: "USD"}
	maxConf := 0.0
	for _, c := range candidates {
		mergeFields(&merged, c)
		if c.Confidence > maxConf {
			maxConf = c.Confidence
		}
	}

	if !merged.HasVendor() && merged.TotalAmount == 0 {
		return entity.Failure[entity.ExtractedReceiptData](mergeAgentName, "no usable fields in prior attempts", time.Since(start))
	}

	conf := maxConf
	if merged.HasVendor() && merged.TotalAmount > 0 && conf < mergeFloorConfidence {
		conf = mergeFloorConfidence
	}
	merged.Confidence = conf
	merged.Notes = fmt.Sprintf("merged partial fields from %d prior attempts", len(candidates))

	return entity.AgentResult[entity.ExtractedReceiptData]{
		Success:        true,
		Data:           merged,
		Confidence:     conf,
		ProcessingTime: time.Since(start),
		AgentName:      mergeAgentName,
	}
}

// mergeFields copies into dst the fields it still lacks.
func mergeFields(dst, src *entity.ExtractedReceiptData) {
	if !dst.HasVendor() && src.HasVendor() {
		dst.Vendor = src.Vendor
	}
	if dst.Date.IsZero() && !src.Date.IsZero() {
		dst.Date = src.Date
	}
	if dst.TotalAmount == 0 && src.TotalAmount > 0 {
		dst.TotalAmount = src.TotalAmount
	}
	if dst.Subtotal == 0 && src.Subtotal > 0 {
		dst.Subtotal = src.Subtotal
	}
	if dst.Tax == 0 && src.Tax > 0 {
		dst.Tax = src.Tax
	}
	if len(dst.LineItems) == 0 && len(src.LineItems) > 0 {
		dst.LineItems = src.LineItems
	}
	if dst.Category == "" && src.Category != "" {
		dst.Category = src.Category
	}
	if dst.PaymentMethod == "" && src.PaymentMethod != "" {
		dst.PaymentMethod = src.PaymentMethod
	}
	if dst.ReceiptNumber == "" && src.ReceiptNumber != "" {
		dst.ReceiptNumber = src.ReceiptNumber
	}
}
