package fallback

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/expenselens/receipt-engine/constants"
	"github.com/expenselens/receipt-engine/internal/entity"
)

// Minimal zero-cost extraction for text too damaged for the structured
// parsers. It aims for an acceptable record, not a complete one.
const (
	patternAgentName     = "pattern-extraction"
	patternConfidence    = 40.0
	patternMaxItems      = 10
	patternMaxTotalValue = 100000.0
)

var (
	rePatternMoney = regexp.MustCompile(`\$?\s*(\d{1,5}(?:,\d{3})*\.\d{2})`)
	rePatternWord  = regexp.MustCompile(`[A-Za-z]{3,}`)
	rePatternItem  = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9 .&'/-]{2,40})\s+\$?(\d{1,4}\.\d{2})\s*$`)
)

// PatternExtract scrapes the largest plausible money token as the total, the
// first wordy line as the vendor, and up to a handful of simple item lines.
func PatternExtract(rawText string) entity.AgentResult[entity.ExtractedReceiptData] {
	start := time.Now()
	lines := strings.Split(rawText, "\n")

	data := entity.ExtractedReceiptData{
		Vendor:   "Unknown",
		Currency: "USD",
		Category: string(constants.Other),
	}
	now := time.Now().UTC()
	data.Date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	for _, ln := range lines {
		t := strings.TrimSpace(ln)
		if t == "" {
			continue
		}
		if rePatternWord.MatchString(t) {
			data.Vendor = t
			break
		}
	}

	largest := 0.0
	for _, m := range rePatternMoney.FindAllStringSubmatch(rawText, -1) {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil || v >= patternMaxTotalValue {
			continue
		}
		if v > largest {
			largest = v
		}
	}
	data.TotalAmount = largest
	data.Subtotal = largest

	for _, ln := range lines {
		if len(data.LineItems) >= patternMaxItems {
			break
		}
		m := rePatternItem.FindStringSubmatch(strings.TrimSpace(ln))
		if m == nil {
			continue
		}
		price, err := strconv.ParseFloat(m[2], 64)
		if err != nil || price <= 0 || price > 10000 {
			continue
		}
		desc := strings.TrimSpace(m[1])
		if strings.Contains(strings.ToLower(desc), "total") {
			continue
		}
		data.LineItems = append(data.LineItems, entity.LineItem{
			ID:          uuid.New().String(),
			Description: desc,
			Quantity:    1,
			UnitPrice:   price,
			TotalPrice:  price,
			Category:    string(constants.Other),
		})
	}

	success := data.HasVendor() && data.TotalAmount > 0
	conf := patternConfidence
	if !success {
		conf = 0
	}
	data.Confidence = conf
	data.Notes = "recovered via minimal pattern extraction"

	return entity.AgentResult[entity.ExtractedReceiptData]{
		Success:        success,
		Data:           data,
		Confidence:     conf,
		ProcessingTime: time.Since(start),
		AgentName:      patternAgentName,
	}
}
