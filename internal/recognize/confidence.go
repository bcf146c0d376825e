package recognize

import (
	"regexp"
	"strings"
)

var (
	reDate   = regexp.MustCompile(`\b(20\d{2})\b|\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`)
	reCurr   = regexp.MustCompile(`\b(usd|eur|gbp|cad|aud|inr|jpy)\b|[$£€]`)
	reAmount = regexp.MustCompile(`\b\d{1,3}(,\d{3})*(\.\d{2})\b|\b\d+\.\d{2}\b`)
)

func hasDatePattern(s string) bool     { return reDate.MatchString(s) }
func hasCurrencyPattern(s string) bool { return reCurr.MatchString(s) }
func hasAmountPattern(s string) bool   { return reAmount.MatchString(s) }

// naive heuristic confidence based on decoded text characteristics,
// returned on the 0..100 scale
func heuristicConfidence(txt string) float64 {
	// boost if we see common receipt artifacts
	// (date-ish, currency-ish, amount-ish)
	txtL := strings.ToLower(txt)
	score := 20.0 // base
	if hasDatePattern(txtL) {
		score += 20
	}
	if hasCurrencyPattern(txtL) {
		score += 15
	}
	if hasAmountPattern(txtL) {
		score += 15
	}
	if len(txt) > 120 {
		score += 10
	} // enough content
	if score > 100 {
		score = 100
	}
	return score
}
