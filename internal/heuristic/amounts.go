package heuristic

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/expenselens/receipt-engine/internal/entity"
)

type amountCategory int

const (
	amountUnknown amountCategory = iota
	amountTotal
	amountSubtotal
	amountTax
	amountChange
	amountPayment
)

type amountCandidate struct {
	value      decimal.Decimal
	category   amountCategory
	confidence float64
	lineIdx    int
}

type amounts struct {
	total    float64
	subtotal float64
	tax      float64
}

// Money token regexes, tried in order per line. All capture the numeric part.
var moneyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\s*(\d{1,5}(?:,\d{3})*\.\d{2})`),        // $X.XX
	regexp.MustCompile(`(\d{1,5}(?:,\d{3})*\.\d{2})\s*\$`),        // X.XX$
	regexp.MustCompile(`:\s*\$?\s*(\d{1,5}(?:,\d{3})*\.\d{2})\b`), // colon-prefixed
	regexp.MustCompile(`(\d{1,5}(?:,\d{3})*\.\d{2})\s*$`),         // end of line
	regexp.MustCompile(`\b(\d{1,4}\.\d{2})\b`),                    // bare X.XX
}

var (
	subtotalKeywords = []string{"subtotal", "sub-total", "sub total", "merchandise"}
	totalKeywords    = []string{"total", "amount due", "balance due", "grand total"}
	taxKeywords      = []string{"tax", "hst", "gst", "vat", "pst"}
	changeKeywords   = []string{"change"}
	paymentKeywords  = []string{"cash", "visa", "mastercard", "amex", "debit", "credit", "tender", "payment", "card"}

	// a line that is nothing but "KEYWORD [$]X.XX" is the strongest signal
	reExactTotal    = regexp.MustCompile(`(?i)^\s*(?:grand\s+)?total\s*:?\s*\$?\s*\d{1,5}(?:,\d{3})*\.\d{2}\s*$`)
	reExactSubtotal = regexp.MustCompile(`(?i)^\s*sub\s*-?\s*total\s*:?\s*\$?\s*\d{1,5}(?:,\d{3})*\.\d{2}\s*$`)
	reExactTax      = regexp.MustCompile(`(?i)^\s*(?:sales\s+)?tax\s*:?\s*\$?\s*\d{1,5}(?:,\d{3})*\.\d{2}\s*$`)
)

// classifyAmounts scans every line for money tokens, classifies each by
// keyword proximity, and selects the highest-confidence candidate per
// category, then runs algebraic completion.
func (p *Parser) classifyAmounts(lines []string) amounts {
	var candidates []amountCandidate
	n := len(lines)
	for i, ln := range lines {
		value, ok := firstMoneyToken(ln)
		if !ok {
			continue
		}
		cand := amountCandidate{value: value, lineIdx: i}
		lower := strings.ToLower(ln)

		switch {
		case containsAny(lower, subtotalKeywords):
			cand.category = amountSubtotal
			cand.confidence = 50
			if reExactSubtotal.MatchString(ln) {
				cand.confidence += 30
			}
		case containsAny(lower, taxKeywords):
			cand.category = amountTax
			cand.confidence = 50
			if reExactTax.MatchString(ln) {
				cand.confidence += 30
			}
		case containsAny(lower, totalKeywords):
			cand.category = amountTotal
			cand.confidence = 50
			if reExactTotal.MatchString(ln) {
				cand.confidence += 30
			}
		case containsAny(lower, changeKeywords):
			cand.category = amountChange
			cand.confidence = 50
		case containsAny(lower, paymentKeywords):
			cand.category = amountPayment
			cand.confidence = 50
		default:
			cand.category = amountUnknown
			cand.confidence = 20
		}

		// totals live near the bottom of a receipt
		if n > 1 {
			cand.confidence += 20 * float64(i) / float64(n-1)
		}
		candidates = append(candidates, cand)
	}

	best := func(cat amountCategory) (decimal.Decimal, bool) {
		var winner amountCandidate
		found := false
		for _, c := range candidates {
			if c.category == cat && (!found || c.confidence > winner.confidence) {
				winner = c
				found = true
			}
		}
		return winner.value, found
	}

	var result amounts
	if v, ok := best(amountTotal); ok {
		result.total, _ = v.Float64()
	}
	if v, ok := best(amountSubtotal); ok {
		result.subtotal, _ = v.Float64()
	}
	if v, ok := best(amountTax); ok {
		result.tax, _ = v.Float64()
	}

	// no labeled total: infer it from the largest plausible unclassified
	// amount (change and payment lines are not totals)
	if result.total == 0 {
		largest := decimal.Zero
		for _, c := range candidates {
			if c.category != amountUnknown {
				continue
			}
			if c.value.GreaterThan(largest) && c.value.LessThan(decimal.NewFromInt(100000)) {
				largest = c.value
			}
		}
		result.total, _ = largest.Float64()
	}

	return result
}

// completeTotals applies algebraic completion so the invariant
// total ≈ subtotal + tax holds, then clamps subtotal and tax.
func completeTotals(data *entity.ExtractedReceiptData, items []entity.LineItem) {
	total := decimal.NewFromFloat(data.TotalAmount)
	subtotal := decimal.NewFromFloat(data.Subtotal)
	tax := decimal.NewFromFloat(data.Tax)

	switch {
	case total.IsZero() && !subtotal.IsZero():
		total = subtotal.Add(tax)
	case !total.IsZero() && subtotal.IsZero():
		subtotal = total.Sub(tax)
	case !total.IsZero() && !subtotal.IsZero() && tax.IsZero() && total.GreaterThanOrEqual(subtotal):
		tax = total.Sub(subtotal)
	}

	// still nothing: fall back to the line-item sum
	if total.IsZero() && len(items) > 0 {
		for _, it := range items {
			total = total.Add(decimal.NewFromFloat(it.TotalPrice))
		}
		subtotal = total
	}

	if subtotal.GreaterThan(total) {
		subtotal = total
	}
	if tax.IsNegative() {
		tax = decimal.Zero
	}

	// reconcile inconsistent triples: the total and tax lines are the most
	// reliably labeled, so recompute subtotal from them
	tolerance := decimal.NewFromFloat(0.02)
	if subtotal.Add(tax).Sub(total).Abs().GreaterThan(tolerance) {
		subtotal = total.Sub(tax)
		if subtotal.IsNegative() {
			subtotal = total
			tax = decimal.Zero
		}
	}

	data.TotalAmount, _ = total.Float64()
	data.Subtotal, _ = subtotal.Float64()
	data.Tax, _ = tax.Float64()
}

func firstMoneyToken(line string) (decimal.Decimal, bool) {
	for _, re := range moneyPatterns {
		if m := re.FindStringSubmatch(line); m != nil {
			raw := strings.ReplaceAll(m[1], ",", "")
			if v, err := decimal.NewFromString(raw); err == nil && v.Sign() >= 0 {
				return v, true
			}
		}
	}
	return decimal.Zero, false
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
