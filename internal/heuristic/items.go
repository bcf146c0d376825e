package heuristic

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/expenselens/receipt-engine/internal/entity"
	"github.com/expenselens/receipt-engine/internal/vendor"
)

// itemMatch is one parsed line-item candidate before validation.
type itemMatch struct {
	desc  string
	qty   float64
	unit  float64
	total float64
}

// itemPattern pairs a line regex with an interpreter for its captures.
type itemPattern struct {
	name  string
	re    *regexp.Regexp
	build func(m []string) (itemMatch, bool)
}

// Ordered: the first pattern whose interpreted values pass validation wins.
var itemPatterns = []itemPattern{
	{
		// COFFEE 2 @ 3.50 7.00
		name: "qty-at-unit",
		re:   regexp.MustCompile(`(?i)^(.+?)\s+(\d{1,3})\s*@\s*\$?(\d+(?:\.\d{1,2})?)\s*=?\s*\$?(\d+\.\d{2})$`),
		build: func(m []string) (itemMatch, bool) {
			return buildQtyUnitTotal(m[1], m[2], m[3], m[4])
		},
	},
	{
		// COFFEE 2 x 3.50 7.00
		name: "qty-times-unit",
		re:   regexp.MustCompile(`(?i)^(.+?)\s+(\d{1,3})\s*[x×]\s*\$?(\d+(?:\.\d{1,2})?)\s*=?\s*\$?(\d+\.\d{2})$`),
		build: func(m []string) (itemMatch, bool) {
			return buildQtyUnitTotal(m[1], m[2], m[3], m[4])
		},
	},
	{
		// COFFEE (3.50)
		name: "parenthetical",
		re:   regexp.MustCompile(`^(.+?)\s*\(\s*\$?(\d+\.\d{2})\s*\)$`),
		build: func(m []string) (itemMatch, bool) {
			price, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				return itemMatch{}, false
			}
			return itemMatch{desc: m[1], qty: 1, unit: price, total: price}, true
		},
	},
	{
		// 3 COFFEE 10.50 (quantity and line price, no unit)
		name: "qty-price",
		re:   regexp.MustCompile(`^(\d{1,3})\s+(\D.+?)\s+\$?(\d+\.\d{2})$`),
		build: func(m []string) (itemMatch, bool) {
			qty, err1 := strconv.ParseFloat(m[1], 64)
			total, err2 := strconv.ParseFloat(m[3], 64)
			if err1 != nil || err2 != nil || qty == 0 {
				return itemMatch{}, false
			}
			return itemMatch{desc: m[2], qty: qty, unit: total / qty, total: total}, true
		},
	},
	{
		// COFFEE 3 ea 3.50
		name: "qty-each",
		re:   regexp.MustCompile(`(?i)^(.+?)\s+(\d{1,3})\s*ea\.?\s+\$?(\d+\.\d{2})$`),
		build: func(m []string) (itemMatch, bool) {
			qty, err1 := strconv.ParseFloat(m[2], 64)
			unit, err2 := strconv.ParseFloat(m[3], 64)
			if err1 != nil || err2 != nil {
				return itemMatch{}, false
			}
			return itemMatch{desc: m[1], qty: qty, unit: unit, total: qty * unit}, true
		},
	},
	{
		// COFFEE 3.50 — simple trailing price
		name: "trailing-price",
		re:   regexp.MustCompile(`^(.+?)\s+\$?(\d+\.\d{2})\s*[A-Z]?\s*$`),
		build: func(m []string) (itemMatch, bool) {
			price, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				return itemMatch{}, false
			}
			return itemMatch{desc: m[1], qty: 1, unit: price, total: price}, true
		},
	},
}

func buildQtyUnitTotal(desc, qtyS, unitS, totalS string) (itemMatch, bool) {
	qty, err1 := strconv.ParseFloat(qtyS, 64)
	unit, err2 := strconv.ParseFloat(unitS, 64)
	total, err3 := strconv.ParseFloat(totalS, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return itemMatch{}, false
	}
	return itemMatch{desc: desc, qty: qty, unit: unit, total: total}, true
}

// skipKeywords mark non-item lines (totals, payments, headers) that must not
// reach the pattern matcher.
var skipKeywords = []string{
	"subtotal", "total", "tax", "change", "cash", "visa", "mastercard",
	"amex", "debit", "credit", "balance", "tender", "payment", "amount due",
	"approved", "auth", "account", "thank you", "receipt", "cashier",
}

var reDateOnlyLine = regexp.MustCompile(`^\s*\d{1,2}[/-]\d{1,2}[/-]\d{2,4}(\s+\d{1,2}:\d{2}(:\d{2})?\s*(AM|PM)?)?\s*$`)

func isSkippableLine(line string) bool {
	if len(line) < 3 {
		return true
	}
	if reDateOnlyLine.MatchString(line) {
		return true
	}
	return containsAny(strings.ToLower(line), skipKeywords)
}

// bulk pricing: "6 AT 1 FOR 0.78" is ONE item of quantity 6 totaling 0.78,
// not six items
var reBulkLine = regexp.MustCompile(`(?i)\b(\d{1,3})\s+AT\s+\$?(\d+(?:\.\d{1,2})?)\s+FOR\s+\$?(\d+\.\d{2})\b`)

// extractItems walks every line, applying vendor override patterns first,
// then the ordered generic patterns. The first pattern whose values pass the
// range and multiplicative-identity checks wins the line.
func (p *Parser) extractItems(lines []string, vendorPattern *vendor.Pattern) []entity.LineItem {
	var items []entity.LineItem
	var prevLine string

	for _, ln := range lines {
		// bulk-pricing notation takes the whole line regardless of vendor;
		// the description is usually on the preceding line
		if m := reBulkLine.FindStringSubmatch(ln); m != nil {
			if item, ok := p.buildBulkItem(m, prevLine, vendorPattern); ok {
				items = append(items, item)
			}
			prevLine = ""
			continue
		}

		if isSkippableLine(ln) {
			prevLine = ""
			continue
		}

		if vendorPattern != nil {
			if item, ok := p.tryVendorOverrides(ln, vendorPattern); ok {
				items = append(items, item)
				prevLine = ""
				continue
			}
		}

		matched := false
		for _, pat := range itemPatterns {
			m := pat.re.FindStringSubmatch(ln)
			if m == nil {
				continue
			}
			cand, ok := pat.build(m)
			if !ok || !p.validItem(cand) {
				continue
			}
			desc := cleanDescription(cand.desc)
			if desc == "" {
				continue
			}
			items = append(items, entity.LineItem{
				ID:          uuid.New().String(),
				Description: desc,
				Quantity:    cand.qty,
				UnitPrice:   cand.unit,
				TotalPrice:  cand.total,
			})
			matched = true
			break
		}
		if matched {
			prevLine = ""
		} else {
			prevLine = ln
		}
	}
	return items
}

func (p *Parser) buildBulkItem(m []string, prevLine string, vendorPattern *vendor.Pattern) (entity.LineItem, bool) {
	qty, err1 := strconv.ParseFloat(m[1], 64)
	total, err2 := strconv.ParseFloat(m[3], 64)
	if err1 != nil || err2 != nil || qty <= 0 || qty > p.cfg.MaxItemQuantity {
		return entity.LineItem{}, false
	}
	if total <= 0 || total > p.cfg.MaxItemPrice {
		return entity.LineItem{}, false
	}
	desc := "Item"
	if prevLine != "" && !isSkippableLine(prevLine) {
		if cleaned := cleanDescription(prevLine); cleaned != "" {
			desc = cleaned
		}
	}
	item := entity.LineItem{
		ID:          uuid.New().String(),
		Description: desc,
		Quantity:    qty,
		UnitPrice:   total / qty,
		TotalPrice:  total,
	}
	if vendorPattern != nil && vendorPattern.SKUPattern != nil && prevLine != "" {
		if sku := vendorPattern.SKUPattern.FindString(prevLine); sku != "" {
			item.SKU = sku
		}
	}
	return item, true
}

func (p *Parser) tryVendorOverrides(line string, vendorPattern *vendor.Pattern) (entity.LineItem, bool) {
	for _, re := range vendorPattern.ItemOverrides {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		// vendor override captures are (sku?, desc, price) or the bulk
		// triple handled above; only the 3-group sku/desc/price form lands here
		if len(m) == 4 {
			price, err := strconv.ParseFloat(m[3], 64)
			if err != nil {
				continue
			}
			cand := itemMatch{desc: m[2], qty: 1, unit: price, total: price}
			if !p.validItem(cand) {
				continue
			}
			desc := cleanDescription(cand.desc)
			if desc == "" {
				continue
			}
			return entity.LineItem{
				ID:          uuid.New().String(),
				Description: desc,
				Quantity:    1,
				UnitPrice:   price,
				TotalPrice:  price,
				SKU:         strings.TrimSpace(m[1]),
			}, true
		}
	}
	return entity.LineItem{}, false
}

// validItem enforces the quantity/price ranges and the multiplicative
// identity |qty*unit - total| < 0.05.
func (p *Parser) validItem(m itemMatch) bool {
	if m.qty <= 0 || m.qty > p.cfg.MaxItemQuantity {
		return false
	}
	if m.unit <= 0 || m.unit > p.cfg.MaxItemPrice {
		return false
	}
	if m.total <= 0 || m.total > p.cfg.MaxItemPrice {
		return false
	}
	diff := m.qty*m.unit - m.total
	if diff < 0 {
		diff = -diff
	}
	return diff < 0.05
}

var (
	reLeadingMarker = regexp.MustCompile(`^[\s*•·>+-]+|^\d+[.)]\s+`)
	reProductCode   = regexp.MustCompile(`\b\d{8,}\b|\b[A-Z0-9]{10,}\b`)
	reInnerSpaces   = regexp.MustCompile(`\s{2,}`)
)

// cleanDescription strips bullet/numeric markers and long product codes.
func cleanDescription(desc string) string {
	s := reLeadingMarker.ReplaceAllString(desc, "")
	s = reProductCode.ReplaceAllString(s, "")
	s = reInnerSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
