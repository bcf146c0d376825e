package vendorparse

import (
	"strconv"
	"strings"

	"github.com/expenselens/receipt-engine/internal/entity"
	"github.com/expenselens/receipt-engine/internal/vendor"
)

// postProcess applies vendor-specific corrections the model tends to get
// wrong: bulk-pricing expansion, SKU extraction, tax-flag residue.
func postProcess(data *entity.ExtractedReceiptData, pattern *vendor.Pattern) {
	if pattern == nil {
		return
	}
	if pattern.BulkPricing {
		data.LineItems = collapseBulkItems(data.LineItems)
	}
	if pattern.SKUPattern != nil {
		for i := range data.LineItems {
			it := &data.LineItems[i]
			if it.SKU != "" {
				continue
			}
			if sku := pattern.SKUPattern.FindString(it.Description); sku != "" {
				it.SKU = sku
				it.Description = strings.TrimSpace(strings.Replace(it.Description, sku, "", 1))
			}
		}
	}
	stripTaxFlags(data.LineItems)
}

// collapseBulkItems merges runs of identical items the model expanded from a
// single "N AT price FOR total" line back into one entry.
func collapseBulkItems(items []entity.LineItem) []entity.LineItem {
	if len(items) < 2 {
		return items
	}
	out := make([]entity.LineItem, 0, len(items))
	for _, it := range items {
		// a bulk notation left inside the description means the model parsed
		// the line literally; rewrite quantity and totals from the notation
		if m := reBulkNotation.FindStringSubmatch(it.Description); m != nil {
			if qty, err := strconv.ParseFloat(m[1], 64); err == nil && qty > 0 {
				if total, err := strconv.ParseFloat(m[3], 64); err == nil && total > 0 {
					it.Quantity = qty
					it.TotalPrice = total
					it.UnitPrice = total / qty
					it.Description = strings.TrimSpace(reBulkNotation.ReplaceAllString(it.Description, ""))
					if it.Description == "" {
						it.Description = "Item"
					}
				}
			}
		}

		n := len(out)
		if n > 0 && out[n-1].Description == it.Description &&
			out[n-1].UnitPrice == it.UnitPrice && it.Quantity == 1 {
			out[n-1].Quantity += it.Quantity
			out[n-1].TotalPrice += it.TotalPrice
			continue
		}
		out = append(out, it)
	}
	return out
}

var reBulkNotation = vendor.BulkNotation()

// stripTaxFlags removes single trailing tax-flag letters left on descriptions.
func stripTaxFlags(items []entity.LineItem) {
	for i := range items {
		d := items[i].Description
		if len(d) > 2 && d[len(d)-2] == ' ' {
			switch d[len(d)-1] {
			case 'X', 'O', 'T', 'N', 'A', 'E', 'Y', 'F', 'B':
				items[i].Description = strings.TrimSpace(d[:len(d)-1])
			}
		}
	}
}
