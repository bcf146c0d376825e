package heuristic

import (
	"strings"

	"github.com/agext/levenshtein"

	"github.com/expenselens/receipt-engine/internal/entity"
)

// Deduplicate merges line items whose descriptions are near-duplicates of an
// earlier item, summing quantities and totals and keeping the longer
// description. Items with identical prices but distinct descriptions survive.
// The pass is idempotent: a deduplicated slice comes back unchanged.
func (p *Parser) Deduplicate(items []entity.LineItem) []entity.LineItem {
	if len(items) < 2 {
		return items
	}

	out := make([]entity.LineItem, 0, len(items))
	for _, item := range items {
		merged := false
		for i := range out {
			if !sameDescription(out[i].Description, item.Description, p.cfg.SimilarityThreshold) {
				continue
			}
			if len(item.Description) > len(out[i].Description) {
				out[i].Description = item.Description
			}
			out[i].Quantity += item.Quantity
			out[i].TotalPrice += item.TotalPrice
			if out[i].Quantity > 0 {
				out[i].UnitPrice = out[i].TotalPrice / out[i].Quantity
			}
			if out[i].SKU == "" {
				out[i].SKU = item.SKU
			}
			merged = true
			break
		}
		if !merged {
			out = append(out, item)
		}
	}
	return out
}

func sameDescription(a, b string, threshold float64) bool {
	na := normalizeDescription(a)
	nb := normalizeDescription(b)
	if na == nb {
		return true
	}
	return levenshtein.Similarity(na, nb, nil) > threshold
}

func normalizeDescription(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
