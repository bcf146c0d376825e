package heuristic

import (
	"strings"

	"github.com/expenselens/receipt-engine/constants"
	"github.com/expenselens/receipt-engine/internal/entity"
	"github.com/expenselens/receipt-engine/internal/vendor"
)

// categoryKeywords map vendor-name fragments to a spend category. Checked in
// declaration order; first hit wins.
var categoryKeywords = []struct {
	keywords []string
	category constants.Category
}{
	{[]string{"grocery", "market", "supermarket", "kroger", "safeway", "aldi", "trader joe", "whole foods", "publix", "wegmans", "food"}, constants.Groceries},
	{[]string{"restaurant", "cafe", "coffee", "pizza", "grill", "diner", "bakery", "bar ", "bistro", "kitchen", "starbucks", "mcdonald", "subway", "chipotle"}, constants.Dining},
	{[]string{"gas", "fuel", "shell", "chevron", "exxon", "mobil", "bp ", "texaco", "petro"}, constants.Fuel},
	{[]string{"pharmacy", "cvs", "walgreens", "rite aid", "drug"}, constants.Pharmacy},
	{[]string{"best buy", "electronics", "micro center", "apple store", "computer"}, constants.Electronics},
	{[]string{"staples", "office depot", "office max", "officemax"}, constants.OfficeSupplies},
	{[]string{"clothing", "apparel", "gap", "old navy", "nordstrom", "macy", "h&m", "zara"}, constants.Clothing},
	{[]string{"home depot", "lowe's", "lowes", "hardware", "ace hardware", "menards"}, constants.HomeImprovement},
	{[]string{"hotel", "motel", "airline", "airways", "airport", "uber", "lyft", "taxi", "rental"}, constants.Travel},
	{[]string{"cinema", "theater", "theatre", "amc", "netflix", "spotify", "arcade"}, constants.Entertainment},
}

// categorize picks a receipt-level category, preferring the matched vendor
// pattern's default over keyword guessing.
func (p *Parser) categorize(vendorName string, vendorPattern *vendor.Pattern, items []entity.LineItem) constants.Category {
	if vendorPattern != nil && vendorPattern.DefaultCategory != "" {
		return vendorPattern.DefaultCategory
	}
	lower := strings.ToLower(vendorName)
	for _, ck := range categoryKeywords {
		if containsAny(lower, ck.keywords) {
			return ck.category
		}
	}
	// vendor gave nothing away; let the dominant item category decide
	if cat, ok := dominantItemCategory(items); ok {
		return cat
	}
	return constants.Other
}

// itemCategoryKeywords classify individual item descriptions.
var itemCategoryKeywords = []struct {
	keywords []string
	category constants.Category
}{
	{[]string{"milk", "bread", "egg", "cheese", "banana", "apple", "chicken", "beef", "produce", "yogurt", "cereal", "juice"}, constants.Groceries},
	{[]string{"burger", "fries", "sandwich", "latte", "espresso", "pizza", "salad", "soda", "coffee", "tea "}, constants.Dining},
	{[]string{"unleaded", "diesel", "regular gas", "premium gas", "gallon"}, constants.Fuel},
	{[]string{"ibuprofen", "aspirin", "vitamin", "prescription", "bandage", "tylenol"}, constants.Pharmacy},
	{[]string{"cable", "charger", "battery", "usb", "hdmi", "headphone", "mouse", "keyboard"}, constants.Electronics},
	{[]string{"paper", "pen ", "pencil", "stapler", "folder", "notebook", "toner", "ink "}, constants.OfficeSupplies},
	{[]string{"shirt", "pants", "sock", "jacket", "shoe", "dress", "jeans"}, constants.Clothing},
	{[]string{"lumber", "screw", "nail", "paint", "drill", "plywood"}, constants.HomeImprovement},
}

// categorizeItems fills each item's category from its description in place.
func (p *Parser) categorizeItems(items []entity.LineItem) {
	for i := range items {
		if items[i].Category != "" {
			continue
		}
		lower := strings.ToLower(items[i].Description)
		cat := constants.Other
		for _, ck := range itemCategoryKeywords {
			if containsAny(lower, ck.keywords) {
				cat = ck.category
				break
			}
		}
		items[i].Category = string(cat)
	}
}

func dominantItemCategory(items []entity.LineItem) (constants.Category, bool) {
	counts := map[constants.Category]int{}
	for _, it := range items {
		lower := strings.ToLower(it.Description)
		for _, ck := range itemCategoryKeywords {
			if containsAny(lower, ck.keywords) {
				counts[ck.category]++
				break
			}
		}
	}
	var best constants.Category
	bestN := 0
	for cat, n := range counts {
		if n > bestN {
			best, bestN = cat, n
		}
	}
	// require a majority of matched items to be meaningful
	if bestN*2 > len(items) && bestN > 0 {
		return best, true
	}
	return constants.Other, false
}
