package constants

import (
	"strings"
)

type Category string

const (
	Groceries       Category = "Groceries"
	Dining          Category = "Dining"
	Fuel            Category = "Fuel"
	Pharmacy        Category = "Pharmacy"
	Electronics     Category = "Electronics"
	OfficeSupplies  Category = "OfficeSupplies"
	Clothing        Category = "Clothing"
	HomeImprovement Category = "HomeImprovement"
	Travel          Category = "Travel"
	Entertainment   Category = "Entertainment"
	Other           Category = "Other"
)

var allCategories = []Category{
	Groceries,
	Dining,
	Fuel,
	Pharmacy,
	Electronics,
	OfficeSupplies,
	Clothing,
	HomeImprovement,
	Travel,
	Entertainment,
	Other,
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

func Canonicalize(input string) (Category, bool) {
	if input == "" {
		return Other, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]Category{
		"grocery":       Groceries,
		"food":          Groceries,
		"supermarket":   Groceries,
		"restaurant":    Dining,
		"meals":         Dining,
		"fast food":     Dining,
		"gas":           Fuel,
		"gasoline":      Fuel,
		"petrol":        Fuel,
		"drugstore":     Pharmacy,
		"medicine":      Pharmacy,
		"tech":          Electronics,
		"computers":     Electronics,
		"office":        OfficeSupplies,
		"stationery":    OfficeSupplies,
		"apparel":       Clothing,
		"hardware":      HomeImprovement,
		"home repair":   HomeImprovement,
		"hotel":         Travel,
		"airline":       Travel,
		"taxi":          Travel,
		"uber":          Travel,
		"lyft":          Travel,
		"movies":        Entertainment,
		"entertainment": Entertainment,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	// check if it matches any category string
	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}

	return Other, false
}
