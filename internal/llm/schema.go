package llm

// BuildReceiptJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We send it to the model as an output constraint and also use it
// locally to validate what comes back.
func BuildReceiptJSONSchema(allowedCategories []string) map[string]any {
	item := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"description": map[string]any{"type": "string", "minLength": 1},
			"quantity":    map[string]any{"type": "number", "minimum": 0},
			"unit_price":  map[string]any{"type": "number", "minimum": 0},
			"total_price": map[string]any{"type": "number", "minimum": 0},
			"category":    map[string]any{"type": "string"},
			"sku":         map[string]any{"type": "string"},
		},
		"required": []string{"description", "total_price"},
	}

	props := map[string]any{
		"vendor":         map[string]any{"type": "string", "minLength": 1},
		"date":           map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
		"total_amount":   map[string]any{"type": "number", "minimum": 0},
		"subtotal":       map[string]any{"type": "number", "minimum": 0},
		"tax":            map[string]any{"type": "number", "minimum": 0},
		"currency":       map[string]any{"type": "string", "minLength": 3, "maxLength": 3},
		"line_items":     map[string]any{"type": "array", "items": item},
		"category":       map[string]any{"type": "string"},
		"confidence":     map[string]any{"type": "number", "minimum": 0.0, "maximum": 100.0},
		"notes":          map[string]any{"type": "string"},
		"receipt_number": map[string]any{"type": "string"},
		"payment_method": map[string]any{"type": "string"},
	}
	required := []string{"vendor", "total_amount"}

	// Constrain category if a taxonomy is provided.
	if len(allowedCategories) > 0 {
		props["category"] = map[string]any{
			"type": "string",
			"enum": allowedCategories,
		}
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}
