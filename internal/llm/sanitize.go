package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// StripFences removes markdown code fences and surrounding prose from a model
// reply, returning the innermost JSON object text.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	if i := strings.Index(s, "```json"); i >= 0 {
		s = s[i+len("```json"):]
	} else if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)

	// prose-wrapped JSON: cut to the outermost braces
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		s = s[start : end+1]
	}
	return s
}

// NormalizeAndSanitizeJSON
// - Drops null/empty optionals
// - Coerces string numbers -> numbers for money fields
// - Removes unknown keys (strict additionalProperties = false friendliness)
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 8)

	numericFields := []string{"total_amount", "subtotal", "tax", "confidence"}
	coerceNumber := func(k string) {
		v, ok := m[k]
		if !ok {
			return
		}
		switch t := v.(type) {
		case float64:
			// already numeric
		case string:
			s := strings.TrimSpace(strings.TrimPrefix(t, "$"))
			s = strings.ReplaceAll(s, ",", "")
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				m[k] = f
			} else {
				delete(m, k)
				dropped = append(dropped, k+"(unparseable)")
			}
		case nil:
			delete(m, k)
			dropped = append(dropped, k+"(null)")
		default:
			delete(m, k)
			dropped = append(dropped, k+"(type)")
		}
	}
	for _, k := range numericFields {
		coerceNumber(k)
	}

	// drop null or empty optionals so strict validation can pass
	stringFields := []string{"vendor", "date", "currency", "category", "notes", "receipt_number", "payment_method"}
	for _, k := range stringFields {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case string:
			if strings.TrimSpace(t) == "" || strings.EqualFold(t, "null") || strings.EqualFold(t, "unknown") && k != "vendor" {
				delete(m, k)
				dropped = append(dropped, k+"(empty)")
			}
		case nil:
			delete(m, k)
			dropped = append(dropped, k+"(null)")
		default:
			delete(m, k)
			dropped = append(dropped, k+"(type)")
		}
	}

	if v, ok := m["currency"].(string); ok {
		m["currency"] = strings.ToUpper(strings.TrimSpace(v))
	}
	if v, ok := m["payment_method"].(string); ok {
		m["payment_method"] = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(v), " ", "_"))
	}

	// line_items: keep only objects, scrub nulls inside each
	if v, ok := m["line_items"].([]any); ok {
		cleaned := make([]any, 0, len(v))
		for _, el := range v {
			obj, ok := el.(map[string]any)
			if !ok {
				dropped = append(dropped, "line_items(element)")
				continue
			}
			for k, iv := range obj {
				if iv == nil {
					delete(obj, k)
				}
			}
			if !allowedItemKeysOnly(obj) {
				dropped = append(dropped, "line_items(keys)")
			}
			cleaned = append(cleaned, obj)
		}
		m["line_items"] = cleaned
	}

	// remove unknown top-level keys
	allowed := map[string]struct{}{
		"vendor": {}, "date": {}, "total_amount": {}, "subtotal": {}, "tax": {},
		"currency": {}, "line_items": {}, "category": {}, "confidence": {},
		"notes": {}, "receipt_number": {}, "payment_method": {},
	}
	for k := range m {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Debug("llm.sanitize.applied", "dropped", dropped)
	}
	return out, dropped, nil
}

var itemKeys = map[string]struct{}{
	"description": {}, "quantity": {}, "unit_price": {}, "total_price": {},
	"category": {}, "sku": {},
}

func allowedItemKeysOnly(obj map[string]any) bool {
	clean := true
	for k := range obj {
		if _, ok := itemKeys[k]; !ok {
			delete(obj, k)
			clean = false
		}
	}
	return clean
}
