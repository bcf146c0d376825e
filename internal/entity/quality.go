package entity

// ParseQuality assesses an extraction along several dimensions.
// All scores are in [0,100].
type ParseQuality struct {
	OverallScore       float64  `json:"overall_score"`
	LineItemAccuracy   float64  `json:"line_item_accuracy"`
	MathConsistency    float64  `json:"math_consistency"`
	VendorFormatMatch  float64  `json:"vendor_format_match"`
	MissingFields      []string `json:"missing_fields"`
	SuspiciousPatterns []string `json:"suspicious_patterns"`
}
