package heuristic

import (
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/expenselens/receipt-engine/internal/entity"
	"github.com/expenselens/receipt-engine/internal/vendor"
)

type Config struct {
	SimilarityThreshold float64 // line-item dedup threshold, default 0.8
	MaxItemQuantity     float64 // default 100
	MaxItemPrice        float64 // default 10000
}

// Parser is the rule/regex extraction path. It always returns a best-effort
// record and never fails; confidence reflects how much it actually found.
type Parser struct {
	cfg      Config
	registry *vendor.Registry
	logger   *slog.Logger
}

func NewParser(cfg Config, registry *vendor.Registry, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = 0.8
	}
	if cfg.MaxItemQuantity <= 0 {
		cfg.MaxItemQuantity = 100
	}
	if cfg.MaxItemPrice <= 0 {
		cfg.MaxItemPrice = 10000
	}
	return &Parser{cfg: cfg, registry: registry, logger: logger}
}

var (
	reReceiptNumber = regexp.MustCompile(`(?i)(?:receipt|invoice|order|trans(?:action)?)\s*(?:no|num|#)?\s*[:#]?\s*([A-Z0-9][A-Z0-9-]{3,})`)
	rePaymentMethod = regexp.MustCompile(`(?i)\b(visa|mastercard|amex|american express|discover|debit|credit|cash|check|apple pay|google pay)\b`)
)

// Parse extracts a structured record from raw recognition text.
// recognitionConfidence is the adapter's 0..100 estimate and caps the
// resulting confidence.
func (p *Parser) Parse(rawText string, recognitionConfidence float64) entity.ExtractedReceiptData {
	start := time.Now()
	lines := splitLines(rawText)

	vendorName, vendorPattern := p.findVendor(lines)
	date, dateFound := p.findDate(lines, vendorPattern)
	amounts := p.classifyAmounts(lines)
	items := p.extractItems(lines, vendorPattern)
	items = p.Deduplicate(items)

	data := entity.ExtractedReceiptData{
		Vendor:      vendorName,
		Date:        date,
		TotalAmount: amounts.total,
		Subtotal:    amounts.subtotal,
		Tax:         amounts.tax,
		Currency:    detectCurrency(rawText),
		LineItems:   items,
	}
	completeTotals(&data, items)
	data.Category = string(p.categorize(vendorName, vendorPattern, items))
	p.categorizeItems(items)

	if m := reReceiptNumber.FindStringSubmatch(rawText); m != nil {
		data.ReceiptNumber = m[1]
	}
	if m := rePaymentMethod.FindStringSubmatch(rawText); m != nil {
		data.PaymentMethod = strings.ToUpper(strings.ReplaceAll(m[1], " ", "_"))
	}

	data.Confidence = p.confidence(&data, dateFound, recognitionConfidence)

	p.logger.Debug("heuristic.parse.ok",
		"vendor", data.Vendor,
		"total", data.TotalAmount,
		"items", len(data.LineItems),
		"confidence", data.Confidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return data
}

// confidence combines data completeness with the recognition adapter's own
// estimate via min(), so garbage text can't yield a confident parse.
func (p *Parser) confidence(data *entity.ExtractedReceiptData, dateFound bool, recognitionConfidence float64) float64 {
	completeness := 100.0
	if !data.HasVendor() {
		completeness -= 30
	}
	if data.TotalAmount == 0 {
		completeness -= 30
	}
	if len(data.LineItems) == 0 {
		completeness -= 20
	}
	if !dateFound {
		completeness -= 10
	}
	if completeness < 0 {
		completeness = 0
	}
	if recognitionConfidence > 0 && recognitionConfidence < completeness {
		return recognitionConfidence
	}
	return completeness
}

func detectCurrency(text string) string {
	switch {
	case strings.Contains(text, "€") || strings.Contains(strings.ToUpper(text), "EUR"):
		return "EUR"
	case strings.Contains(text, "£") || strings.Contains(strings.ToUpper(text), "GBP"):
		return "GBP"
	default:
		return "USD"
	}
}

// splitLines trims and keeps non-empty lines.
func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, ln := range raw {
		if t := strings.TrimSpace(ln); t != "" {
			lines = append(lines, t)
		}
	}
	return lines
}
