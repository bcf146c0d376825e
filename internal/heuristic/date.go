package heuristic

import (
	"regexp"
	"time"

	"github.com/expenselens/receipt-engine/internal/vendor"
)

// datePattern pairs a token regex with the layouts to try on its capture.
type datePattern struct {
	re      *regexp.Regexp
	layouts []string
}

// Ordered: the first pattern producing a parseable calendar date wins.
var datePatterns = []datePattern{
	{regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`), []string{"2006-01-02"}},
	{regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{4})\b`), []string{"01/02/2006", "1/2/2006"}},
	{regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{2})\b`), []string{"01/02/06", "1/2/06"}},
	{regexp.MustCompile(`\b(\d{1,2}-\d{1,2}-\d{4})\b`), []string{"01-02-2006", "1-2-2006"}},
	{regexp.MustCompile(`\b(\d{1,2}-\d{1,2}-\d{2})\b`), []string{"01-02-06", "1-2-06"}},
	{regexp.MustCompile(`\b([A-Z][a-z]{2,8} \d{1,2},? \d{4})\b`), []string{"January 2, 2006", "January 2 2006", "Jan 2, 2006", "Jan 2 2006"}},
	{regexp.MustCompile(`\b(\d{1,2} [A-Z][a-z]{2,8} \d{4})\b`), []string{"2 January 2006", "2 Jan 2006"}},
}

// findDate tries vendor-preferred layouts first, then the ordered generic
// patterns. Defaults to the current date when nothing matches.
func (p *Parser) findDate(lines []string, vendorPattern *vendor.Pattern) (time.Time, bool) {
	if vendorPattern != nil && len(vendorPattern.DateLayouts) > 0 {
		for _, ln := range lines {
			for _, dp := range datePatterns {
				m := dp.re.FindStringSubmatch(ln)
				if m == nil {
					continue
				}
				for _, layout := range vendorPattern.DateLayouts {
					if t, err := time.Parse(layout, m[1]); err == nil && plausibleDate(t) {
						return midnightUTC(t), true
					}
				}
			}
		}
	}

	for _, dp := range datePatterns {
		for _, ln := range lines {
			m := dp.re.FindStringSubmatch(ln)
			if m == nil {
				continue
			}
			for _, layout := range dp.layouts {
				if t, err := time.Parse(layout, m[1]); err == nil && plausibleDate(t) {
					return midnightUTC(t), true
				}
			}
		}
	}
	return midnightUTC(time.Now().UTC()), false
}

// plausibleDate rejects parse artifacts far outside the receipt's lifetime.
func plausibleDate(t time.Time) bool {
	year := t.Year()
	return year >= 2000 && year <= time.Now().Year()+1
}

func midnightUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
