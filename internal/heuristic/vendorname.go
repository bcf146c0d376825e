package heuristic

import (
	"regexp"
	"strings"

	"github.com/expenselens/receipt-engine/internal/vendor"
)

const vendorScanLines = 5

var reNumericPunct = regexp.MustCompile(`^[\d\s\W]+$`)

// findVendor scans the first few non-trivial lines against the registry of
// known brand variants before falling back to the first substantial line.
func (p *Parser) findVendor(lines []string) (string, *vendor.Pattern) {
	scanned := 0
	var firstSubstantial string
	for _, ln := range lines {
		if !isSubstantialLine(ln) {
			continue
		}
		if scanned < vendorScanLines {
			if pat, ok := p.registry.MatchName(ln); ok {
				return cleanVendorLine(ln), pat
			}
		}
		if firstSubstantial == "" {
			firstSubstantial = ln
		}
		scanned++
		if scanned >= vendorScanLines && firstSubstantial != "" {
			break
		}
	}
	if firstSubstantial == "" {
		return "Unknown", nil
	}
	return cleanVendorLine(firstSubstantial), nil
}

// isSubstantialLine rejects short lines and lines that are purely
// numeric/punctuation (addresses, phone numbers, separators).
func isSubstantialLine(line string) bool {
	if len(line) < 3 {
		return false
	}
	return !reNumericPunct.MatchString(line)
}

var reVendorNoise = regexp.MustCompile(`\s*#\d+.*$|\s*\d{3,}.*$`)

// cleanVendorLine strips store numbers and trailing digits from a header line.
func cleanVendorLine(line string) string {
	cleaned := strings.TrimSpace(reVendorNoise.ReplaceAllString(line, ""))
	if cleaned == "" {
		return strings.TrimSpace(line)
	}
	return cleaned
}
