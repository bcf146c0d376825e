package recognize

import (
	"regexp"
	"strings"
)

var (
	reCRLF        = regexp.MustCompile(`\r\n?`)
	reTabs        = regexp.MustCompile(`\t+`)
	reMultiSpace  = regexp.MustCompile(` {2,}`)
	reMultiBlank  = regexp.MustCompile(`\n{3,}`)
	// "O" misread where a zero belongs, e.g. "1O.99" or "2O24"
	reOAfterDigit  = regexp.MustCompile(`(\d)O`)
	reOBeforeDigit = regexp.MustCompile(`O(\d)`)
)

var reBoxNoise = regexp.MustCompile(`(?m)^\s*[_\-]{3,}\s*$`)

// Normalize collapses noisy whitespace and fixes common recognition
// artifacts. Conservative: keeps line breaks; collapses >2 newlines into a
// single blank line.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reTabs.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	// collapse too many blank lines
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	// trim trailing spaces on lines
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	s = strings.Join(lines, "\n")
	s = reOAfterDigit.ReplaceAllString(s, "${1}0")
	s = reOBeforeDigit.ReplaceAllString(s, "0$1")
	return strings.TrimSpace(s)
}
