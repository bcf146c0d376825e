package recognize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"crlf", "A\r\nB\rC", "A\nB\nC"},
		{"tabs and runs of spaces", "A\t\tB   C", "A B C"},
		{"blank line collapse", "A\n\n\n\n\nB", "A\n\nB"},
		{"trailing spaces per line", "A   \nB  ", "A\nB"},
		{"letter O inside numbers", "TOTAL 1O.99 IN 2O24", "TOTAL 10.99 IN 2024"},
		{"surrounding whitespace", "  A  ", "A"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestHeuristicConfidence(t *testing.T) {
	rich := "WALMART SUPERCENTER\n01/15/2024 14:32\nGREAT VALUE COOKIES 0.78\n" +
		"WHOLE MILK GALLON 3.49\nWHEAT BREAD LOAF 2.29\nLARGE EGGS DOZEN 4.99\n" +
		"CHEDDAR CHEESE BLOCK 5.49\nSUBTOTAL 17.04\nTAX 1.36\nTOTAL $18.40\n"
	assert.Equal(t, 80.0, heuristicConfidence(rich))

	// date + currency + amount but short
	assert.Equal(t, 70.0, heuristicConfidence("01/15/2024 $1.00"))

	// nothing receipt-like at all
	assert.Equal(t, 20.0, heuristicConfidence("hello world"))
}
