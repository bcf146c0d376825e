package heuristic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/expenselens/receipt-engine/internal/vendor"
)

func TestFindDateFormats(t *testing.T) {
	p := NewParser(Config{}, vendor.NewRegistry(), nil)
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		line string
	}{
		{"iso", "DATE: 2024-03-05"},
		{"us slash", "03/05/2024 14:32"},
		{"us slash short year", "03/05/24"},
		{"us dash", "03-05-2024"},
		{"long month", "March 5, 2024"},
		{"day first", "5 March 2024"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := p.findDate([]string{tt.line}, nil)
			assert.True(t, found)
			assert.Equal(t, want, got)
		})
	}
}

func TestFindDateISOTakesPriority(t *testing.T) {
	p := NewParser(Config{}, vendor.NewRegistry(), nil)
	got, found := p.findDate([]string{"06/07/2024", "2024-03-05"}, nil)
	assert.True(t, found)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), got)
}

func TestFindDateRejectsImplausibleYears(t *testing.T) {
	p := NewParser(Config{}, vendor.NewRegistry(), nil)
	_, found := p.findDate([]string{"01/02/1985"}, nil)
	assert.False(t, found)
}

func TestFindDateDefaultsToTodayWhenMissing(t *testing.T) {
	p := NewParser(Config{}, vendor.NewRegistry(), nil)
	got, found := p.findDate([]string{"NO DATE HERE"}, nil)
	assert.False(t, found)
	assert.Equal(t, time.UTC, got.Location())
	assert.Zero(t, got.Hour())
}

func TestFindDateUsesVendorLayouts(t *testing.T) {
	p := NewParser(Config{}, vendor.NewRegistry(), nil)
	reg := vendor.NewRegistry()
	pat, ok := reg.Lookup(vendor.TypeWalmart)
	assert.True(t, ok)

	got, found := p.findDate([]string{"01/15/24"}, pat)
	assert.True(t, found)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), got)
}
