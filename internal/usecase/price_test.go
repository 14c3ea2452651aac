package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePriceValue_Strings(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{"plain dollar amount", "$599.99", 599.99, true},
		{"comma grouping", "$1,402.58", 1402.58, true},
		{"leading text ignored", "From $499.99", 499.99, true},
		{"no currency symbol", "19.99", 19.99, true},
		{"integer only", "1200", 1200, true},
		{"grouping without cents", "2,500", 2500, true},
		{"empty string", "", 0, false},
		{"not available", "N/A", 0, false},
		{"punctuation only", "$-.", 0, false},
		{"text only", "call for price", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parsePriceValue(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParsePriceValue_Numeric(t *testing.T) {
	got, ok := parsePriceValue(149.0)
	assert.True(t, ok)
	assert.Equal(t, 149.0, got)

	got, ok = parsePriceValue(42)
	assert.True(t, ok)
	assert.Equal(t, 42.0, got)
}

func TestParsePriceValue_AbsentOrUnsupported(t *testing.T) {
	_, ok := parsePriceValue(nil)
	assert.False(t, ok)

	_, ok = parsePriceValue([]any{"$5"})
	assert.False(t, ok)
}
