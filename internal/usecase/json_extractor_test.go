package usecase

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aishopping/backend/internal/domain"
)

func TestExtractJSONObject_FastPath(t *testing.T) {
	obj := map[string]any{
		"primary": map[string]any{
			"name":            "Chirp Wheel",
			"canonical_query": "Chirp Wheel",
			"confidence":      0.9,
		},
		"candidates": []any{},
	}
	encoded, err := json.Marshal(obj)
	require.NoError(t, err)

	got, err := ExtractJSONObject(string(encoded))
	require.NoError(t, err)
	assert.Equal(t, obj, got)
}

func TestExtractJSONObject_FencedBlock(t *testing.T) {
	text := "Here is the product I identified:\n```json\n" +
		`{"primary":{"name":"Chirp Wheel","canonical_query":"Chirp Wheel","confidence":0.9},"candidates":[]}` +
		"\n```\nLet me know if you need anything else!"

	got, err := ExtractJSONObject(text)
	require.NoError(t, err)

	primary, ok := got["primary"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Chirp Wheel", primary["name"])
	assert.Equal(t, 0.9, primary["confidence"])
}

func TestExtractJSONObject_FencedBlockCaseInsensitive(t *testing.T) {
	text := "```JSON\n{\"name\": \"Widget\"}\n```"

	got, err := ExtractJSONObject(text)
	require.NoError(t, err)
	assert.Equal(t, "Widget", got["name"])
}

func TestExtractJSONObject_ProgressiveScan(t *testing.T) {
	// First brace-delimited candidate is invalid, second parses
	text := `The set {a, b} maps to {"name": "Widget"} as requested.`

	got, err := ExtractJSONObject(text)
	require.NoError(t, err)
	assert.Equal(t, "Widget", got["name"])
}

func TestExtractJSONObject_GreedyFallbackForNestedBraces(t *testing.T) {
	// Nested braces defeat the non-greedy scan; the greedy pass recovers the object
	text := `Model says: {"primary": {"name": "Lamp", "canonical_query": "desk lamp", "confidence": 0.8}} done.`

	got, err := ExtractJSONObject(text)
	require.NoError(t, err)

	primary, ok := got["primary"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Lamp", primary["name"])
}

func TestExtractJSONObject_RepairsTrailingCommas(t *testing.T) {
	got, err := ExtractJSONObject(`{"name": "Widget", "tags": ["a", "b",],}`)
	require.NoError(t, err)
	assert.Equal(t, "Widget", got["name"])
}

func TestExtractJSONObject_RepairsTypographicQuotes(t *testing.T) {
	got, err := ExtractJSONObject("{“name”: “Widget”}")
	require.NoError(t, err)
	assert.Equal(t, "Widget", got["name"])
}

func TestExtractJSONObject_NoBrace(t *testing.T) {
	_, err := ExtractJSONObject("I could not identify any product in this image.")
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestExtractJSONObject_EmptyInput(t *testing.T) {
	_, err := ExtractJSONObject("")
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestExtractJSONObject_ArrayIsNotAnObject(t *testing.T) {
	_, err := ExtractJSONObject(`["a", "b"]`)
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestExtractJSONObject_ErrorExcerptIsBounded(t *testing.T) {
	long := make([]byte, 10000)
	for i := range long {
		long[i] = 'x'
	}

	_, err := ExtractJSONObject(string(long))
	require.Error(t, err)
	assert.Less(t, len(err.Error()), 1000)
}
