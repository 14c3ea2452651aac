package usecase

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/aishopping/backend/internal/domain"
)

// Compiled extraction patterns
var (
	// Fenced ```json ... ``` block containing a brace-delimited object
	fencedJSONPattern = regexp.MustCompile("(?is)```json\\s*(\\{.*?\\})\\s*```")

	// Shortest brace-delimited candidates, scanned left to right
	nonGreedyObjectPattern = regexp.MustCompile(`(?s)\{.*?\}`)

	// First "{" to last "}" inclusive
	greedyObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

	// Trailing comma before a closing brace/bracket
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)

	typographicQuotes = strings.NewReplacer(
		"“", `"`, "”", `"`, "„", `"`,
		"‘", "'", "’", "'",
	)
)

// extractionExcerptLimit bounds the diagnostic excerpt attached to extraction errors
const extractionExcerptLimit = 500

// ExtractJSONObject recovers a well-formed JSON object from raw model text.
// Strategies are layered cheap to expensive; the first success wins:
//  1. parse the whole text (the expected path under a structured-output contract)
//  2. a fenced ```json block
//  3. non-greedy brace-delimited candidates, earliest first
//  4. greedy first-"{" to last-"}" fallback for objects with nested braces
//
// Each parse attempt retries once with light repairs (typographic quotes
// normalized, trailing commas stripped). Data is never fabricated; when
// nothing parses, ErrExtraction carries a bounded excerpt of the input.
func ExtractJSONObject(text string) (map[string]any, error) {
	if obj, ok := parseObject(text); ok {
		return obj, nil
	}

	if m := fencedJSONPattern.FindStringSubmatch(text); m != nil {
		if obj, ok := parseObject(m[1]); ok {
			return obj, nil
		}
	}

	for _, candidate := range nonGreedyObjectPattern.FindAllString(text, -1) {
		if obj, ok := parseObject(candidate); ok {
			return obj, nil
		}
	}

	if m := greedyObjectPattern.FindString(text); m != "" {
		if obj, ok := parseObject(m); ok {
			return obj, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", domain.ErrExtraction, excerpt(text, extractionExcerptLimit))
}

// parseObject attempts a strict parse, then a parse of the repaired text
func parseObject(s string) (map[string]any, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err == nil && obj != nil {
		return obj, true
	}

	repaired := repairJSON(s)
	if repaired != s {
		obj = nil
		if err := json.Unmarshal([]byte(repaired), &obj); err == nil && obj != nil {
			return obj, true
		}
	}

	return nil, false
}

// repairJSON normalizes typographic quotes to straight quotes and strips
// trailing commas before a closing brace/bracket
func repairJSON(s string) string {
	s = typographicQuotes.Replace(s)
	return trailingCommaPattern.ReplaceAllString(s, "$1")
}

// excerpt returns at most n bytes of s for diagnostics
func excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
