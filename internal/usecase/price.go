package usecase

import (
	"regexp"
	"strconv"
	"strings"
)

// priceTokenPattern matches the first integer-or-decimal token, allowing comma
// grouping, e.g. "1,402.58" inside "From $1,402.58"
var priceTokenPattern = regexp.MustCompile(`\d[\d,]*\.?\d*`)

// parsePriceValue extracts a numeric value from a heterogeneous price
// representation. Numeric inputs are returned directly; strings are scanned
// for the first numeric token anywhere in the string. Absence is not a
// failure: unparseable or empty inputs report ok=false, never an error.
func parsePriceValue(input any) (float64, bool) {
	switch v := input.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		token := priceTokenPattern.FindString(v)
		if token == "" {
			return 0, false
		}
		value, err := strconv.ParseFloat(strings.ReplaceAll(token, ",", ""), 64)
		if err != nil {
			return 0, false
		}
		return value, true
	}
	return 0, false
}
