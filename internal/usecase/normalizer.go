package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/aishopping/backend/internal/domain"
)

// Ordered candidate keys per canonical field. Different providers nest the
// same data under different names; first non-empty match wins.
var (
	titleKeys     = []string{"title", "name"}
	sourceKeys    = []string{"source", "merchant", "store", "seller"}
	linkKeys      = []string{"link", "product_link", "offer_link"}
	thumbnailKeys = []string{"thumbnail", "image", "image_url"}
)

var (
	decimalTokenPattern = regexp.MustCompile(`[\d.]+`)
	integerTokenPattern = regexp.MustCompile(`\d+`)
)

// firstString returns the first non-empty string among the ordered candidate
// keys, trimmed. Non-string values are skipped.
func firstString(row domain.RawRow, keys []string) string {
	for _, key := range keys {
		if v, ok := row[key].(string); ok {
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// normalizeRow converts one provider result row into a normalized offer.
// It never fails hard: rows that cannot yield a title, or that have neither a
// link nor a source to route to, are rejected (ok=false) and dropped by the
// caller. Partial data survives as unset fields.
func normalizeRow(row domain.RawRow) (domain.Offer, bool) {
	title := firstString(row, titleKeys)
	if title == "" {
		return domain.Offer{}, false
	}

	source := firstString(row, sourceKeys)
	link := firstString(row, linkKeys)
	if link == "" && source == "" {
		// nothing to route to
		return domain.Offer{}, false
	}

	offer := domain.Offer{
		Title:     title,
		Source:    source,
		Link:      link,
		Thumbnail: firstString(row, thumbnailKeys),
		Delivery:  extractDelivery(row),
	}

	offer.Price, offer.PriceValue = extractPriceFields(row)
	offer.Rating = extractRating(row["rating"])
	offer.Reviews = extractReviews(row["reviews"])

	return offer, true
}

// extractPriceFields keeps the provider's display string verbatim so currency
// symbols and "From" prefixes survive, while the numeric value stays
// sort-safe. When the display string parses cleanly that parse wins; a
// numeric-only upstream field ("extracted_price") covers the rest.
func extractPriceFields(row domain.RawRow) (string, *float64) {
	display, _ := row["price"].(string)

	if value, ok := parsePriceValue(row["price"]); ok {
		return display, &value
	}

	for _, key := range []string{"extracted_price", "price_extracted"} {
		switch v := row[key].(type) {
		case float64:
			value := v
			return display, &value
		case int:
			value := float64(v)
			return display, &value
		}
	}

	return display, nil
}

// extractDelivery prefers the "text" sub-field when delivery is a nested object
func extractDelivery(row domain.RawRow) string {
	switch v := row["delivery"].(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		if s, ok := v["text"].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
		if s, ok := v["delivery"].(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// extractRating accepts a numeric rating directly or extracts the first
// decimal token from a string. Values outside [0,5] resolve to unset.
func extractRating(v any) *float64 {
	var rating float64
	switch r := v.(type) {
	case float64:
		rating = r
	case int:
		rating = float64(r)
	case string:
		token := decimalTokenPattern.FindString(r)
		if token == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return nil
		}
		rating = parsed
	default:
		return nil
	}

	if rating < 0 || rating > 5 {
		return nil
	}
	return &rating
}

// extractReviews accepts a numeric count (floats truncated) or extracts the
// first integer token from a string with grouping commas stripped
func extractReviews(v any) *int {
	switch r := v.(type) {
	case float64:
		if r < 0 {
			return nil
		}
		count := int(r)
		return &count
	case int:
		if r < 0 {
			return nil
		}
		count := r
		return &count
	case string:
		token := integerTokenPattern.FindString(strings.ReplaceAll(r, ",", ""))
		if token == "" {
			return nil
		}
		count, err := strconv.Atoi(token)
		if err != nil {
			return nil
		}
		return &count
	}
	return nil
}
