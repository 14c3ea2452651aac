package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aishopping/backend/internal/domain"
)

func TestNormalizeRow_FullRow(t *testing.T) {
	row := domain.RawRow{
		"title":     "Widget",
		"price":     "$19.99",
		"merchant":  "Acme",
		"link":      "https://example.com/widget",
		"thumbnail": "https://example.com/widget.jpg",
		"delivery":  "Free delivery",
		"rating":    4.5,
		"reviews":   123.0,
	}

	offer, ok := normalizeRow(row)
	require.True(t, ok)

	assert.Equal(t, "Widget", offer.Title)
	assert.Equal(t, "$19.99", offer.Price)
	require.NotNil(t, offer.PriceValue)
	assert.Equal(t, 19.99, *offer.PriceValue)
	assert.Equal(t, "Acme", offer.Source)
	assert.Equal(t, "https://example.com/widget", offer.Link)
	assert.Equal(t, "https://example.com/widget.jpg", offer.Thumbnail)
	assert.Equal(t, "Free delivery", offer.Delivery)
	require.NotNil(t, offer.Rating)
	assert.Equal(t, 4.5, *offer.Rating)
	require.NotNil(t, offer.Reviews)
	assert.Equal(t, 123, *offer.Reviews)
}

func TestNormalizeRow_KeyPrecedence(t *testing.T) {
	row := domain.RawRow{
		"title":        "Primary Title",
		"name":         "Secondary Name",
		"source":       "First Source",
		"merchant":     "Second Source",
		"link":         "https://example.com/a",
		"product_link": "https://example.com/b",
	}

	offer, ok := normalizeRow(row)
	require.True(t, ok)
	assert.Equal(t, "Primary Title", offer.Title)
	assert.Equal(t, "First Source", offer.Source)
	assert.Equal(t, "https://example.com/a", offer.Link)
}

func TestNormalizeRow_RejectsWithoutTitle(t *testing.T) {
	_, ok := normalizeRow(domain.RawRow{
		"price":  "$5.00",
		"source": "Acme",
	})
	assert.False(t, ok)

	// Whitespace-only titles don't count
	_, ok = normalizeRow(domain.RawRow{
		"title":  "   ",
		"source": "Acme",
	})
	assert.False(t, ok)
}

func TestNormalizeRow_RejectsWithoutLinkOrSource(t *testing.T) {
	_, ok := normalizeRow(domain.RawRow{
		"title": "Orphan Listing",
		"price": "$5.00",
	})
	assert.False(t, ok)
}

func TestNormalizeRow_NumericPriceField(t *testing.T) {
	offer, ok := normalizeRow(domain.RawRow{
		"title":  "Widget",
		"price":  42.5,
		"source": "Acme",
	})
	require.True(t, ok)

	assert.Empty(t, offer.Price)
	require.NotNil(t, offer.PriceValue)
	assert.Equal(t, 42.5, *offer.PriceValue)
}

func TestNormalizeRow_ExtractedPriceFallback(t *testing.T) {
	offer, ok := normalizeRow(domain.RawRow{
		"title":           "Widget",
		"price":           "See site for price",
		"extracted_price": 31.0,
		"source":          "Acme",
	})
	require.True(t, ok)

	assert.Equal(t, "See site for price", offer.Price)
	require.NotNil(t, offer.PriceValue)
	assert.Equal(t, 31.0, *offer.PriceValue)
}

func TestNormalizeRow_DisplayParseWinsOverExtracted(t *testing.T) {
	// If the display string parses cleanly, the numeric value must equal it
	offer, ok := normalizeRow(domain.RawRow{
		"title":           "Widget",
		"price":           "$19.99",
		"extracted_price": 18.0,
		"source":          "Acme",
	})
	require.True(t, ok)
	require.NotNil(t, offer.PriceValue)
	assert.Equal(t, 19.99, *offer.PriceValue)
}

func TestNormalizeRow_NestedDelivery(t *testing.T) {
	offer, ok := normalizeRow(domain.RawRow{
		"title":    "Widget",
		"source":   "Acme",
		"delivery": map[string]any{"text": "Arrives tomorrow"},
	})
	require.True(t, ok)
	assert.Equal(t, "Arrives tomorrow", offer.Delivery)
}

func TestNormalizeRow_RatingAndReviewVariants(t *testing.T) {
	tests := []struct {
		name        string
		row         domain.RawRow
		wantRating  *float64
		wantReviews *int
	}{
		{
			name:        "string rating and reviews",
			row:         domain.RawRow{"title": "W", "source": "A", "rating": "4.7 out of 5", "reviews": "1,234 reviews"},
			wantRating:  floatPtr(4.7),
			wantReviews: intPtr(1234),
		},
		{
			name:        "float reviews truncated",
			row:         domain.RawRow{"title": "W", "source": "A", "reviews": 56.9},
			wantReviews: intPtr(56),
		},
		{
			name: "out of range rating unset",
			row:  domain.RawRow{"title": "W", "source": "A", "rating": 9.3},
		},
		{
			name: "unparseable values unset",
			row:  domain.RawRow{"title": "W", "source": "A", "rating": "great", "reviews": "none"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offer, ok := normalizeRow(tt.row)
			require.True(t, ok)
			assert.Equal(t, tt.wantRating, offer.Rating)
			assert.Equal(t, tt.wantReviews, offer.Reviews)
		})
	}
}

func TestNormalizeRow_Idempotent(t *testing.T) {
	row := domain.RawRow{
		"title":    "Widget",
		"price":    "$19.99",
		"source":   "Acme",
		"link":     "https://example.com/widget",
		"delivery": "Free delivery",
		"rating":   4.5,
		"reviews":  123.0,
	}

	first, ok := normalizeRow(row)
	require.True(t, ok)

	// Re-express the normalized offer as a raw row and normalize again
	again := domain.RawRow{
		"title":    first.Title,
		"price":    first.Price,
		"source":   first.Source,
		"link":     first.Link,
		"delivery": first.Delivery,
	}
	if first.Rating != nil {
		again["rating"] = *first.Rating
	}
	if first.Reviews != nil {
		again["reviews"] = float64(*first.Reviews)
	}

	second, ok := normalizeRow(again)
	require.True(t, ok)
	assert.Equal(t, first, second)
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
