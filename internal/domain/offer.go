package domain

import "strings"

// RawRow is one untyped result row from the search upstream. Field names vary
// by provider; rows are consumed once by normalization and discarded.
type RawRow = map[string]any

// Offer is a normalized shopping offer. Immutable after construction; lives
// only for the duration of one aggregation call.
type Offer struct {
	Title      string   `json:"title"`
	Price      string   `json:"price,omitempty"`       // provider formatting preserved, e.g. "From $499.99"
	PriceValue *float64 `json:"price_value,omitempty"` // parsed numeric value for sorting
	Source     string   `json:"source,omitempty"`
	Link       string   `json:"link,omitempty"`
	Thumbnail  string   `json:"thumbnail,omitempty"`
	Delivery   string   `json:"delivery,omitempty"`
	Rating     *float64 `json:"rating,omitempty"`
	Reviews    *int     `json:"reviews,omitempty"`
}

// DedupeKey derives the identity used to collapse duplicate listings:
// the canonical link when present, otherwise the (source, title) pair.
func (o *Offer) DedupeKey() string {
	if link := strings.ToLower(strings.TrimSpace(o.Link)); link != "" {
		return link
	}
	source := strings.ToLower(strings.TrimSpace(o.Source))
	title := strings.ToLower(strings.TrimSpace(o.Title))
	return source + "|" + title
}

// OffersResult is the caller-visible aggregation result.
type OffersResult struct {
	Query  string  `json:"query"`
	Offers []Offer `json:"offers"`
}
