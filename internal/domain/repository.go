package domain

import "context"

// ShoppingSearcher defines the interface for the search aggregation upstream.
// Results are returned as the raw provider JSON object; row extraction and
// normalization happen in the usecase layer.
type ShoppingSearcher interface {
	ShoppingSearch(ctx context.Context, query string, num int) (map[string]any, error)
	WebSearch(ctx context.Context, query string, num int) (map[string]any, error)
}

// ProductIdentifier defines the interface for the generative-model upstream.
// IdentifyImage returns the model's raw text output; JSON extraction and
// validation happen in the usecase layer.
type ProductIdentifier interface {
	IdentifyImage(ctx context.Context, image []byte, mimeType string) (string, error)
}
