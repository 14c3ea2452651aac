package domain

// ProductCandidate is one identified product hypothesis from the generative model.
type ProductCandidate struct {
	Brand          string  `json:"brand,omitempty"`
	Name           string  `json:"name"`
	Model          string  `json:"model,omitempty"`
	UPC            string  `json:"upc,omitempty"`
	CanonicalQuery string  `json:"canonical_query"`
	Confidence     float64 `json:"confidence"` // 0-1
}

// IdentificationResult is the validated output of the identification pipeline.
// RawText is retained for diagnostics only, never re-parsed.
type IdentificationResult struct {
	Primary    ProductCandidate   `json:"primary"`
	Candidates []ProductCandidate `json:"candidates"`
	Notes      string             `json:"notes,omitempty"`
	RawText    string             `json:"raw_model_output,omitempty"`
}
