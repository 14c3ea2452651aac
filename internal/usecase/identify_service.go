package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/aishopping/backend/internal/domain"
)

// validationExcerptLimit bounds the raw-text diagnostic attached to validation errors
const validationExcerptLimit = 2000

// IdentifyService runs the identification pipeline: one resilient call to the
// generative model, JSON extraction from its text output, then validation of
// the minimum-field contract. Failures keep their typed condition so the
// delivery layer can map each to a distinct status.
type IdentifyService struct {
	identifier         domain.ProductIdentifier
	enableDebugLogging bool
}

// NewIdentifyService creates a new identification service
func NewIdentifyService(identifier domain.ProductIdentifier, enableDebugLogging bool) *IdentifyService {
	return &IdentifyService{
		identifier:         identifier,
		enableDebugLogging: enableDebugLogging,
	}
}

// Identify converts an image into a validated identification result
func (s *IdentifyService) Identify(ctx context.Context, image []byte, mimeType string) (*domain.IdentificationResult, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: empty image", domain.ErrInvalidRequest)
	}

	rawText, err := s.identifier.IdentifyImage(ctx, image, mimeType)
	if err != nil {
		return nil, err
	}

	if s.enableDebugLogging {
		log.Printf("[IDENTIFY] model returned %d bytes of text", len(rawText))
	}

	obj, err := ExtractJSONObject(rawText)
	if err != nil {
		return nil, err
	}

	return buildIdentification(obj, rawText)
}

// buildIdentification validates the extracted object against the target shape.
// An absent candidates array and a non-string notes value are cosmetic
// completions of an otherwise valid object and are coerced; a missing product
// identity is never guessed.
func buildIdentification(obj map[string]any, rawText string) (*domain.IdentificationResult, error) {
	if _, ok := obj["candidates"]; !ok {
		obj["candidates"] = []any{}
	}
	if notes, ok := obj["notes"]; ok {
		if notes == nil {
			delete(obj, "notes")
		} else if _, isString := notes.(string); !isString {
			obj["notes"] = fmt.Sprintf("%v", notes)
		}
	}

	encoded, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var result domain.IdentificationResult
	if err := json.Unmarshal(encoded, &result); err != nil {
		return nil, fmt.Errorf("%w: %v; raw: %s", domain.ErrValidation, err, excerpt(rawText, validationExcerptLimit))
	}

	if strings.TrimSpace(result.Primary.Name) == "" || strings.TrimSpace(result.Primary.CanonicalQuery) == "" {
		return nil, fmt.Errorf("%w: primary.name and primary.canonical_query are required; raw: %s",
			domain.ErrValidation, excerpt(rawText, validationExcerptLimit))
	}

	result.Primary.Confidence = clampConfidence(result.Primary.Confidence)
	for i := range result.Candidates {
		result.Candidates[i].Confidence = clampConfidence(result.Candidates[i].Confidence)
	}
	if result.Candidates == nil {
		result.Candidates = []domain.ProductCandidate{}
	}

	result.RawText = rawText
	return &result, nil
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
