package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"

	"github.com/aishopping/backend/internal/domain"
	"github.com/aishopping/backend/internal/infrastructure/httpcall"
)

// DefaultBaseURL is the Gemini API service endpoint (v1beta)
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

const identifyPrompt = "You are an expert product identifier.\n" +
	"Return ONLY valid JSON matching the provided schema.\n" +
	"No markdown. No code fences. No extra text.\n"

// Client handles communication with the Gemini generateContent API
type Client struct {
	caller          *httpcall.Caller
	apiKey          string
	baseURL         string
	configuredModel string
	debug           bool

	mu            sync.Mutex
	resolvedModel string
}

// NewClient creates a new Gemini API client. model may be empty, in which case
// a model supporting generateContent is resolved via ListModels on first use.
func NewClient(apiKey, model, baseURL string, caller *httpcall.Caller) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		caller:          caller,
		apiKey:          apiKey,
		baseURL:         baseURL,
		configuredModel: normalizeModelName(model),
	}
}

// SetDebug enables debug logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

func (c *Client) debugLog(format string, args ...any) {
	if c.debug {
		log.Printf("[GEMINI] "+format, args...)
	}
}

// generateResponse is the envelope shape for generateContent. The pipeline
// reads candidates[0].content.parts[0].text; any missing link in that chain is
// a malformed response, not best-effort.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type listModelsResponse struct {
	Models []struct {
		Name                       string   `json:"name"`
		SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
	} `json:"models"`
}

// IdentifyImage sends an image to the model with a structured-output request
// and returns the model's raw text output
func (c *Client) IdentifyImage(ctx context.Context, image []byte, mimeType string) (string, error) {
	payload := map[string]any{
		"contents": []any{
			map[string]any{
				"role": "user",
				"parts": []any{
					map[string]any{"text": identifyPrompt},
					map[string]any{
						"inline_data": map[string]any{
							"mime_type": mimeType,
							"data":      base64.StdEncoding.EncodeToString(image),
						},
					},
				},
			},
		},
		"generationConfig": map[string]any{
			"response_mime_type":   "application/json",
			"response_json_schema": identifySchema(),
			"temperature":          0.2,
		},
	}

	model, err := c.model(ctx)
	if err != nil {
		return "", err
	}

	var resp generateResponse
	err = c.caller.PostJSON(ctx, c.generateURL(model), c.keyParams(), payload, &resp)

	// A 404 means the resolved model path vanished (rare); re-resolve once
	var upstreamErr *domain.UpstreamError
	if errors.As(err, &upstreamErr) && upstreamErr.Status == 404 {
		c.debugLog("model %q returned 404, re-resolving", model)
		model, err = c.reresolveModel(ctx)
		if err != nil {
			return "", err
		}
		err = c.caller.PostJSON(ctx, c.generateURL(model), c.keyParams(), payload, &resp)
	}
	if err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: missing candidates[0].content.parts[0].text", domain.ErrMalformed)
	}
	text := resp.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", fmt.Errorf("%w: empty text part in response", domain.ErrMalformed)
	}
	return text, nil
}

func (c *Client) generateURL(model string) string {
	return fmt.Sprintf("%s/%s:generateContent", c.baseURL, model)
}

func (c *Client) keyParams() url.Values {
	params := url.Values{}
	params.Set("key", c.apiKey)
	return params
}

// model returns the model to call, resolving via ListModels when none is
// configured. The resolved name is kept for subsequent calls.
func (c *Client) model(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.resolvedModel != "" {
		return c.resolvedModel, nil
	}
	if c.configuredModel != "" {
		c.resolvedModel = c.configuredModel
		return c.resolvedModel, nil
	}

	name, err := c.listAndPick(ctx)
	if err != nil {
		return "", err
	}
	c.resolvedModel = name
	return name, nil
}

// reresolveModel discards any cached name and resolves from ListModels
func (c *Client) reresolveModel(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	name, err := c.listAndPick(ctx)
	if err != nil {
		return "", err
	}
	c.resolvedModel = name
	return name, nil
}

// listAndPick calls ListModels and picks a model that supports generateContent,
// preferring flash models
func (c *Client) listAndPick(ctx context.Context) (string, error) {
	var resp listModelsResponse
	if err := c.caller.GetJSON(ctx, c.baseURL+"/models", c.keyParams(), &resp); err != nil {
		return "", err
	}

	var fallback string
	for _, m := range resp.Models {
		if m.Name == "" || !supportsGenerateContent(m.SupportedGenerationMethods) {
			continue
		}
		if strings.Contains(strings.ToLower(m.Name), "flash") {
			c.debugLog("resolved model %q", m.Name)
			return m.Name, nil
		}
		if fallback == "" {
			fallback = m.Name
		}
	}
	if fallback == "" {
		return "", fmt.Errorf("%w: no models support generateContent", domain.ErrMalformed)
	}
	c.debugLog("resolved model %q", fallback)
	return fallback, nil
}

func supportsGenerateContent(methods []string) bool {
	for _, m := range methods {
		if strings.EqualFold(m, "generateContent") {
			return true
		}
	}
	return false
}

// normalizeModelName ensures a configured model is in "models/..." form
func normalizeModelName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "models/") {
		return name
	}
	return "models/" + name
}

// identifySchema is the response JSON schema for structured output, matching
// the ProductCandidate shape
func identifySchema() map[string]any {
	productCandidate := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"brand":           map[string]any{"type": []string{"string", "null"}},
			"name":            map[string]any{"type": "string"},
			"model":           map[string]any{"type": []string{"string", "null"}},
			"upc":             map[string]any{"type": []string{"string", "null"}},
			"canonical_query": map[string]any{"type": "string"},
			"confidence":      map[string]any{"type": "number"},
		},
		"required":             []string{"name", "canonical_query", "confidence"},
		"additionalProperties": false,
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"primary":    productCandidate,
			"candidates": map[string]any{"type": "array", "items": productCandidate},
			"notes":      map[string]any{"type": []string{"string", "null"}},
		},
		"required":             []string{"primary", "candidates"},
		"additionalProperties": false,
	}
}
