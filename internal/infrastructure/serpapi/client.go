package serpapi

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"

	"github.com/aishopping/backend/internal/domain"
	"github.com/aishopping/backend/internal/infrastructure/httpcall"
)

// DefaultBaseURL is the SerpAPI search endpoint
const DefaultBaseURL = "https://serpapi.com/search.json"

// Client handles communication with the SerpAPI search aggregation service
type Client struct {
	caller   *httpcall.Caller
	apiKey   string
	baseURL  string
	country  string
	language string
	debug    bool
}

// NewClient creates a new SerpAPI client with the given locale parameters
func NewClient(apiKey, baseURL, country, language string, caller *httpcall.Caller) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if country == "" {
		country = "us"
	}
	if language == "" {
		language = "en"
	}
	return &Client{
		caller:   caller,
		apiKey:   apiKey,
		baseURL:  baseURL,
		country:  country,
		language: language,
	}
}

// SetDebug enables debug logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

func (c *Client) debugLog(format string, args ...any) {
	if c.debug {
		log.Printf("[SERPAPI] "+format, args...)
	}
}

// ShoppingSearch queries Google Shopping and returns the full provider response
func (c *Client) ShoppingSearch(ctx context.Context, query string, num int) (map[string]any, error) {
	return c.search(ctx, "google_shopping", query, num)
}

// WebSearch queries regular Google results and returns the full provider response
func (c *Client) WebSearch(ctx context.Context, query string, num int) (map[string]any, error) {
	return c.search(ctx, "google", query, num)
}

func (c *Client) search(ctx context.Context, engine, query string, num int) (map[string]any, error) {
	c.debugLog("search engine=%s query=%q num=%d", engine, query, num)

	params := url.Values{}
	params.Set("engine", engine)
	params.Set("q", query)
	params.Set("api_key", c.apiKey)
	params.Set("num", strconv.Itoa(num))
	params.Set("hl", c.language)
	params.Set("gl", c.country)

	var result map[string]any
	if err := c.caller.GetJSON(ctx, c.baseURL, params, &result); err != nil {
		return nil, err
	}

	// SerpAPI reports some failures in-band on a 200 response
	if msg, ok := result["error"].(string); ok && msg != "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrUpstream, httpcall.RedactSecrets(msg))
	}

	return result, nil
}
