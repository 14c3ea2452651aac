package httpcall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/aishopping/backend/internal/domain"
	"golang.org/x/time/rate"
)

const (
	// maxBodyBytes caps how much of an upstream response body is read
	maxBodyBytes = 1 << 20 // 1 MB

	// snippetBytes caps body excerpts attached to errors
	snippetBytes = 2000
)

// Config holds tunables for a resilient caller
type Config struct {
	MaxRetries int           // retries after the first attempt; attempts never exceed MaxRetries+1
	MaxBackoff time.Duration // ceiling for any single wait
	BaseDelay  time.Duration // exponential backoff base (doubles per attempt)
	Timeout    time.Duration // per-request timeout
	RateLimit  rate.Limit    // client-side outbound rate (0 = unlimited)
	Burst      int
}

// Caller performs outbound HTTP calls with bounded retry, exponential backoff
// with jitter, and classification of failures into the domain error taxonomy.
// Rate-limit (429) and transient (503) statuses are retried; other 4xx/5xx are
// not. Transport failures are returned immediately.
type Caller struct {
	httpClient *http.Client
	maxRetries int
	maxBackoff time.Duration
	baseDelay  time.Duration
	limiter    *rate.Limiter
	debug      bool
}

// NewCaller creates a caller with the given retry/backoff configuration
func NewCaller(cfg Config) *Caller {
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	maxBackoff := cfg.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = 20 * time.Second
	}
	baseDelay := cfg.BaseDelay
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	limit := cfg.RateLimit
	if limit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Caller{
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		maxBackoff: maxBackoff,
		baseDelay:  baseDelay,
		limiter:    rate.NewLimiter(limit, burst),
	}
}

// SetDebug enables verbose attempt logging
func (c *Caller) SetDebug(debug bool) {
	c.debug = debug
}

func (c *Caller) debugLog(format string, args ...any) {
	if c.debug {
		log.Printf("[HTTPCALL] "+format, args...)
	}
}

// GetJSON performs a GET and decodes the 2xx body into out.
// A 2xx body that fails to decode is classified as ErrMalformed.
func (c *Caller) GetJSON(ctx context.Context, rawURL string, params url.Values, out any) error {
	body, err := c.do(ctx, http.MethodGet, rawURL, params, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformed, err)
	}
	return nil
}

// PostJSON performs a POST with a JSON payload and decodes the 2xx body into out
func (c *Caller) PostJSON(ctx context.Context, rawURL string, params url.Values, payload, out any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request payload: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, rawURL, params, encoded)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformed, err)
	}
	return nil
}

// do issues one request with the retry loop. Each attempt rebuilds the request
// so the body can be replayed.
func (c *Caller) do(ctx context.Context, method, rawURL string, params url.Values, payload []byte) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
		}

		req, err := c.buildRequest(ctx, method, rawURL, params, payload)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// Connection/timeout failures are not retried here; repeated
			// immediate retries after a connection failure are rarely
			// productive without a longer cool-down.
			return nil, fmt.Errorf("%w: %v", domain.ErrTransport, RedactSecrets(err.Error()))
		}

		body, readErr := readLimitedBody(resp.Body, maxBodyBytes)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrTransport, readErr)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}

		retryable := resp.StatusCode == http.StatusTooManyRequests ||
			resp.StatusCode == http.StatusServiceUnavailable
		hint := retryHint(resp, body)

		if retryable && attempt < c.maxRetries {
			wait := hint
			if wait <= 0 {
				wait = c.backoff(attempt)
			}
			if wait > c.maxBackoff {
				wait = c.maxBackoff
			}
			c.debugLog("status %d on attempt %d, retrying in %s", resp.StatusCode, attempt+1, wait)
			if err := sleepContext(ctx, wait); err != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, &domain.RateLimitError{RetryAfter: hint}
		}
		return nil, &domain.UpstreamError{
			Status:     resp.StatusCode,
			Snippet:    RedactSecrets(string(truncate(body, snippetBytes))),
			RetryAfter: hint,
		}
	}
}

func (c *Caller) buildRequest(ctx context.Context, method, rawURL string, params url.Values, payload []byte) (*http.Request, error) {
	if len(params) > 0 {
		rawURL = rawURL + "?" + params.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "AIShopping/1.0")
	return req, nil
}

// backoff computes the exponential wait for the given zero-based attempt,
// capped at the ceiling, plus random jitter of up to half the base delay
func (c *Caller) backoff(attempt int) time.Duration {
	wait := c.baseDelay
	for i := 0; i < attempt; i++ {
		wait *= 2
		if wait >= c.maxBackoff {
			wait = c.maxBackoff
			break
		}
	}
	jitter := time.Duration(rand.Int63n(int64(c.baseDelay/2) + 1))
	return wait + jitter
}

// retryDelayPattern matches the retryDelay field in Google RPC error payloads,
// e.g. "retryDelay": "12s"
var retryDelayPattern = regexp.MustCompile(`"retryDelay"\s*:\s*"([0-9.]+)s"`)

// retryHint extracts a server-provided retry interval from the Retry-After
// header or a structured error payload field. Returns 0 when neither is present.
func retryHint(resp *http.Response, body []byte) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if secs, err := strconv.ParseFloat(header, 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	if m := retryDelayPattern.FindSubmatch(body); m != nil {
		if secs, err := strconv.ParseFloat(string(m[1]), 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return 0
}

// sleepContext sleeps for d, aborting early if the caller's deadline expires
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// readLimitedBody reads at most limit bytes from the response body
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}

// secretParamPattern matches credential-bearing query parameters
var secretParamPattern = regexp.MustCompile(`(?i)(key|api_key|apikey|token)=([^&\s"]+)`)

// RedactSecrets scrubs credential values from URLs or text so API keys never
// leak into errors or logs
func RedactSecrets(s string) string {
	return secretParamPattern.ReplaceAllString(s, "${1}=REDACTED")
}
