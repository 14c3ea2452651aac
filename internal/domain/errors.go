package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRateLimited is returned when an upstream rejects a call with a rate-limit
	// status and retries are exhausted. Retryable by the caller.
	ErrRateLimited = errors.New("upstream rate limit exceeded")

	// ErrUpstream is returned when an upstream rejects a call with a non-retryable
	// 4xx/5xx status.
	ErrUpstream = errors.New("upstream request failed")

	// ErrTransport is returned on connection or timeout failures before any
	// response was received.
	ErrTransport = errors.New("upstream transport failure")

	// ErrMalformed is returned when a 2xx response body violates the expected
	// envelope shape.
	ErrMalformed = errors.New("malformed upstream response")

	// ErrExtraction is returned when no JSON object is recoverable from model text.
	ErrExtraction = errors.New("no JSON object found in model output")

	// ErrValidation is returned when extracted JSON fails the minimum-field contract.
	ErrValidation = errors.New("identification failed validation")

	// ErrInvalidRequest is returned when request parameters are invalid.
	ErrInvalidRequest = errors.New("invalid request parameters")
)

// RateLimitError carries an optional server-provided retry hint.
// errors.Is(err, ErrRateLimited) matches.
type RateLimitError struct {
	RetryAfter time.Duration // zero when the upstream gave no hint
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("upstream rate limit exceeded (retry after %s)", e.RetryAfter)
	}
	return "upstream rate limit exceeded"
}

func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimited }

// UpstreamError carries the rejecting status and a bounded body excerpt.
// Credentials are redacted before the excerpt is attached.
// errors.Is(err, ErrUpstream) matches.
type UpstreamError struct {
	Status     int
	Snippet    string
	RetryAfter time.Duration // server-provided hint, zero when absent
}

func (e *UpstreamError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("upstream request failed: status %d", e.Status)
	}
	return fmt.Sprintf("upstream request failed: status %d: %s", e.Status, e.Snippet)
}

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }
