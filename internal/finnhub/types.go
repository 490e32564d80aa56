// Package finnhub provides a client for the Finnhub stock API.
// It serves company profiles, real-time quotes and company news.
package finnhub

import (
	"fmt"
	"time"
)

// APIError represents an error from the Finnhub API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Finnhub API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// RateLimitError represents a rate limit error.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("Finnhub rate limit exceeded, retry after %v", e.RetryAfter)
}
