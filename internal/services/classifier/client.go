// Package classifier provides the client for the sentiment sidecar, a small
// HTTP service wrapping a finance-tuned text classification model. The
// pipeline treats classification as best-effort: any failure yields the
// neutral sentiment rather than an error.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hypr/internal/models"
)

const (
	// DefaultTimeout is the per-classification timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxConcurrent bounds in-flight classifications. The sidecar runs
	// a single model instance; flooding it only grows its queue.
	DefaultMaxConcurrent = 4

	// maxInputChars matches the sidecar's input truncation.
	maxInputChars = 512
)

// Client talks to the sentiment sidecar. It implements SentimentClassifier.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     arbor.ILogger
	sem        chan struct{}
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMaxConcurrent sets the bound on in-flight classifications.
func WithMaxConcurrent(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.sem = make(chan struct{}, n)
		}
	}
}

// NewClient creates a sidecar client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		sem: make(chan struct{}, DefaultMaxConcurrent),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type classifyRequest struct {
	Text string `json:"text"`
}

// classifyResponse carries the raw class probabilities from the sidecar.
type classifyResponse struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
}

// labelThreshold is the scalar band treated as neutral.
const labelThreshold = 0.1

// Classify scores a piece of text. The input is cleaned (URLs and @mentions
// stripped) and truncated before sending. The sidecar returns per-class
// probabilities; the scalar is P(positive) - P(negative), the label follows
// the scalar with a +-0.1 neutral band, and confidence is the max class
// probability. Any failure, including an unreachable sidecar, returns the
// neutral sentiment.
func (c *Client) Classify(ctx context.Context, text string) models.Sentiment {
	cleaned := CleanText(text)
	if cleaned == "" {
		return models.NeutralSentiment()
	}

	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-ctx.Done():
		return models.NeutralSentiment()
	}

	body, err := json.Marshal(classifyRequest{Text: cleaned})
	if err != nil {
		return models.NeutralSentiment()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return models.NeutralSentiment()
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn().Err(err).Msg("Sentiment sidecar unreachable")
		}
		return models.NeutralSentiment()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if c.logger != nil {
			c.logger.Warn().Int("status", resp.StatusCode).Msg("Sentiment sidecar error")
		}
		return models.NeutralSentiment()
	}

	var raw classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return models.NeutralSentiment()
	}

	return sentimentFromProbabilities(raw)
}

func sentimentFromProbabilities(raw classifyResponse) models.Sentiment {
	score := raw.Positive - raw.Negative

	label := models.LabelNeutral
	if score > labelThreshold {
		label = models.LabelPositive
	} else if score < -labelThreshold {
		label = models.LabelNegative
	}

	confidence := raw.Positive
	if raw.Negative > confidence {
		confidence = raw.Negative
	}
	if raw.Neutral > confidence {
		confidence = raw.Neutral
	}

	return models.Sentiment{
		Score:      score,
		Label:      label,
		Confidence: confidence,
	}
}

// Ready probes the sidecar health endpoint.
func (c *Client) Ready(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
