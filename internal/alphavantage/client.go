// Package alphavantage provides a client for the Alpha Vantage
// TOP_GAINERS_LOSERS endpoint.
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hypr/internal/models"
)

const (
	// DefaultBaseURL is the base URL for the Alpha Vantage API.
	DefaultBaseURL = "https://www.alphavantage.co"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 15 * time.Second

	// entriesPerBucket caps each movers list.
	entriesPerBucket = 5
)

// Client is an Alpha Vantage client. It implements TrendingSource.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Alpha Vantage client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// moversResponse is the raw TOP_GAINERS_LOSERS payload. The free tier signals
// rate limiting with a 200 status and an Information/Note field.
type moversResponse struct {
	Information        string        `json:"Information"`
	Note               string        `json:"Note"`
	LastUpdated        string        `json:"last_updated"`
	TopGainers         []moversEntry `json:"top_gainers"`
	TopLosers          []moversEntry `json:"top_losers"`
	MostActivelyTraded []moversEntry `json:"most_actively_traded"`
}

type moversEntry struct {
	Ticker           string `json:"ticker"`
	Price            string `json:"price"`
	ChangeAmount     string `json:"change_amount"`
	ChangePercentage string `json:"change_percentage"`
	Volume           string `json:"volume"`
}

// Fetch retrieves the daily top movers, trimmed to five entries per bucket.
func (c *Client) Fetch(ctx context.Context) (*models.TrendingSnapshot, error) {
	params := url.Values{}
	params.Set("function", "TOP_GAINERS_LOSERS")
	params.Set("apikey", c.apiKey)

	reqURL := fmt.Sprintf("%s/query?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug().Msg("Alpha Vantage movers request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("alpha vantage request failed: status %d: %s", resp.StatusCode, string(body))
	}

	var raw moversResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if raw.Information != "" || raw.Note != "" {
		return nil, fmt.Errorf("alpha vantage throttled: %s%s", raw.Information, raw.Note)
	}

	return &models.TrendingSnapshot{
		TopGainers:         convertEntries(raw.TopGainers),
		TopLosers:          convertEntries(raw.TopLosers),
		MostActivelyTraded: convertEntries(raw.MostActivelyTraded),
		LastUpdated:        time.Now().UTC(),
	}, nil
}

func convertEntries(entries []moversEntry) []models.TrendingEntry {
	if len(entries) > entriesPerBucket {
		entries = entries[:entriesPerBucket]
	}
	out := make([]models.TrendingEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, models.TrendingEntry{
			Ticker:           e.Ticker,
			Price:            e.Price,
			ChangeAmount:     e.ChangeAmount,
			ChangePercentage: e.ChangePercentage,
			Volume:           e.Volume,
		})
	}
	return out
}
