package finnhub

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
	"github.com/ternarybob/hypr/internal/interfaces"
	"github.com/ternarybob/hypr/internal/models"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the base URL for the Finnhub API.
	DefaultBaseURL = "https://finnhub.io/api/v1"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	// The free tier allows 60 calls per minute.
	DefaultRateLimit = 1
)

// Client is a Finnhub API client. It implements ProfileSource, QuoteSource
// and NewsSource.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
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

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// NewClient creates a new Finnhub API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// get performs a GET request to the API.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &RateLimitError{RetryAfter: time.Second}
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("token", c.apiKey)

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("url", c.baseURL+path).
			Msg("Finnhub API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{RetryAfter: time.Minute}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// Quote retrieves a real-time quote for a symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (*models.PopularQuote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	params := url.Values{}
	params.Set("symbol", symbol)

	var raw quoteResponse
	if err := c.get(ctx, "/quote", params, &raw); err != nil {
		return nil, err
	}

	// Finnhub returns all-zero quotes for symbols it does not cover
	if raw.Current == 0 && raw.PrevClose == 0 {
		return nil, interfaces.ErrUnknownTicker
	}

	price := raw.Current
	change := raw.Change
	changePct := raw.ChangePercent

	return &models.PopularQuote{
		Ticker:           symbol,
		Price:            &price,
		ChangeAmount:     &change,
		ChangePercentage: &changePct,
		UpdatedAt:        time.Now().UTC(),
	}, nil
}

// Resolve fetches the company profile for a ticker. A ticker Finnhub does not
// recognize returns ErrUnknownTicker: the API answers with an empty object
// rather than an error status.
func (c *Client) Resolve(ctx context.Context, ticker string) (*models.CompanyProfile, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	params := url.Values{}
	params.Set("symbol", ticker)

	var raw profileResponse
	if err := c.get(ctx, "/stock/profile2", params, &raw); err != nil {
		return nil, err
	}

	if raw.Name == "" {
		return nil, interfaces.ErrUnknownTicker
	}

	return &models.CompanyProfile{
		Name:      raw.Name,
		Ticker:    ticker,
		Country:   raw.Country,
		Industry:  raw.Industry,
		Exchange:  raw.Exchange,
		IPODate:   raw.IPO,
		MarketCap: raw.MarketCap,
		URL:       raw.WebURL,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// Search retrieves company news between from and to (inclusive, by calendar day).
func (c *Client) Search(ctx context.Context, ticker string, from, to time.Time) ([]models.RawArticle, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	params := url.Values{}
	params.Set("symbol", ticker)
	params.Set("from", from.UTC().Format("2006-01-02"))
	params.Set("to", to.UTC().Format("2006-01-02"))

	var raw []newsItem
	if err := c.get(ctx, "/company-news", params, &raw); err != nil {
		return nil, err
	}

	articles := make([]models.RawArticle, 0, len(raw))
	for _, item := range raw {
		if item.Headline == "" {
			continue
		}
		articles = append(articles, models.RawArticle{
			Title:       item.Headline,
			Summary:     item.Summary,
			Source:      item.Source,
			URL:         item.URL,
			PublishedAt: time.Unix(item.Datetime, 0).UTC(),
		})
	}

	return articles, nil
}
