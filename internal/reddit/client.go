// Package reddit provides a client for the Reddit search API using OAuth2
// client-credentials ("application only") auth.
package reddit

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
	"golang.org/x/oauth2/clientcredentials"
)

const (
	// DefaultBaseURL is the authenticated API host.
	DefaultBaseURL = "https://oauth.reddit.com"

	// DefaultTokenURL is the OAuth2 token endpoint.
	DefaultTokenURL = "https://www.reddit.com/api/v1/access_token"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 15 * time.Second

	// DefaultUserAgent identifies the application per Reddit API rules.
	DefaultUserAgent = "hypr/1.0"
)

// Client is a Reddit search client. It implements SocialSource.
type Client struct {
	baseURL    string
	userAgent  string
	subreddits []string
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

// WithHTTPClient replaces the OAuth2-wrapped HTTP client. Intended for tests.
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

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithSubreddits restricts searches to the named subreddits.
func WithSubreddits(subreddits []string) ClientOption {
	return func(c *Client) {
		c.subreddits = subreddits
	}
}

// NewClient creates a Reddit client authenticated with the given app
// credentials. The underlying transport refreshes tokens as they expire.
func NewClient(clientID, clientSecret string, opts ...ClientOption) *Client {
	conf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     DefaultTokenURL,
	}

	c := &Client{
		baseURL:    DefaultBaseURL,
		userAgent:  DefaultUserAgent,
		subreddits: []string{"stocks", "investing", "wallstreetbets"},
		httpClient: conf.Client(context.Background()),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.httpClient.Timeout = DefaultTimeout

	return c
}

// Name identifies the platform.
func (c *Client) Name() string {
	return "reddit"
}

// listingResponse is the raw search payload.
type listingResponse struct {
	Data struct {
		Children []struct {
			Data struct {
				Title       string  `json:"title"`
				Selftext    string  `json:"selftext"`
				Author      string  `json:"author"`
				Score       int     `json:"score"`
				NumComments int     `json:"num_comments"`
				CreatedUTC  float64 `json:"created_utc"`
				Permalink   string  `json:"permalink"`
				Subreddit   string  `json:"subreddit"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Search runs each query against the configured subreddits and returns up to
// limit posts per query, deduplicated by permalink. Queries past the first
// are skipped once the overall limit is reached.
func (c *Client) Search(ctx context.Context, queries []string, limit int) ([]models.RawPost, error) {
	multi := strings.Join(c.subreddits, "+")
	seen := make(map[string]bool)
	var posts []models.RawPost

	for _, query := range queries {
		if len(posts) >= limit {
			break
		}

		params := url.Values{}
		params.Set("q", query)
		params.Set("restrict_sr", "true")
		params.Set("sort", "relevance")
		params.Set("t", "week")
		params.Set("limit", fmt.Sprintf("%d", limit))

		reqURL := fmt.Sprintf("%s/r/%s/search?%s", c.baseURL, multi, params.Encode())

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)

		if c.logger != nil {
			c.logger.Debug().Str("query", query).Msg("Reddit search request")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to execute request: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("reddit search failed: status %d: %s", resp.StatusCode, string(body))
		}

		var raw listingResponse
		err = json.NewDecoder(resp.Body).Decode(&raw)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}

		for _, child := range raw.Data.Children {
			d := child.Data
			if seen[d.Permalink] {
				continue
			}
			seen[d.Permalink] = true

			posts = append(posts, models.RawPost{
				Platform:    "reddit",
				Title:       d.Title,
				Description: d.Selftext,
				Text:        strings.TrimSpace(d.Title + " " + d.Selftext),
				CreatedAt:   time.Unix(int64(d.CreatedUTC), 0).UTC(),
				Username:    d.Author,
				Likes:       d.Score,
				Comments:    d.NumComments,
				Engagement:  d.Score + d.NumComments,
				URL:         "https://www.reddit.com" + d.Permalink,
				Subreddit:   d.Subreddit,
			})
			if len(posts) >= limit {
				break
			}
		}
	}

	return posts, nil
}
