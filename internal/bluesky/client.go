// Package bluesky provides a client for the Bluesky (AT Protocol) post
// search API. Sessions are created lazily on first search and refreshed
// when the access token expires.
package bluesky

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hypr/internal/models"
)

const (
	// DefaultBaseURL is the Bluesky PDS host.
	DefaultBaseURL = "https://bsky.social"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 15 * time.Second
)

// Client is a Bluesky search client. It implements SocialSource.
type Client struct {
	baseURL    string
	identifier string
	password   string
	httpClient *http.Client
	logger     arbor.ILogger

	mu          sync.Mutex
	accessToken string
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

// NewClient creates a new Bluesky client for the given account.
func NewClient(identifier, password string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		identifier: identifier,
		password:   password,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name identifies the platform.
func (c *Client) Name() string {
	return "bluesky"
}

type sessionResponse struct {
	AccessJwt string `json:"accessJwt"`
	Handle    string `json:"handle"`
}

// createSession authenticates and caches the access token.
func (c *Client) createSession(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" {
		return c.accessToken, nil
	}

	body, _ := json.Marshal(map[string]string{
		"identifier": c.identifier,
		"password":   c.password,
	})

	reqURL := c.baseURL + "/xrpc/com.atproto.server.createSession"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("bluesky auth failed: status %d: %s", resp.StatusCode, string(respBody))
	}

	var session sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return "", fmt.Errorf("failed to decode session: %w", err)
	}

	c.accessToken = session.AccessJwt
	return c.accessToken, nil
}

// invalidateSession drops the cached token so the next call re-authenticates.
func (c *Client) invalidateSession() {
	c.mu.Lock()
	c.accessToken = ""
	c.mu.Unlock()
}

// searchResponse is the app.bsky.feed.searchPosts payload.
type searchResponse struct {
	Posts []struct {
		URI    string `json:"uri"`
		Author struct {
			Handle string `json:"handle"`
		} `json:"author"`
		Record struct {
			Text      string `json:"text"`
			CreatedAt string `json:"createdAt"`
		} `json:"record"`
		LikeCount  int `json:"likeCount"`
		ReplyCount int `json:"replyCount"`
	} `json:"posts"`
}

// Search runs each query against searchPosts and returns up to limit posts,
// deduplicated by URI. Engagement counts are kept for display but do not feed
// buzz weighting: Bluesky firehose metrics are not comparable to Reddit votes,
// so these posts carry Engagement 0.
func (c *Client) Search(ctx context.Context, queries []string, limit int) ([]models.RawPost, error) {
	token, err := c.createSession(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var posts []models.RawPost

	for _, query := range queries {
		if len(posts) >= limit {
			break
		}

		params := url.Values{}
		params.Set("q", query)
		params.Set("limit", fmt.Sprintf("%d", limit))
		params.Set("sort", "latest")

		reqURL := fmt.Sprintf("%s/xrpc/app.bsky.feed.searchPosts?%s", c.baseURL, params.Encode())

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)

		if c.logger != nil {
			c.logger.Debug().Str("query", query).Msg("Bluesky search request")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to execute request: %w", err)
		}

		if resp.StatusCode == http.StatusUnauthorized {
			resp.Body.Close()
			c.invalidateSession()
			return nil, fmt.Errorf("bluesky session expired")
		}
		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("bluesky search failed: status %d: %s", resp.StatusCode, string(respBody))
		}

		var raw searchResponse
		err = json.NewDecoder(resp.Body).Decode(&raw)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}

		for _, p := range raw.Posts {
			if seen[p.URI] {
				continue
			}
			seen[p.URI] = true

			createdAt, _ := time.Parse(time.RFC3339, p.Record.CreatedAt)

			posts = append(posts, models.RawPost{
				Platform:   "bluesky",
				Title:      p.Record.Text,
				Text:       p.Record.Text,
				CreatedAt:  createdAt.UTC(),
				Username:   p.Author.Handle,
				Likes:      p.LikeCount,
				Comments:   p.ReplyCount,
				Engagement: 0,
				URL:        p.URI,
			})
			if len(posts) >= limit {
				break
			}
		}
	}

	return posts, nil
}
