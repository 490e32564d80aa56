// Package expander turns a company identity into semantic social search
// queries. An LLM proposes the queries; when no provider is configured or a
// call fails, a deterministic template set stands in so the social stage
// always has something to search with.
package expander

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
)

const (
	systemPrompt = "You generate short search queries for finding social media discussion about a public company. Respond with JSON only."

	promptTemplate = `Generate 5 distinct search queries to find recent social media posts discussing %s (a company in the %s industry) as a stock or investment. Cover price movement, earnings, analyst opinion and general news. Respond as {"search_queries": ["...", ...]}.`

	maxQueries = 5
)

// Service expands company names into search queries. It implements
// QueryExpander.
type Service struct {
	provider Provider
	timeout  time.Duration
	logger   arbor.ILogger
}

// NewService creates an expander over the given provider. A nil provider is
// valid and routes every expansion to the fallback templates.
func NewService(provider Provider, timeout time.Duration, logger arbor.ILogger) *Service {
	return &Service{
		provider: provider,
		timeout:  timeout,
		logger:   logger,
	}
}

type expansionPayload struct {
	SearchQueries []string `json:"search_queries"`
}

// Expand returns search queries for the company. LLM failures degrade to
// FallbackQueries, never to an error.
func (s *Service) Expand(ctx context.Context, companyName, industry string) ([]string, error) {
	if s.provider == nil {
		return FallbackQueries(companyName), nil
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if industry == "" {
		industry = "unspecified"
	}

	prompt := fmt.Sprintf(promptTemplate, companyName, industry)

	text, err := s.provider.GenerateText(ctx, systemPrompt, prompt)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("provider", s.provider.Name()).
			Str("company", companyName).
			Msg("Query expansion failed, using fallback queries")
		return FallbackQueries(companyName), nil
	}

	queries := parseQueries(text)
	if len(queries) == 0 {
		s.logger.Warn().
			Str("provider", s.provider.Name()).
			Msg("Query expansion returned no usable queries, using fallback")
		return FallbackQueries(companyName), nil
	}

	return queries, nil
}

// parseQueries extracts the query list from the model output, tolerating
// markdown code fences around the JSON.
func parseQueries(text string) []string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var payload expansionPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil
	}

	queries := make([]string, 0, len(payload.SearchQueries))
	for _, q := range payload.SearchQueries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		queries = append(queries, q)
		if len(queries) == maxQueries {
			break
		}
	}
	return queries
}

// FallbackQueries are the deterministic templates used when no LLM is
// available.
func FallbackQueries(companyName string) []string {
	return []string{
		companyName + " stock",
		companyName + " earnings",
		companyName + " price target",
		companyName + " news",
		companyName + " forecast",
	}
}
