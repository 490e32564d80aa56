package models

import "time"

// RawArticle is a news item as returned by the news source, before scoring.
type RawArticle struct {
	Title       string    `json:"title"`
	Summary     string    `json:"description"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}

// ScoredArticle is a news item with its sentiment classification attached.
// Ephemeral; produced and consumed within one pipeline run.
type ScoredArticle struct {
	RawArticle
	CompanyName string  `json:"company_name"`
	Ticker      string  `json:"ticker"`
	Sentiment   float64 `json:"sentiment"`
	Label       string  `json:"label"`
	Confidence  float64 `json:"confidence"`
}

// NewsBundle aggregates the scored articles of one pipeline run.
// AvgSentiment is the confidence-weighted mean of article sentiments,
// defined as 0 when total confidence is 0.
type NewsBundle struct {
	Articles     []ScoredArticle `json:"articles"`
	AvgSentiment float64         `json:"avg_sentiment"`
}
