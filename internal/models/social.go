package models

import "time"

// RawPost is a social media post as returned by a social source, before scoring.
type RawPost struct {
	Platform    string    `json:"platform"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Text        string    `json:"-"` // classification input, not persisted
	CreatedAt   time.Time `json:"created_at"`
	Username    string    `json:"username"`
	Likes       int       `json:"likes"`
	Comments    int       `json:"comments"`
	Engagement  int       `json:"engagement"`
	URL         string    `json:"url"`
	Subreddit   string    `json:"subreddit,omitempty"`
}

// ScoredPost is a social post with its sentiment classification attached.
type ScoredPost struct {
	RawPost
	Sentiment  float64 `json:"sentiment"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// SocialBundle aggregates the scored posts of one pipeline run.
// AvgSentiment is the unweighted mean across all posts; TopPosts holds the
// top 10 by engagement descending, ties broken by encounter order.
type SocialBundle struct {
	Posts        []ScoredPost `json:"posts"`
	TopPosts     []ScoredPost `json:"top_posts"`
	TotalPosts   int          `json:"total_posts"`
	AvgSentiment float64      `json:"avg_sentiment"`
}
