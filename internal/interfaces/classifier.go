package interfaces

import (
	"context"

	"github.com/ternarybob/hypr/internal/models"
)

// SentimentClassifier scores free text. Implementations are process-wide
// shared state: loaded once at startup, read-only afterwards, and safe for
// concurrent invocation from multiple in-flight pipeline runs.
//
// Classify never fails hard: an unavailable backend yields the neutral
// default (0, "neutral", 0.5) so that callers degrade instead of aborting.
type SentimentClassifier interface {
	Classify(ctx context.Context, text string) models.Sentiment
	Ready(ctx context.Context) bool
}
