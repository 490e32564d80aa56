package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/hypr/internal/models"
)

// ErrUnknownTicker is returned by ProfileSource when a symbol cannot be
// resolved to a company. An unresolvable ticker is a hard stop for the
// pipeline: everything downstream depends on a valid identity.
var ErrUnknownTicker = errors.New("unknown ticker symbol")

// ErrNoHistory is returned by HistorySource when no OHLCV data exists for a
// symbol. Also a hard stop.
var ErrNoHistory = errors.New("no historical data")

// ProfileSource resolves a ticker to its company profile.
type ProfileSource interface {
	Resolve(ctx context.Context, ticker string) (*models.CompanyProfile, error)
}

// QuoteSource provides point-in-time quotes for single symbols.
type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (*models.PopularQuote, error)
}

// HistorySource provides OHLCV time series plus a company description.
type HistorySource interface {
	Fetch(ctx context.Context, ticker, period, interval string) (*models.PriceHistory, error)
}

// NewsSource searches headline/summary items for a ticker and date range.
type NewsSource interface {
	Search(ctx context.Context, ticker string, from, to time.Time) ([]models.RawArticle, error)
}

// SocialSource searches a social platform for posts matching the given queries.
// Implementations return at most limit posts per query and never block past
// the context deadline.
type SocialSource interface {
	Name() string
	Search(ctx context.Context, queries []string, limit int) ([]models.RawPost, error)
}

// QueryExpander turns a company name and industry into semantic search queries.
type QueryExpander interface {
	Expand(ctx context.Context, companyName, industry string) ([]string, error)
}

// TrendingSource fetches the daily top-movers snapshot.
type TrendingSource interface {
	Fetch(ctx context.Context) (*models.TrendingSnapshot, error)
}
