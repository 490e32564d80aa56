package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/hypr/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ProfileStorage persists company profiles keyed by ticker. No TTL.
type ProfileStorage interface {
	Get(ctx context.Context, ticker string) (*models.CompanyProfile, error)
	Save(ctx context.Context, profile *models.CompanyProfile) error
}

// AnalysisStorage persists analysis results. Rows are superseded by fresh
// inserts, never mutated; Latest returns the most recent row for a ticker.
type AnalysisStorage interface {
	Latest(ctx context.Context, ticker string) (*models.AnalysisResult, error)
	Insert(ctx context.Context, result *models.AnalysisResult) error
}

// QuoteStorage persists the live quote rows, keyed by ticker and overwritten
// each broadcast tick.
type QuoteStorage interface {
	Upsert(ctx context.Context, quotes []models.PopularQuote) error
	Recent(ctx context.Context, limit int) ([]models.PopularQuote, error)
}

// TrendingStorage persists the singleton trending snapshot.
type TrendingStorage interface {
	Get(ctx context.Context) (*models.TrendingSnapshot, error)
	Save(ctx context.Context, snapshot *models.TrendingSnapshot) error
}

// StorageManager aggregates the typed storages over one database handle.
type StorageManager interface {
	Profiles() ProfileStorage
	Analyses() AnalysisStorage
	Quotes() QuoteStorage
	Trending() TrendingStorage
	Close() error
}
