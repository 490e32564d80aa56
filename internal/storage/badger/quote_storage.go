package badger

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hypr/internal/interfaces"
	"github.com/ternarybob/hypr/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// QuoteStorage implements interfaces.QuoteStorage for Badger.
// One row per ticker, overwritten each broadcast tick.
type QuoteStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewQuoteStorage creates a new QuoteStorage instance
func NewQuoteStorage(db *BadgerDB, logger arbor.ILogger) interfaces.QuoteStorage {
	return &QuoteStorage{
		db:     db,
		logger: logger,
	}
}

func quoteKey(ticker string) string {
	return "quote:" + strings.ToUpper(strings.TrimSpace(ticker))
}

// Upsert writes one row per quote, keyed by ticker
func (s *QuoteStorage) Upsert(ctx context.Context, quotes []models.PopularQuote) error {
	for i := range quotes {
		q := quotes[i]
		if err := s.db.Store().Upsert(quoteKey(q.Ticker), &q); err != nil {
			return fmt.Errorf("failed to upsert quote for %s: %w", q.Ticker, err)
		}
	}
	return nil
}

// Recent returns up to limit rows ordered by UpdatedAt descending
func (s *QuoteStorage) Recent(ctx context.Context, limit int) ([]models.PopularQuote, error) {
	var quotes []models.PopularQuote
	err := s.db.Store().Find(&quotes,
		badgerhold.Where("Ticker").Ne("").SortBy("UpdatedAt").Reverse().Limit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query quotes: %w", err)
	}
	return quotes, nil
}
