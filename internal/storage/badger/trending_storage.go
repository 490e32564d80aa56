package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hypr/internal/interfaces"
	"github.com/ternarybob/hypr/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

const trendingKey = "trending:current"

// TrendingStorage implements interfaces.TrendingStorage for Badger.
// A single snapshot row, replaced on each refresh.
type TrendingStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewTrendingStorage creates a new TrendingStorage instance
func NewTrendingStorage(db *BadgerDB, logger arbor.ILogger) interfaces.TrendingStorage {
	return &TrendingStorage{
		db:     db,
		logger: logger,
	}
}

// Get retrieves the current trending snapshot
func (s *TrendingStorage) Get(ctx context.Context) (*models.TrendingSnapshot, error) {
	var snapshot models.TrendingSnapshot
	err := s.db.Store().Get(trendingKey, &snapshot)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trending snapshot: %w", err)
	}
	return &snapshot, nil
}

// Save replaces the current trending snapshot
func (s *TrendingStorage) Save(ctx context.Context, snapshot *models.TrendingSnapshot) error {
	if err := s.db.Store().Upsert(trendingKey, snapshot); err != nil {
		return fmt.Errorf("failed to save trending snapshot: %w", err)
	}

	s.logger.Debug().Str("last_updated", snapshot.LastUpdated.Format(time.RFC3339)).Msg("Trending snapshot saved")
	return nil
}
