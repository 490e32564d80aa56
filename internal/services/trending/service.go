// Package trending serves the daily top-movers snapshot, refreshed from the
// upstream source once per TTL and cached in storage between refreshes.
package trending

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hypr/internal/interfaces"
	"github.com/ternarybob/hypr/internal/models"
)

// Service owns the trending snapshot lifecycle.
type Service struct {
	source  interfaces.TrendingSource
	storage interfaces.TrendingStorage
	ttl     time.Duration
	logger  arbor.ILogger
	now     func() time.Time
}

// NewService creates a trending service.
func NewService(source interfaces.TrendingSource, storage interfaces.TrendingStorage, ttl time.Duration, logger arbor.ILogger) *Service {
	return &Service{
		source:  source,
		storage: storage,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

// Get returns the current snapshot, refreshing it when the stored one is
// older than the TTL or absent. When a refresh fails but a stale snapshot
// exists, the stale snapshot is served.
func (s *Service) Get(ctx context.Context) (*models.TrendingSnapshot, error) {
	stored, err := s.storage.Get(ctx)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return nil, fmt.Errorf("failed to read trending snapshot: %w", err)
	}

	if stored != nil && s.now().UTC().Sub(stored.LastUpdated) < s.ttl {
		return stored, nil
	}

	fresh, err := s.source.Fetch(ctx)
	if err != nil {
		if stored != nil {
			s.logger.Warn().Err(err).Msg("Trending refresh failed, serving stale snapshot")
			return stored, nil
		}
		return nil, fmt.Errorf("failed to fetch trending data: %w", err)
	}

	if err := s.storage.Save(ctx, fresh); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to persist trending snapshot")
	}

	s.logger.Info().
		Int("gainers", len(fresh.TopGainers)).
		Int("losers", len(fresh.TopLosers)).
		Msg("Trending snapshot refreshed")
	return fresh, nil
}
