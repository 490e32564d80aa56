package badger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hypr/internal/interfaces"
	"github.com/ternarybob/hypr/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// AnalysisStorage implements interfaces.AnalysisStorage for Badger.
// Each run inserts a new row; Latest selects by recency. Rows older than the
// retention window are pruned on insert so the table stays bounded.
type AnalysisStorage struct {
	db        *BadgerDB
	logger    arbor.ILogger
	retention time.Duration
}

// NewAnalysisStorage creates a new AnalysisStorage instance
func NewAnalysisStorage(db *BadgerDB, logger arbor.ILogger, retention time.Duration) interfaces.AnalysisStorage {
	return &AnalysisStorage{
		db:        db,
		logger:    logger,
		retention: retention,
	}
}

func analysisKey(ticker string, lastRun time.Time) string {
	return fmt.Sprintf("analysis:%s:%d", strings.ToUpper(ticker), lastRun.UTC().UnixNano())
}

// Latest returns the most recent analysis result for a ticker
func (s *AnalysisStorage) Latest(ctx context.Context, ticker string) (*models.AnalysisResult, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	var results []models.AnalysisResult
	err := s.db.Store().Find(&results,
		badgerhold.Where("Ticker").Eq(ticker).Index("Ticker").SortBy("LastRun").Reverse().Limit(1))
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis results: %w", err)
	}
	if len(results) == 0 {
		return nil, interfaces.ErrNotFound
	}
	return &results[0], nil
}

// Insert stores a new analysis row and prunes expired rows for the same ticker
func (s *AnalysisStorage) Insert(ctx context.Context, result *models.AnalysisResult) error {
	if err := s.db.Store().Insert(analysisKey(result.Ticker, result.LastRun), result); err != nil {
		return fmt.Errorf("failed to insert analysis result: %w", err)
	}

	s.logger.Debug().
		Str("ticker", result.Ticker).
		Str("last_run", result.LastRun.Format(time.RFC3339)).
		Msg("Analysis result stored")

	s.prune(result.Ticker, result.LastRun)
	return nil
}

// prune deletes superseded rows outside the retention window. Failures are
// logged, not surfaced: retention is best-effort housekeeping.
func (s *AnalysisStorage) prune(ticker string, now time.Time) {
	if s.retention <= 0 {
		return
	}

	cutoff := now.Add(-s.retention)
	err := s.db.Store().DeleteMatching(&models.AnalysisResult{},
		badgerhold.Where("Ticker").Eq(ticker).Index("Ticker").And("LastRun").Lt(cutoff))
	if err != nil && err != badgerhold.ErrNotFound {
		s.logger.Warn().Err(err).Str("ticker", ticker).Msg("Failed to prune expired analysis rows")
	}
}
