// Package quotes runs the popular-tickers feed: a fixed symbol set refreshed
// on a timer during market hours, read back from storage outside them, and
// fanned out to every connected subscriber.
package quotes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hypr/internal/common"
	"github.com/ternarybob/hypr/internal/interfaces"
	"github.com/ternarybob/hypr/internal/models"
)

// Broadcaster drives the quote feed. One instance per process, started at
// startup and stopped at shutdown.
type Broadcaster struct {
	source     interfaces.QuoteSource
	storage    interfaces.QuoteStorage
	registry   *Registry
	config     *common.QuotesConfig
	logger     arbor.ILogger
	cron       *cron.Cron
	marketOpen func(time.Time) bool
	now        func() time.Time
}

// NewBroadcaster creates a broadcaster over the given source and storage.
func NewBroadcaster(source interfaces.QuoteSource, storage interfaces.QuoteStorage, registry *Registry, config *common.QuotesConfig, logger arbor.ILogger) *Broadcaster {
	return &Broadcaster{
		source:     source,
		storage:    storage,
		registry:   registry,
		config:     config,
		logger:     logger,
		marketOpen: common.IsMarketOpen,
		now:        time.Now,
	}
}

// Start schedules the periodic tick. The schedule runs for the process
// lifetime; Stop cancels it.
func (b *Broadcaster) Start() error {
	seconds := int(b.config.Interval.Seconds())
	if seconds < 1 {
		seconds = 15
	}

	b.cron = cron.New(cron.WithSeconds())
	_, err := b.cron.AddFunc(fmt.Sprintf("*/%d * * * * *", seconds), func() {
		b.Tick(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule quote broadcast: %w", err)
	}

	b.cron.Start()
	b.logger.Info().
		Int("interval_seconds", seconds).
		Int("symbols", len(b.config.Symbols)).
		Msg("Quote broadcaster started")
	return nil
}

// Stop cancels the schedule and waits for a running tick to finish.
func (b *Broadcaster) Stop() {
	if b.cron != nil {
		<-b.cron.Stop().Done()
	}
	b.logger.Info().Msg("Quote broadcaster stopped")
}

// Registry exposes the subscriber registry for the connection handler.
func (b *Broadcaster) Registry() *Registry {
	return b.registry
}

// Tick collects the current quote set and fans it out. Exported so a tick can
// be driven directly in tests.
func (b *Broadcaster) Tick(ctx context.Context) {
	quotes, err := b.collect(ctx)
	if err != nil {
		b.logger.Warn().Err(err).Msg("Quote tick failed")
		return
	}
	b.registry.Broadcast(quotes)
}

// GetPopularQuotes returns the current quote set without broadcasting. The
// shape is identical in both market-hours branches.
func (b *Broadcaster) GetPopularQuotes(ctx context.Context) ([]models.PopularQuote, error) {
	return b.collect(ctx)
}

// collect fetches live quotes during market hours (persisting them), and
// reads back the most recent rows otherwise.
func (b *Broadcaster) collect(ctx context.Context) ([]models.PopularQuote, error) {
	if !b.marketOpen(b.now()) {
		quotes, err := b.storage.Recent(ctx, b.config.CachedLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to read cached quotes: %w", err)
		}
		return quotes, nil
	}

	quotes := b.fetchLive(ctx)
	if err := b.storage.Upsert(ctx, quotes); err != nil {
		b.logger.Warn().Err(err).Msg("Failed to persist live quotes")
	}
	return quotes, nil
}

// fetchLive pulls one quote per symbol concurrently. A failed symbol yields a
// row with null price fields rather than aborting the set.
func (b *Broadcaster) fetchLive(ctx context.Context) []models.PopularQuote {
	quotes := make([]models.PopularQuote, len(b.config.Symbols))
	var wg sync.WaitGroup

	for i, symbol := range b.config.Symbols {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()

			quote, err := b.source.Quote(ctx, symbol)
			if err != nil {
				b.logger.Debug().Err(err).Str("symbol", symbol).Msg("Quote fetch failed")
				quotes[i] = models.PopularQuote{
					Ticker:    symbol,
					UpdatedAt: b.now().UTC(),
				}
				return
			}
			quotes[i] = *quote
		}(i, symbol)
	}
	wg.Wait()

	return quotes
}
