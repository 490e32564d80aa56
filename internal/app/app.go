package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hypr/internal/alphavantage"
	"github.com/ternarybob/hypr/internal/bluesky"
	"github.com/ternarybob/hypr/internal/common"
	"github.com/ternarybob/hypr/internal/finnhub"
	"github.com/ternarybob/hypr/internal/handlers"
	"github.com/ternarybob/hypr/internal/interfaces"
	"github.com/ternarybob/hypr/internal/reddit"
	"github.com/ternarybob/hypr/internal/services/analysis"
	"github.com/ternarybob/hypr/internal/services/classifier"
	"github.com/ternarybob/hypr/internal/services/expander"
	"github.com/ternarybob/hypr/internal/services/quotes"
	"github.com/ternarybob/hypr/internal/services/scoring"
	"github.com/ternarybob/hypr/internal/services/trending"
	badgerstore "github.com/ternarybob/hypr/internal/storage/badger"
	"github.com/ternarybob/hypr/internal/yahoo"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager
	cron           *cron.Cron

	// External collaborators
	Finnhub    *finnhub.Client
	Yahoo      *yahoo.Client
	Classifier interfaces.SentimentClassifier

	// Core services
	AnalysisService  *analysis.Service
	QuoteBroadcaster *quotes.Broadcaster
	TrendingService  *trending.Service

	// HTTP handlers
	APIHandler         *handlers.APIHandler
	AnalyzeHandler     *handlers.AnalyzeHandler
	QuotesHandler      *handlers.QuotesHandler
	PassthroughHandler *handlers.PassthroughHandler
	TrendingHandler    *handlers.TrendingHandler
	WSHandler          *handlers.WebSocketHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize database
	storageManager, err := badgerstore.NewManager(logger, &cfg.Storage.Badger, cfg.Pipeline.RetentionDays)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.StorageManager = storageManager

	// Initialize external clients
	app.Finnhub = finnhub.NewClient(cfg.Finnhub.APIKey,
		finnhub.WithBaseURL(cfg.Finnhub.BaseURL),
		finnhub.WithHTTPClient(&http.Client{Timeout: cfg.Finnhub.Timeout}),
		finnhub.WithRateLimit(cfg.Finnhub.RateLimit),
		finnhub.WithLogger(logger))

	app.Yahoo = yahoo.NewClient(
		yahoo.WithBaseURL(cfg.Yahoo.BaseURL),
		yahoo.WithHTTPClient(&http.Client{Timeout: cfg.Yahoo.Timeout}),
		yahoo.WithLogger(logger))

	app.Classifier = classifier.NewClient(cfg.Classifier.URL,
		classifier.WithHTTPClient(&http.Client{Timeout: cfg.Classifier.Timeout}),
		classifier.WithMaxConcurrent(cfg.Classifier.MaxConcurrent),
		classifier.WithLogger(logger))

	// Social sources. A source without credentials is skipped, not fatal:
	// the pipeline treats the social stage as best-effort.
	var socialSources []interfaces.SocialSource
	if cfg.Reddit.ClientID != "" && cfg.Reddit.ClientSecret != "" {
		socialSources = append(socialSources, reddit.NewClient(cfg.Reddit.ClientID, cfg.Reddit.ClientSecret,
			reddit.WithUserAgent(cfg.Reddit.UserAgent),
			reddit.WithSubreddits(cfg.Reddit.Subreddits),
			reddit.WithLogger(logger)))
	} else {
		logger.Warn().Msg("Reddit credentials not configured, source disabled")
	}
	if cfg.Bluesky.Identifier != "" && cfg.Bluesky.Password != "" {
		socialSources = append(socialSources, bluesky.NewClient(cfg.Bluesky.Identifier, cfg.Bluesky.Password,
			bluesky.WithBaseURL(cfg.Bluesky.BaseURL),
			bluesky.WithLogger(logger)))
	} else {
		logger.Warn().Msg("Bluesky credentials not configured, source disabled")
	}

	// Query expansion. Without a provider key the expander still works off
	// its fixed query templates.
	var provider expander.Provider
	if p, err := expander.NewProvider(cfg, logger); err != nil {
		logger.Warn().Err(err).Msg("LLM provider unavailable, using fallback query templates")
	} else {
		provider = p
	}
	queryExpander := expander.NewService(provider, cfg.LLM.Timeout, logger)

	// Scoring and pipeline
	engine := scoring.NewEngine(logger)
	app.AnalysisService = analysis.NewService(analysis.Sources{
		Profile:    app.Finnhub,
		History:    app.Yahoo,
		News:       app.Finnhub,
		Social:     socialSources,
		Expander:   queryExpander,
		Classifier: app.Classifier,
	}, storageManager, engine, &cfg.Pipeline, &cfg.Yahoo, logger)

	// Quote broadcaster
	registry := quotes.NewRegistry(cfg.Quotes.MaxSubscribers, logger)
	app.QuoteBroadcaster = quotes.NewBroadcaster(app.Finnhub, storageManager.Quotes(), registry, &cfg.Quotes, logger)

	// Trending snapshot
	trendingSource := alphavantage.NewClient(cfg.Trending.AlphaVantageKey,
		alphavantage.WithBaseURL(cfg.Trending.BaseURL),
		alphavantage.WithLogger(logger))
	app.TrendingService = trending.NewService(trendingSource, storageManager.Trending(), cfg.Trending.TTL, logger)

	// HTTP handlers
	app.APIHandler = handlers.NewAPIHandler(app.Classifier, logger)
	app.AnalyzeHandler = handlers.NewAnalyzeHandler(app.AnalysisService, logger)
	app.QuotesHandler = handlers.NewQuotesHandler(app.QuoteBroadcaster, logger)
	app.PassthroughHandler = handlers.NewPassthroughHandler(app.Finnhub, app.Yahoo, app.Finnhub, cfg, logger)
	app.TrendingHandler = handlers.NewTrendingHandler(app.TrendingService, logger)
	app.WSHandler = handlers.NewWebSocketHandler(app.QuoteBroadcaster, logger)

	// The classifier is best-effort: when the sidecar is down the pipeline
	// scores with neutral sentiment. Probe once so the operator sees it.
	probeCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if app.Classifier.Ready(probeCtx) {
		logger.Info().Str("url", cfg.Classifier.URL).Msg("Sentiment classifier ready")
	} else {
		logger.Warn().Str("url", cfg.Classifier.URL).Msg("Sentiment classifier not reachable, sentiment will default to neutral")
	}

	logger.Info().
		Int("social_sources", len(socialSources)).
		Int("popular_symbols", len(cfg.Quotes.Symbols)).
		Msg("Application initialized")

	return app, nil
}

// StartBackground starts the quote broadcaster tick and the daily trending
// snapshot refresh.
func (a *App) StartBackground() error {
	if err := a.QuoteBroadcaster.Start(); err != nil {
		return fmt.Errorf("failed to start quote broadcaster: %w", err)
	}

	a.cron = cron.New()
	if _, err := a.cron.AddFunc("@daily", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := a.TrendingService.Get(ctx); err != nil {
			a.Logger.Warn().Err(err).Msg("Scheduled trending refresh failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule trending refresh: %w", err)
	}
	a.cron.Start()

	return nil
}

// Close shuts down background work and releases resources.
func (a *App) Close() error {
	a.QuoteBroadcaster.Stop()
	if a.cron != nil {
		<-a.cron.Stop().Done()
	}

	if err := a.StorageManager.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}

	a.Logger.Info().Msg("Application closed")
	return nil
}
