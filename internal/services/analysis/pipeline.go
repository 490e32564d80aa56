// Package analysis orchestrates the per-ticker hype analysis: a staged,
// progress-emitting pipeline from cache check through external fetches to
// scoring and persistence. Stages run strictly in order; news, query
// expansion and social stages degrade softly, while an unknown ticker or
// missing price history ends the run.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hypr/internal/common"
	"github.com/ternarybob/hypr/internal/interfaces"
	"github.com/ternarybob/hypr/internal/models"
	"github.com/ternarybob/hypr/internal/services/scoring"
)

// Sources groups the external collaborators the pipeline pulls from.
type Sources struct {
	Profile    interfaces.ProfileSource
	History    interfaces.HistorySource
	News       interfaces.NewsSource
	Social     []interfaces.SocialSource
	Expander   interfaces.QueryExpander
	Classifier interfaces.SentimentClassifier
}

// Service runs analysis pipelines. Concurrent runs for different tickers are
// independent; runs for the same ticker are serialized by a per-key lock so
// the second caller finds the first caller's result in cache.
type Service struct {
	sources  Sources
	storage  interfaces.StorageManager
	engine   *scoring.Engine
	config   *common.PipelineConfig
	period   string
	interval string
	logger   arbor.ILogger
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a pipeline service.
func NewService(sources Sources, storage interfaces.StorageManager, engine *scoring.Engine, config *common.PipelineConfig, yahoo *common.YahooConfig, logger arbor.ILogger) *Service {
	return &Service{
		sources:  sources,
		storage:  storage,
		engine:   engine,
		config:   config,
		period:   yahoo.Period,
		interval: yahoo.Interval,
		logger:   logger,
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
}

// tickerLock returns the mutex serializing runs for one ticker.
func (s *Service) tickerLock(ticker string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[ticker]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[ticker] = l
	return l
}

// Run executes the pipeline for one request and returns its progress stream.
// The stream is strictly ordered and terminated by a step=complete event.
// The caller must drain the channel; the pipeline does not observe consumer
// departure and always runs its persist stage to completion.
func (s *Service) Run(ctx context.Context, req models.AnalysisRequest) <-chan models.ProgressEvent {
	events := make(chan models.ProgressEvent, 16)

	go func() {
		defer close(events)
		s.run(ctx, req, events)
	}()

	return events
}

func (s *Service) run(ctx context.Context, req models.AnalysisRequest, events chan<- models.ProgressEvent) {
	ticker := req.NormalizedSymbol()
	log := s.logger.WithCorrelationId(uuid.New().String())

	emit := func(step, status, message string, data *models.AnalysisResult) {
		events <- models.ProgressEvent{Step: step, Status: status, Message: message, Data: data}
	}

	log.Info().Str("ticker", ticker).Bool("force_refresh", req.ForceRefresh).Msg("Analysis run started")

	// Stage 1: cache check. The per-ticker lock is taken before the lookup so
	// a request arriving during another run for the same ticker waits and
	// then finds that run's result fresh in cache.
	emit(models.StepCache, models.StatusStarted, fmt.Sprintf("Checking cached analysis for %s", ticker), nil)

	lock := s.tickerLock(ticker)
	lock.Lock()
	defer lock.Unlock()

	if cached := s.checkCache(ctx, ticker, req.ForceRefresh, emit); cached != nil {
		emit(models.StepComplete, models.StatusSuccess, "Serving cached analysis", cached)
		return
	}

	// Stage 2: company profile. Unknown ticker is a hard stop.
	emit(models.StepCompany, models.StatusStarted, "Resolving company profile", nil)
	profile, err := s.resolveProfile(ctx, ticker)
	if err != nil {
		if errors.Is(err, interfaces.ErrUnknownTicker) {
			emit(models.StepCompany, models.StatusError, fmt.Sprintf("Unknown ticker %s", ticker), nil)
			emit(models.StepComplete, models.StatusError, fmt.Sprintf("Unknown ticker %s", ticker), nil)
			return
		}
		emit(models.StepCompany, models.StatusError, "Company profile lookup failed", nil)
		emit(models.StepComplete, models.StatusError, fmt.Sprintf("Company profile lookup failed: %v", err), nil)
		return
	}
	emit(models.StepCompany, models.StatusSuccess, fmt.Sprintf("Resolved %s", profile.Name), nil)

	// Stage 3: financial snapshot. Missing history is a hard stop.
	emit(models.StepFinancial, models.StatusStarted, "Fetching price history", nil)
	financial, err := s.fetchFinancial(ctx, ticker)
	if err != nil {
		emit(models.StepFinancial, models.StatusError, "No historical price data", nil)
		emit(models.StepComplete, models.StatusError, fmt.Sprintf("No historical data for %s", ticker), nil)
		return
	}
	emit(models.StepFinancial, models.StatusSuccess,
		fmt.Sprintf("Fetched %d bars, last close %.2f", len(financial.History), financial.CurrentPrice), nil)

	// Stage 4: news. Soft degrade to an empty bundle.
	emit(models.StepNews, models.StatusStarted, "Fetching and scoring news", nil)
	news, err := s.fetchNews(ctx, ticker, profile.Name)
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("News stage degraded")
		emit(models.StepNews, models.StatusWarning, "News unavailable, continuing without articles", nil)
		news = &models.NewsBundle{}
	} else {
		emit(models.StepNews, models.StatusSuccess, fmt.Sprintf("Scored %d articles", len(news.Articles)), nil)
	}

	// Stage 5: query expansion. Never aborts.
	emit(models.StepKeywords, models.StatusStarted, "Expanding search queries", nil)
	queries := s.expandQueries(ctx, profile)
	emit(models.StepKeywords, models.StatusSuccess, fmt.Sprintf("Using %d search queries", len(queries)), nil)

	// Stage 6: social scrape. Sources run concurrently; an empty result set
	// is valid.
	emit(models.StepSocial, models.StatusStarted, "Searching social platforms", nil)
	social := s.fetchSocial(ctx, queries)
	emit(models.StepSocial, models.StatusSuccess,
		fmt.Sprintf("Scored %d posts across %d platforms", social.TotalPosts, len(s.sources.Social)), nil)

	// Stage 7: scoring.
	emit(models.StepMetrics, models.StatusStarted, "Computing hype metrics", nil)
	scores := s.engine.Score(financial, news, social, s.now())
	emit(models.StepMetrics, models.StatusSuccess,
		fmt.Sprintf("Hype index %.1f, signal %s", scores.HypeIndex, scores.TradingSignal), nil)

	result := &models.AnalysisResult{
		Ticker:          ticker,
		CompanyInfo:     *profile,
		FinancialData:   *financial,
		NewsData:        *news,
		ExpandedQueries: queries,
		SocialData:      *social,
		Scores:          scores,
		LastRun:         s.now().UTC(),
	}

	// Stage 8: persist. A storage failure still delivers the computed result.
	if err := s.storage.Analyses().Insert(ctx, result); err != nil {
		log.Error().Err(err).Str("ticker", ticker).Msg("Failed to persist analysis result")
		emit(models.StepComplete, models.StatusError,
			fmt.Sprintf("Analysis computed but could not be saved: %v", err), result)
		return
	}

	log.Info().Str("ticker", ticker).
		Float64("hype_index", scores.HypeIndex).
		Str("signal", string(scores.TradingSignal)).
		Msg("Analysis run complete")

	emit(models.StepComplete, models.StatusSuccess, "Analysis complete", result)
}

// checkCache returns a result to serve directly, or nil to continue the run.
func (s *Service) checkCache(ctx context.Context, ticker string, forceRefresh bool, emit func(string, string, string, *models.AnalysisResult)) *models.AnalysisResult {
	if forceRefresh {
		emit(models.StepCache, models.StatusSuccess, "Refresh forced, skipping cache", nil)
		return nil
	}

	cached, err := s.storage.Analyses().Latest(ctx, ticker)
	if err != nil {
		if !errors.Is(err, interfaces.ErrNotFound) {
			s.logger.Warn().Err(err).Str("ticker", ticker).Msg("Cache lookup failed")
		}
		emit(models.StepCache, models.StatusSuccess, "No cached analysis, running full pipeline", nil)
		return nil
	}

	freshness := common.CheckFreshness(cached.LastRun, s.now(), s.config.FreshnessWindow)
	if freshness.IsFresh {
		emit(models.StepCache, models.StatusSuccess, freshness.Reason, nil)
		return cached
	}

	emit(models.StepCache, models.StatusSuccess, freshness.Reason, nil)
	return nil
}

// resolveProfile serves the profile from storage when present, otherwise from
// the profile source, persisting the result for next time.
func (s *Service) resolveProfile(ctx context.Context, ticker string) (*models.CompanyProfile, error) {
	if profile, err := s.storage.Profiles().Get(ctx, ticker); err == nil {
		return profile, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.StageTimeout)
	defer cancel()

	profile, err := s.sources.Profile.Resolve(ctx, ticker)
	if err != nil {
		return nil, err
	}

	if err := s.storage.Profiles().Save(ctx, profile); err != nil {
		s.logger.Warn().Err(err).Str("ticker", ticker).Msg("Failed to cache company profile")
	}
	return profile, nil
}

// fetchFinancial builds the snapshot from fresh history.
func (s *Service) fetchFinancial(ctx context.Context, ticker string) (*models.FinancialSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.StageTimeout)
	defer cancel()

	history, err := s.sources.History.Fetch(ctx, ticker, s.period, s.interval)
	if err != nil {
		return nil, err
	}
	if len(history.Candles) == 0 {
		return nil, interfaces.ErrNoHistory
	}

	return buildSnapshot(ticker, history), nil
}

// buildSnapshot derives the per-run financial picture from the candle series.
func buildSnapshot(ticker string, history *models.PriceHistory) *models.FinancialSnapshot {
	candles := history.Candles
	latest := candles[len(candles)-1]

	snapshot := &models.FinancialSnapshot{
		Ticker:       ticker,
		CurrentPrice: latest.Close,
		OpeningPrice: latest.Open,
		DailyHigh:    latest.High,
		DailyLow:     latest.Low,
		Volume:       latest.Volume,
		History:      candles,
		Description:  history.Description,
	}

	if len(candles) >= 2 {
		prev := candles[len(candles)-2].Close
		if prev != 0 {
			snapshot.PriceChangePct = (latest.Close - prev) / prev * 100
		}
	}

	snapshot.AnnualizedVolatility = annualizedVolatility(candles)
	return snapshot
}

// annualizedVolatility is the standard deviation of daily log-free returns
// scaled by sqrt(252 trading days). Zero when fewer than 3 bars exist.
func annualizedVolatility(candles []models.Candle) float64 {
	if len(candles) < 3 {
		return 0
	}

	returns := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		prev := candles[i-1].Close
		if prev == 0 {
			continue
		}
		returns = append(returns, (candles[i].Close-prev)/prev)
	}
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)

	return math.Sqrt(variance) * math.Sqrt(252)
}

// fetchNews pulls articles over the configured window and scores each one.
func (s *Service) fetchNews(ctx context.Context, ticker, companyName string) (*models.NewsBundle, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.StageTimeout)
	defer cancel()

	to := s.now().UTC()
	from := to.AddDate(0, 0, -s.config.NewsWindowDays)

	raw, err := s.sources.News.Search(ctx, ticker, from, to)
	if err != nil {
		return nil, err
	}
	if len(raw) > s.config.MaxArticles {
		raw = raw[:s.config.MaxArticles]
	}

	bundle := &models.NewsBundle{}
	var weightedSum, confidenceSum float64

	for _, article := range raw {
		sentiment := s.sources.Classifier.Classify(ctx, article.Title+" "+article.Summary)
		bundle.Articles = append(bundle.Articles, models.ScoredArticle{
			RawArticle:  article,
			CompanyName: companyName,
			Ticker:      ticker,
			Sentiment:   sentiment.Score,
			Label:       sentiment.Label,
			Confidence:  sentiment.Confidence,
		})
		weightedSum += sentiment.Score * sentiment.Confidence
		confidenceSum += sentiment.Confidence
	}

	if confidenceSum > 0 {
		bundle.AvgSentiment = weightedSum / confidenceSum
	}
	return bundle, nil
}

// expandQueries asks the expander, which itself falls back to deterministic
// templates; a nil expander or an error uses the same templates directly.
func (s *Service) expandQueries(ctx context.Context, profile *models.CompanyProfile) []string {
	ctx, cancel := context.WithTimeout(ctx, s.config.StageTimeout)
	defer cancel()

	if s.sources.Expander != nil {
		if queries, err := s.sources.Expander.Expand(ctx, profile.Name, profile.Industry); err == nil && len(queries) > 0 {
			return queries
		}
	}

	keywords := []string{"stock", "earnings", "price target", "news", "forecast"}
	queries := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		queries = append(queries, profile.Name+" "+kw)
	}
	return queries
}

// fetchSocial searches all social sources concurrently, merges in source
// order, scores every post and derives the bundle aggregates. Per-source
// failure leaves that source's slot empty without blocking the others.
func (s *Service) fetchSocial(ctx context.Context, queries []string) *models.SocialBundle {
	ctx, cancel := context.WithTimeout(ctx, s.config.StageTimeout)
	defer cancel()

	results := make([][]models.RawPost, len(s.sources.Social))
	var wg sync.WaitGroup

	for i, source := range s.sources.Social {
		wg.Add(1)
		go func(i int, source interfaces.SocialSource) {
			defer wg.Done()
			posts, err := source.Search(ctx, queries, s.config.SocialMaxResults)
			if err != nil {
				s.logger.Warn().Err(err).Str("platform", source.Name()).Msg("Social search failed")
				return
			}
			results[i] = posts
		}(i, source)
	}
	wg.Wait()

	bundle := &models.SocialBundle{}
	var sentimentSum float64

	for _, posts := range results {
		for _, post := range posts {
			sentiment := s.sources.Classifier.Classify(ctx, post.Text)
			bundle.Posts = append(bundle.Posts, models.ScoredPost{
				RawPost:    post,
				Sentiment:  sentiment.Score,
				Label:      sentiment.Label,
				Confidence: sentiment.Confidence,
			})
			sentimentSum += sentiment.Score
		}
	}

	bundle.TotalPosts = len(bundle.Posts)
	if bundle.TotalPosts > 0 {
		bundle.AvgSentiment = sentimentSum / float64(bundle.TotalPosts)
	}
	bundle.TopPosts = topByEngagement(bundle.Posts, 10)
	return bundle
}

// topByEngagement selects the n highest-engagement posts, ties broken by
// encounter order.
func topByEngagement(posts []models.ScoredPost, n int) []models.ScoredPost {
	sorted := make([]models.ScoredPost, len(posts))
	copy(sorted, posts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Engagement > sorted[j].Engagement
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
