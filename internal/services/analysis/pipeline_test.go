package analysis

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hypr/internal/common"
	"github.com/ternarybob/hypr/internal/interfaces"
	"github.com/ternarybob/hypr/internal/models"
	"github.com/ternarybob/hypr/internal/services/scoring"
)

var testNow = time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC)

// --- collaborator mocks ---

type mockProfileSource struct {
	profile *models.CompanyProfile
	err     error
	calls   atomic.Int32
}

func (m *mockProfileSource) Resolve(ctx context.Context, ticker string) (*models.CompanyProfile, error) {
	m.calls.Add(1)
	return m.profile, m.err
}

type mockHistorySource struct {
	history *models.PriceHistory
	err     error
	calls   atomic.Int32
}

func (m *mockHistorySource) Fetch(ctx context.Context, ticker, period, interval string) (*models.PriceHistory, error) {
	m.calls.Add(1)
	return m.history, m.err
}

type mockNewsSource struct {
	articles []models.RawArticle
	err      error
	calls    atomic.Int32
}

func (m *mockNewsSource) Search(ctx context.Context, ticker string, from, to time.Time) ([]models.RawArticle, error) {
	m.calls.Add(1)
	return m.articles, m.err
}

type mockSocialSource struct {
	name  string
	posts []models.RawPost
	err   error
	delay time.Duration
}

func (m *mockSocialSource) Name() string { return m.name }

func (m *mockSocialSource) Search(ctx context.Context, queries []string, limit int) ([]models.RawPost, error) {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	return m.posts, m.err
}

type mockExpander struct {
	queries []string
	err     error
}

func (m *mockExpander) Expand(ctx context.Context, companyName, industry string) ([]string, error) {
	return m.queries, m.err
}

type mockClassifier struct{}

func (m *mockClassifier) Classify(ctx context.Context, text string) models.Sentiment {
	return models.Sentiment{Score: 0.5, Label: models.LabelPositive, Confidence: 0.8}
}

func (m *mockClassifier) Ready(ctx context.Context) bool { return true }

// --- storage mocks ---

type mockProfileStorage struct {
	profiles map[string]*models.CompanyProfile
}

func (m *mockProfileStorage) Get(ctx context.Context, ticker string) (*models.CompanyProfile, error) {
	if p, ok := m.profiles[ticker]; ok {
		return p, nil
	}
	return nil, interfaces.ErrNotFound
}

func (m *mockProfileStorage) Save(ctx context.Context, profile *models.CompanyProfile) error {
	m.profiles[profile.Ticker] = profile
	return nil
}

type mockAnalysisStorage struct {
	latest    *models.AnalysisResult
	inserted  []*models.AnalysisResult
	insertErr error
}

func (m *mockAnalysisStorage) Latest(ctx context.Context, ticker string) (*models.AnalysisResult, error) {
	if m.latest == nil {
		return nil, interfaces.ErrNotFound
	}
	return m.latest, nil
}

func (m *mockAnalysisStorage) Insert(ctx context.Context, result *models.AnalysisResult) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = append(m.inserted, result)
	return nil
}

type mockQuoteStorage struct{}

func (m *mockQuoteStorage) Upsert(ctx context.Context, quotes []models.PopularQuote) error {
	return nil
}

func (m *mockQuoteStorage) Recent(ctx context.Context, limit int) ([]models.PopularQuote, error) {
	return nil, nil
}

type mockTrendingStorage struct{}

func (m *mockTrendingStorage) Get(ctx context.Context) (*models.TrendingSnapshot, error) {
	return nil, interfaces.ErrNotFound
}

func (m *mockTrendingStorage) Save(ctx context.Context, snapshot *models.TrendingSnapshot) error {
	return nil
}

type mockStorage struct {
	profiles *mockProfileStorage
	analyses *mockAnalysisStorage
}

func newMockStorage() *mockStorage {
	return &mockStorage{
		profiles: &mockProfileStorage{profiles: make(map[string]*models.CompanyProfile)},
		analyses: &mockAnalysisStorage{},
	}
}

func (m *mockStorage) Profiles() interfaces.ProfileStorage  { return m.profiles }
func (m *mockStorage) Analyses() interfaces.AnalysisStorage { return m.analyses }
func (m *mockStorage) Quotes() interfaces.QuoteStorage      { return &mockQuoteStorage{} }
func (m *mockStorage) Trending() interfaces.TrendingStorage { return &mockTrendingStorage{} }
func (m *mockStorage) Close() error                         { return nil }

// --- fixtures ---

func testHistory(days int) *models.PriceHistory {
	history := &models.PriceHistory{Description: "test company"}
	for i := 0; i < days; i++ {
		history.Candles = append(history.Candles, models.Candle{
			Date:   testNow.AddDate(0, 0, i-days),
			Open:   99 + float64(i),
			High:   101 + float64(i),
			Low:    98 + float64(i),
			Close:  100 + float64(i),
			Volume: 1000,
		})
	}
	return history
}

func testProfile() *models.CompanyProfile {
	return &models.CompanyProfile{
		Name:     "Apple Inc",
		Ticker:   "AAPL",
		Industry: "Technology",
	}
}

type fixture struct {
	profile *mockProfileSource
	history *mockHistorySource
	news    *mockNewsSource
	reddit  *mockSocialSource
	bluesky *mockSocialSource
	storage *mockStorage
	service *Service
}

func newFixture() *fixture {
	f := &fixture{
		profile: &mockProfileSource{profile: testProfile()},
		history: &mockHistorySource{history: testHistory(25)},
		news: &mockNewsSource{articles: []models.RawArticle{
			{Title: "Apple beats estimates", PublishedAt: testNow},
		}},
		reddit: &mockSocialSource{name: "reddit", posts: []models.RawPost{
			{Platform: "reddit", Text: "AAPL up big", Engagement: 100, CreatedAt: testNow},
		}},
		bluesky: &mockSocialSource{name: "bluesky", posts: []models.RawPost{
			{Platform: "bluesky", Text: "apple stock", Engagement: 0, CreatedAt: testNow},
		}},
		storage: newMockStorage(),
	}

	config := &common.PipelineConfig{
		FreshnessWindow:  time.Hour,
		StageTimeout:     5 * time.Second,
		NewsWindowDays:   2,
		MaxArticles:      20,
		SocialPostTarget: 20,
		SocialMaxResults: 30,
	}
	yahoo := &common.YahooConfig{Period: "1mo", Interval: "1d"}

	sources := Sources{
		Profile:    f.profile,
		History:    f.history,
		News:       f.news,
		Social:     []interfaces.SocialSource{f.reddit, f.bluesky},
		Expander:   &mockExpander{queries: []string{"Apple stock"}},
		Classifier: &mockClassifier{},
	}

	logger := arbor.NewLogger()
	f.service = NewService(sources, f.storage, scoring.NewEngine(logger), config, yahoo, logger)
	f.service.now = func() time.Time { return testNow }
	return f
}

func drain(t *testing.T, events <-chan models.ProgressEvent) []models.ProgressEvent {
	t.Helper()
	var all []models.ProgressEvent
	for e := range events {
		all = append(all, e)
	}
	require.NotEmpty(t, all, "stream must not be empty")
	last := all[len(all)-1]
	require.True(t, last.Terminal(), "stream must end with a complete event, got %s/%s", last.Step, last.Status)
	return all
}

// --- tests ---

func TestRunFreshCacheHitMakesNoCollaboratorCalls(t *testing.T) {
	f := newFixture()
	f.storage.analyses.latest = &models.AnalysisResult{
		Ticker:  "AAPL",
		Scores:  models.ScoreSet{HypeIndex: 61.5, TradingSignal: models.SignalHold},
		LastRun: testNow.Add(-10 * time.Minute),
	}

	events := drain(t, f.service.Run(context.Background(), models.AnalysisRequest{Symbol: "aapl"}))

	last := events[len(events)-1]
	assert.Equal(t, models.StatusSuccess, last.Status)
	require.NotNil(t, last.Data)
	assert.Equal(t, 61.5, last.Data.Scores.HypeIndex)

	assert.Zero(t, f.profile.calls.Load(), "cache hit must not call the profile source")
	assert.Zero(t, f.history.calls.Load(), "cache hit must not call the history source")
	assert.Zero(t, f.news.calls.Load(), "cache hit must not call the news source")
	assert.Empty(t, f.storage.analyses.inserted, "cache hit must not write")
}

func TestRunForceRefreshIgnoresFreshCache(t *testing.T) {
	f := newFixture()
	f.storage.analyses.latest = &models.AnalysisResult{
		Ticker:  "AAPL",
		LastRun: testNow.Add(-10 * time.Minute),
	}

	events := drain(t, f.service.Run(context.Background(), models.AnalysisRequest{Symbol: "AAPL", ForceRefresh: true}))

	assert.Equal(t, int32(1), f.history.calls.Load(), "force refresh must fetch history")
	assert.Equal(t, int32(1), f.news.calls.Load(), "force refresh must fetch news")
	assert.Len(t, f.storage.analyses.inserted, 1, "force refresh must persist a new row")

	last := events[len(events)-1]
	assert.Equal(t, models.StatusSuccess, last.Status)
}

func TestRunStaleCacheRecomputes(t *testing.T) {
	f := newFixture()
	f.storage.analyses.latest = &models.AnalysisResult{
		Ticker:  "AAPL",
		LastRun: testNow.Add(-2 * time.Hour),
	}

	drain(t, f.service.Run(context.Background(), models.AnalysisRequest{Symbol: "AAPL"}))

	assert.Equal(t, int32(1), f.history.calls.Load())
	assert.Len(t, f.storage.analyses.inserted, 1)
}

func TestRunUnknownTickerHardStop(t *testing.T) {
	f := newFixture()
	f.profile.profile = nil
	f.profile.err = interfaces.ErrUnknownTicker

	events := drain(t, f.service.Run(context.Background(), models.AnalysisRequest{Symbol: "ZZZZ9"}))

	var sawCompanyError bool
	for _, e := range events {
		if e.Step == models.StepCompany && e.Status == models.StatusError {
			sawCompanyError = true
		}
	}
	assert.True(t, sawCompanyError, "expected company_info/error event")

	last := events[len(events)-1]
	assert.Equal(t, models.StatusError, last.Status)
	assert.Nil(t, last.Data)

	assert.Zero(t, f.history.calls.Load(), "hard stop must not reach the history stage")
	assert.Empty(t, f.storage.analyses.inserted, "hard stop must not persist")
}

func TestRunNoHistoryHardStop(t *testing.T) {
	f := newFixture()
	f.history.history = nil
	f.history.err = interfaces.ErrNoHistory

	events := drain(t, f.service.Run(context.Background(), models.AnalysisRequest{Symbol: "AAPL"}))

	last := events[len(events)-1]
	assert.Equal(t, models.StatusError, last.Status)
	assert.Zero(t, f.news.calls.Load(), "hard stop must not reach the news stage")
	assert.Empty(t, f.storage.analyses.inserted)
}

func TestRunNewsFailureDegradesSoftly(t *testing.T) {
	f := newFixture()
	f.news.articles = nil
	f.news.err = errors.New("news source down")

	events := drain(t, f.service.Run(context.Background(), models.AnalysisRequest{Symbol: "AAPL"}))

	var sawNewsWarning bool
	for _, e := range events {
		if e.Step == models.StepNews && e.Status == models.StatusWarning {
			sawNewsWarning = true
		}
	}
	assert.True(t, sawNewsWarning, "expected news/warning event")

	last := events[len(events)-1]
	assert.Equal(t, models.StatusSuccess, last.Status)
	require.NotNil(t, last.Data)
	assert.Empty(t, last.Data.NewsData.Articles)
	assert.Len(t, f.storage.analyses.inserted, 1, "degraded run must still persist")
}

func TestRunSocialFailureDoesNotPoisonOtherSource(t *testing.T) {
	f := newFixture()
	f.reddit.posts = nil
	f.reddit.err = errors.New("reddit down")

	events := drain(t, f.service.Run(context.Background(), models.AnalysisRequest{Symbol: "AAPL"}))

	last := events[len(events)-1]
	require.NotNil(t, last.Data)
	require.Len(t, last.Data.SocialData.Posts, 1)
	assert.Equal(t, "bluesky", last.Data.SocialData.Posts[0].Platform)
}

func TestRunSocialMergeOrderIsSourceOrder(t *testing.T) {
	f := newFixture()
	// Reddit is slower but must still come first in the merged bundle
	f.reddit.delay = 50 * time.Millisecond

	events := drain(t, f.service.Run(context.Background(), models.AnalysisRequest{Symbol: "AAPL"}))

	last := events[len(events)-1]
	require.NotNil(t, last.Data)
	require.Len(t, last.Data.SocialData.Posts, 2)
	assert.Equal(t, "reddit", last.Data.SocialData.Posts[0].Platform)
	assert.Equal(t, "bluesky", last.Data.SocialData.Posts[1].Platform)
}

func TestRunPersistFailureStillDeliversResult(t *testing.T) {
	f := newFixture()
	f.storage.analyses.insertErr = errors.New("disk full")

	events := drain(t, f.service.Run(context.Background(), models.AnalysisRequest{Symbol: "AAPL"}))

	last := events[len(events)-1]
	assert.Equal(t, models.StatusError, last.Status)
	require.NotNil(t, last.Data, "computed result must ride the error event")
	assert.Equal(t, "AAPL", last.Data.Ticker)
}

func TestRunExpanderFailureUsesFallbackQueries(t *testing.T) {
	f := newFixture()
	f.service.sources.Expander = &mockExpander{err: errors.New("llm quota")}

	events := drain(t, f.service.Run(context.Background(), models.AnalysisRequest{Symbol: "AAPL"}))

	last := events[len(events)-1]
	require.NotNil(t, last.Data)
	assert.Equal(t, []string{
		"Apple Inc stock",
		"Apple Inc earnings",
		"Apple Inc price target",
		"Apple Inc news",
		"Apple Inc forecast",
	}, last.Data.ExpandedQueries)
}

func TestRunEventOrdering(t *testing.T) {
	f := newFixture()

	events := drain(t, f.service.Run(context.Background(), models.AnalysisRequest{Symbol: "AAPL"}))

	wantSteps := []string{
		models.StepCache, models.StepCompany, models.StepFinancial,
		models.StepNews, models.StepKeywords, models.StepSocial,
		models.StepMetrics, models.StepComplete,
	}

	// Each stage's started event appears, in order
	idx := 0
	for _, e := range events {
		if idx < len(wantSteps) && e.Step == wantSteps[idx] {
			idx++
		}
	}
	assert.Equal(t, len(wantSteps), idx, "stages out of order: %+v", events)
}

func TestRunConcurrentSameTickerSecondServesCache(t *testing.T) {
	f := newFixture()

	first := drain(t, f.service.Run(context.Background(), models.AnalysisRequest{Symbol: "AAPL"}))
	require.Equal(t, models.StatusSuccess, first[len(first)-1].Status)

	// The mock returns the inserted row as latest from now on
	f.storage.analyses.latest = f.storage.analyses.inserted[0]
	callsAfterFirst := f.history.calls.Load()

	second := drain(t, f.service.Run(context.Background(), models.AnalysisRequest{Symbol: "AAPL"}))
	assert.Equal(t, models.StatusSuccess, second[len(second)-1].Status)
	assert.Equal(t, callsAfterFirst, f.history.calls.Load(), "second run must be a cache hit")
}

func TestBuildSnapshot(t *testing.T) {
	history := testHistory(25)
	snapshot := buildSnapshot("AAPL", history)

	assert.Equal(t, "AAPL", snapshot.Ticker)
	assert.Equal(t, 124.0, snapshot.CurrentPrice)
	assert.Equal(t, 125.0, snapshot.DailyHigh)
	assert.InDelta(t, (124.0-123.0)/123.0*100, snapshot.PriceChangePct, 1e-9)
	assert.Greater(t, snapshot.AnnualizedVolatility, 0.0)
	assert.Equal(t, "test company", snapshot.Description)
}

func TestTopByEngagementStableTies(t *testing.T) {
	posts := []models.ScoredPost{
		{RawPost: models.RawPost{URL: "a", Engagement: 5}},
		{RawPost: models.RawPost{URL: "b", Engagement: 10}},
		{RawPost: models.RawPost{URL: "c", Engagement: 5}},
		{RawPost: models.RawPost{URL: "d", Engagement: 10}},
	}

	top := topByEngagement(posts, 3)

	require.Len(t, top, 3)
	assert.Equal(t, "b", top[0].URL)
	assert.Equal(t, "d", top[1].URL)
	assert.Equal(t, "a", top[2].URL, "ties keep encounter order")
}
