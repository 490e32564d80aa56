package badger

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hypr/internal/interfaces"
	"github.com/ternarybob/hypr/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

func newTestDB(t *testing.T) *BadgerDB {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "badger-test")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	options := badgerhold.DefaultOptions
	options.Dir = tmpDir
	options.ValueDir = tmpDir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return &BadgerDB{store: store}
}

func sampleResult(ticker string, lastRun time.Time) *models.AnalysisResult {
	return &models.AnalysisResult{
		Ticker: ticker,
		CompanyInfo: models.CompanyProfile{
			Name:   ticker + " Inc",
			Ticker: ticker,
		},
		Scores: models.ScoreSet{
			FinancialMomentum: 61.25,
			NewsSentiment:     54.5,
			HypeIndex:         58.9,
			TradingSignal:     models.SignalHold,
		},
		LastRun: lastRun,
	}
}

func TestAnalysisStorageLatest(t *testing.T) {
	db := newTestDB(t)
	logger := arbor.NewLogger()
	storage := NewAnalysisStorage(db, logger, 7*24*time.Hour)

	ctx := context.Background()
	base := time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC)

	// Two runs for AAPL, one for MSFT
	if err := storage.Insert(ctx, sampleResult("AAPL", base.Add(-2*time.Hour))); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := storage.Insert(ctx, sampleResult("AAPL", base)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := storage.Insert(ctx, sampleResult("MSFT", base.Add(-1*time.Hour))); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	latest, err := storage.Latest(ctx, "AAPL")
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if !latest.LastRun.Equal(base) {
		t.Errorf("Latest returned run at %s, want %s", latest.LastRun, base)
	}
	if latest.Ticker != "AAPL" {
		t.Errorf("Latest returned ticker %s, want AAPL", latest.Ticker)
	}
}

func TestAnalysisStorageLatestMissing(t *testing.T) {
	db := newTestDB(t)
	storage := NewAnalysisStorage(db, arbor.NewLogger(), 0)

	_, err := storage.Latest(context.Background(), "ZZZZ9")
	if err != interfaces.ErrNotFound {
		t.Errorf("Latest for unknown ticker = %v, want ErrNotFound", err)
	}
}

func TestAnalysisStorageScoreRoundTrip(t *testing.T) {
	db := newTestDB(t)
	storage := NewAnalysisStorage(db, arbor.NewLogger(), 0)

	ctx := context.Background()
	want := models.ScoreSet{
		FinancialMomentum:        73.123456789,
		NewsSentiment:            48.000000001,
		NewsConfidence:           0.87,
		SocialBuzz:               12.5,
		SocialConfidence:         0.61,
		HypeIndex:                58.974074075,
		SentimentPriceDivergence: -4.25,
		TradingSignal:            models.SignalBuy,
	}

	result := sampleResult("NVDA", time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC))
	result.Scores = want

	if err := storage.Insert(ctx, result); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	got, err := storage.Latest(ctx, "NVDA")
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}

	// Numeric fields must survive the round trip bit-for-bit
	if got.Scores != want {
		t.Errorf("score set changed across round trip:\ngot  %+v\nwant %+v", got.Scores, want)
	}
}

func TestAnalysisStoragePruning(t *testing.T) {
	db := newTestDB(t)
	storage := NewAnalysisStorage(db, arbor.NewLogger(), 24*time.Hour)

	ctx := context.Background()
	now := time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC)

	if err := storage.Insert(ctx, sampleResult("TSLA", now.Add(-48*time.Hour))); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	// The fresh insert prunes the expired row
	if err := storage.Insert(ctx, sampleResult("TSLA", now)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	var all []models.AnalysisResult
	if err := db.Store().Find(&all, badgerhold.Where("Ticker").Eq("TSLA").Index("Ticker")); err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected expired row to be pruned, found %d rows", len(all))
	}
}

func TestQuoteStorageRecentOrdering(t *testing.T) {
	db := newTestDB(t)
	storage := NewQuoteStorage(db, arbor.NewLogger())

	ctx := context.Background()
	base := time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC)
	price := func(v float64) *float64 { return &v }

	quotes := []models.PopularQuote{
		{Ticker: "AAPL", Price: price(185.2), UpdatedAt: base.Add(-2 * time.Minute)},
		{Ticker: "MSFT", Price: price(402.1), UpdatedAt: base},
		{Ticker: "TSLA", Price: price(244.7), UpdatedAt: base.Add(-1 * time.Minute)},
	}
	if err := storage.Upsert(ctx, quotes); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	got, err := storage.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Recent returned %d rows, want 3", len(got))
	}

	wantOrder := []string{"MSFT", "TSLA", "AAPL"}
	for i, w := range wantOrder {
		if got[i].Ticker != w {
			t.Errorf("Recent[%d] = %s, want %s", i, got[i].Ticker, w)
		}
	}

	// Re-upserting a ticker overwrites rather than duplicates
	quotes[0].UpdatedAt = base.Add(time.Minute)
	if err := storage.Upsert(ctx, quotes[:1]); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	got, err = storage.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("upsert duplicated a row: %d rows, want 3", len(got))
	}
	if got[0].Ticker != "AAPL" {
		t.Errorf("Recent[0] = %s, want AAPL after refresh", got[0].Ticker)
	}
}
