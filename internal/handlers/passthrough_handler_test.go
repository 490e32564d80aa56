package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hypr/internal/common"
	"github.com/ternarybob/hypr/internal/interfaces"
	"github.com/ternarybob/hypr/internal/models"
)

type stubProfileSource struct {
	profile *models.CompanyProfile
	err     error
	ticker  string
}

func (s *stubProfileSource) Resolve(ctx context.Context, ticker string) (*models.CompanyProfile, error) {
	s.ticker = ticker
	return s.profile, s.err
}

type stubHistorySource struct {
	history *models.PriceHistory
	err     error
}

func (s *stubHistorySource) Fetch(ctx context.Context, ticker, period, interval string) (*models.PriceHistory, error) {
	return s.history, s.err
}

type stubNewsSource struct {
	articles []models.RawArticle
	err      error
}

func (s *stubNewsSource) Search(ctx context.Context, ticker string, from, to time.Time) ([]models.RawArticle, error) {
	return s.articles, s.err
}

func newTestHandler(profile *stubProfileSource, history *stubHistorySource, news *stubNewsSource) *PassthroughHandler {
	return NewPassthroughHandler(profile, history, news, common.NewDefaultConfig(), arbor.NewLogger())
}

func routeRequest(h http.HandlerFunc, pattern, target string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestCompanyHandlerNormalizesTicker(t *testing.T) {
	profile := &stubProfileSource{profile: &models.CompanyProfile{Name: "Apple Inc", Ticker: "AAPL"}}
	handler := newTestHandler(profile, &stubHistorySource{}, &stubNewsSource{})

	rec := routeRequest(handler.CompanyHandler, "GET /api/company/{ticker}", "/api/company/aapl")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "AAPL", profile.ticker, "path ticker must be upper-cased before lookup")

	var got models.CompanyProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Apple Inc", got.Name)
}

func TestCompanyHandlerUnknownTicker(t *testing.T) {
	profile := &stubProfileSource{err: interfaces.ErrUnknownTicker}
	handler := newTestHandler(profile, &stubHistorySource{}, &stubNewsSource{})

	rec := routeRequest(handler.CompanyHandler, "GET /api/company/{ticker}", "/api/company/ZZZZ9")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFinancialHandlerNoHistory(t *testing.T) {
	history := &stubHistorySource{err: interfaces.ErrNoHistory}
	handler := newTestHandler(&stubProfileSource{}, history, &stubNewsSource{})

	rec := routeRequest(handler.FinancialHandler, "GET /api/financial/{ticker}", "/api/financial/AAPL")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewsHandlerUpstreamFailure(t *testing.T) {
	news := &stubNewsSource{err: errors.New("upstream down")}
	handler := newTestHandler(&stubProfileSource{}, &stubHistorySource{}, news)

	rec := routeRequest(handler.NewsHandler, "GET /api/news/{ticker}", "/api/news/AAPL")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestNewsHandlerReturnsArticles(t *testing.T) {
	news := &stubNewsSource{articles: []models.RawArticle{{Title: "Apple beats estimates"}}}
	handler := newTestHandler(&stubProfileSource{}, &stubHistorySource{}, news)

	rec := routeRequest(handler.NewsHandler, "GET /api/news/{ticker}", "/api/news/AAPL")

	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Ticker   string              `json:"ticker"`
		Articles []models.RawArticle `json:"articles"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "AAPL", got.Ticker)
	require.Len(t, got.Articles, 1)
	assert.Equal(t, "Apple beats estimates", got.Articles[0].Title)
}
