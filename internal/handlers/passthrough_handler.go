package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hypr/internal/common"
	"github.com/ternarybob/hypr/internal/interfaces"
)

// PassthroughHandler exposes the pipeline's collaborators as standalone
// endpoints, so a caller can inspect one slice of the data without paying
// for a full analysis run.
type PassthroughHandler struct {
	profile interfaces.ProfileSource
	history interfaces.HistorySource
	news    interfaces.NewsSource
	config  *common.Config
	logger  arbor.ILogger
}

// NewPassthroughHandler creates the company/financial/news handler.
func NewPassthroughHandler(profile interfaces.ProfileSource, history interfaces.HistorySource, news interfaces.NewsSource, config *common.Config, logger arbor.ILogger) *PassthroughHandler {
	return &PassthroughHandler{
		profile: profile,
		history: history,
		news:    news,
		config:  config,
		logger:  logger,
	}
}

// CompanyHandler resolves a ticker to its company profile.
func (h *PassthroughHandler) CompanyHandler(w http.ResponseWriter, r *http.Request) {
	ticker, ok := h.ticker(w, r)
	if !ok {
		return
	}

	profile, err := h.profile.Resolve(r.Context(), ticker)
	if err != nil {
		if errors.Is(err, interfaces.ErrUnknownTicker) {
			WriteError(w, http.StatusNotFound, "unknown ticker symbol")
			return
		}
		h.logger.Error().Err(err).Str("ticker", ticker).Msg("Company lookup failed")
		WriteError(w, http.StatusBadGateway, "company lookup failed")
		return
	}

	WriteJSON(w, http.StatusOK, profile)
}

// FinancialHandler returns the OHLCV history for a ticker.
func (h *PassthroughHandler) FinancialHandler(w http.ResponseWriter, r *http.Request) {
	ticker, ok := h.ticker(w, r)
	if !ok {
		return
	}

	history, err := h.history.Fetch(r.Context(), ticker, h.config.Yahoo.Period, h.config.Yahoo.Interval)
	if err != nil {
		if errors.Is(err, interfaces.ErrNoHistory) {
			WriteError(w, http.StatusNotFound, "no historical data")
			return
		}
		h.logger.Error().Err(err).Str("ticker", ticker).Msg("History lookup failed")
		WriteError(w, http.StatusBadGateway, "history lookup failed")
		return
	}

	WriteJSON(w, http.StatusOK, history)
}

// NewsHandler returns recent raw articles for a ticker.
func (h *PassthroughHandler) NewsHandler(w http.ResponseWriter, r *http.Request) {
	ticker, ok := h.ticker(w, r)
	if !ok {
		return
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -h.config.Pipeline.NewsWindowDays)

	articles, err := h.news.Search(r.Context(), ticker, from, to)
	if err != nil {
		h.logger.Error().Err(err).Str("ticker", ticker).Msg("News lookup failed")
		WriteError(w, http.StatusBadGateway, "news lookup failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ticker":   ticker,
		"articles": articles,
	})
}

// ticker extracts and normalizes the {ticker} path segment.
func (h *PassthroughHandler) ticker(w http.ResponseWriter, r *http.Request) (string, bool) {
	ticker := strings.ToUpper(strings.TrimSpace(r.PathValue("ticker")))
	if ticker == "" || len(ticker) > 10 {
		WriteError(w, http.StatusBadRequest, "ticker must be 1-10 characters")
		return "", false
	}
	return ticker, true
}
