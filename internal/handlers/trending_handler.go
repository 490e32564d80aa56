package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hypr/internal/services/trending"
)

// TrendingHandler serves the cached top-movers snapshot.
type TrendingHandler struct {
	service *trending.Service
	logger  arbor.ILogger
}

// NewTrendingHandler creates the trending handler.
func NewTrendingHandler(service *trending.Service, logger arbor.ILogger) *TrendingHandler {
	return &TrendingHandler{
		service: service,
		logger:  logger,
	}
}

// TrendingHandler returns the current trending snapshot.
func (h *TrendingHandler) TrendingHandler(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Get(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to get trending snapshot")
		WriteError(w, http.StatusServiceUnavailable, "trending data unavailable")
		return
	}

	WriteJSON(w, http.StatusOK, snapshot)
}
