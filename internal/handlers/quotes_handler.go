package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hypr/internal/services/quotes"
)

// QuotesHandler serves the synchronous popular-quotes endpoint.
type QuotesHandler struct {
	broadcaster *quotes.Broadcaster
	logger      arbor.ILogger
}

// NewQuotesHandler creates the popular quotes handler.
func NewQuotesHandler(broadcaster *quotes.Broadcaster, logger arbor.ILogger) *QuotesHandler {
	return &QuotesHandler{
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// PopularHandler returns the current quote set for the configured symbols.
func (h *QuotesHandler) PopularHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.broadcaster.GetPopularQuotes(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to collect popular quotes")
		WriteError(w, http.StatusInternalServerError, "failed to fetch quotes")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"quotes": result,
	})
}
