package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hypr/internal/common"
	"github.com/ternarybob/hypr/internal/interfaces"
)

// APIHandler serves the health and version endpoints.
type APIHandler struct {
	classifier interfaces.SentimentClassifier
	logger     arbor.ILogger
}

// NewAPIHandler creates the health/version handler.
func NewAPIHandler(classifier interfaces.SentimentClassifier, logger arbor.ILogger) *APIHandler {
	return &APIHandler{
		classifier: classifier,
		logger:     logger,
	}
}

// HealthHandler reports process health plus classifier readiness.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	classifierReady := h.classifier != nil && h.classifier.Ready(ctx)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "healthy",
		"classifier_ready": classifierReady,
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
	})
}

// VersionHandler returns build version information.
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.Build,
	})
}
