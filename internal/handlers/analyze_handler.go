package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hypr/internal/models"
	"github.com/ternarybob/hypr/internal/services/analysis"
)

// AnalyzeHandler serves the analysis pipeline as a Server-Sent Events stream.
type AnalyzeHandler struct {
	pipeline *analysis.Service
	validate *validator.Validate
	logger   arbor.ILogger
}

// NewAnalyzeHandler creates the analyze endpoint handler.
func NewAnalyzeHandler(pipeline *analysis.Service, logger arbor.ILogger) *AnalyzeHandler {
	return &AnalyzeHandler{
		pipeline: pipeline,
		validate: validator.New(),
		logger:   logger,
	}
}

// AnalyzeHandler streams pipeline progress events for one ticker.
//
// Each event is framed as `event: message` + `data: <json>`; the stream ends
// after the step=complete event. When the client disconnects mid-stream the
// remaining events are drained without writing so the pipeline still persists
// its result.
func (h *AnalyzeHandler) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		WriteError(w, http.StatusBadRequest, "symbol must be 1-10 alphanumeric characters")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events := h.pipeline.Run(r.Context(), req)

	clientGone := false
	for event := range events {
		if clientGone {
			continue
		}
		if err := writeSSE(w, flusher, event); err != nil {
			h.logger.Debug().Err(err).
				Str("symbol", req.NormalizedSymbol()).
				Msg("Client disconnected mid-stream, draining pipeline")
			clientGone = true
		}
	}
}

// writeSSE frames one progress event.
func writeSSE(w http.ResponseWriter, flusher http.Flusher, event models.ProgressEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte("event: message\ndata: ")); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	if _, err := w.Write([]byte("\n\n")); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
