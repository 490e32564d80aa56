package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route
	mux.HandleFunc("/ws/popular", s.app.WSHandler.HandleWebSocket)

	// API routes - Analysis
	mux.HandleFunc("/api/analyze", s.app.AnalyzeHandler.AnalyzeHandler) // POST - SSE progress stream

	// API routes - Quotes
	mux.HandleFunc("/api/popular", s.app.QuotesHandler.PopularHandler)

	// API routes - Collaborator passthroughs
	mux.HandleFunc("GET /api/company/{ticker}", s.app.PassthroughHandler.CompanyHandler)
	mux.HandleFunc("GET /api/financial/{ticker}", s.app.PassthroughHandler.FinancialHandler)
	mux.HandleFunc("GET /api/news/{ticker}", s.app.PassthroughHandler.NewsHandler)

	// API routes - Trending
	mux.HandleFunc("/api/trending", s.app.TrendingHandler.TrendingHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	return mux
}
