package models

import (
	"strings"
	"time"
)

// AnalysisRequest is one inbound request for a ticker analysis. Immutable;
// discarded after the pipeline run.
type AnalysisRequest struct {
	Symbol       string `json:"symbol" validate:"required,alphanum,max=10"`
	ForceRefresh bool   `json:"force_refresh"`
}

// NormalizedSymbol returns the upper-cased, trimmed ticker.
func (r AnalysisRequest) NormalizedSymbol() string {
	return strings.ToUpper(strings.TrimSpace(r.Symbol))
}

// Pipeline step names, in execution order.
const (
	StepCache     = "cache"
	StepCompany   = "company_info"
	StepFinancial = "financial_data"
	StepNews      = "news"
	StepKeywords  = "keywords"
	StepSocial    = "social"
	StepMetrics   = "metrics"
	StepComplete  = "complete"
)

// Progress event statuses.
const (
	StatusStarted = "started"
	StatusSuccess = "success"
	StatusError   = "error"
	StatusWarning = "warning"
)

// ProgressEvent is one entry in the per-request progress stream. The stream is
// append-only and strictly ordered; a StepComplete event terminates it
// regardless of status.
type ProgressEvent struct {
	Step    string          `json:"step"`
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    *AnalysisResult `json:"data,omitempty"`
}

// Terminal reports whether this event ends the stream.
func (e ProgressEvent) Terminal() bool {
	return e.Step == StepComplete
}

// AnalysisResult is the cache unit: one logical row per ticker, superseded
// (never mutated) by each fresh run.
type AnalysisResult struct {
	Ticker          string            `json:"ticker" badgerhold:"index"`
	CompanyInfo     CompanyProfile    `json:"company_info"`
	FinancialData   FinancialSnapshot `json:"financial_data"`
	NewsData        NewsBundle        `json:"news_data"`
	ExpandedQueries []string          `json:"expanded_queries"`
	SocialData      SocialBundle      `json:"social_data"`
	Scores          ScoreSet          `json:"scores"`
	LastRun         time.Time         `json:"last_run"`
}
