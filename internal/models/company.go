package models

import "time"

// CompanyProfile holds basic company identity data resolved from the profile
// source. Cached indefinitely, keyed by ticker.
type CompanyProfile struct {
	Name      string    `json:"name"`
	Ticker    string    `json:"ticker" badgerhold:"index"`
	Country   string    `json:"country"`
	Industry  string    `json:"industry"`
	Exchange  string    `json:"exchange"`
	IPODate   string    `json:"ipo"`
	MarketCap float64   `json:"marketCap"`
	URL       string    `json:"url"`
	FetchedAt time.Time `json:"fetched_at"`
}
