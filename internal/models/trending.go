package models

import "time"

// TrendingEntry is one mover in the daily trending snapshot.
type TrendingEntry struct {
	Ticker           string `json:"ticker"`
	Price            string `json:"price"`
	ChangeAmount     string `json:"change_amount"`
	ChangePercentage string `json:"change_percentage"`
	Volume           string `json:"volume"`
}

// TrendingSnapshot is the daily top-movers snapshot, refreshed once per TTL.
type TrendingSnapshot struct {
	TopGainers         []TrendingEntry `json:"top_gainers"`
	TopLosers          []TrendingEntry `json:"top_losers"`
	MostActivelyTraded []TrendingEntry `json:"most_actively_traded"`
	LastUpdated        time.Time       `json:"last_updated"`
}
