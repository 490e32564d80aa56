package models

import "time"

// Candle is a single OHLCV bar.
type Candle struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceHistory is the raw result of a history fetch: daily candles sorted
// ascending by date, plus the long business description when available.
type PriceHistory struct {
	Candles     []Candle `json:"candles"`
	Description string   `json:"description"`
}

// FinancialSnapshot is the per-run financial picture of a ticker. It is
// recomputed fresh on every pipeline run and embedded in the AnalysisResult,
// never cached standalone.
//
// History is sorted ascending by date. Momentum metrics use 20-period windows
// and degrade to documented defaults when fewer than 21 bars are available.
type FinancialSnapshot struct {
	Ticker               string   `json:"ticker"`
	CurrentPrice         float64  `json:"current_price"`
	OpeningPrice         float64  `json:"opening_price"`
	DailyHigh            float64  `json:"daily_high"`
	DailyLow             float64  `json:"daily_low"`
	PriceChangePct       float64  `json:"price_change"`
	Volume               float64  `json:"trading_volume"`
	AnnualizedVolatility float64  `json:"volatility"`
	History              []Candle `json:"historical_data"`
	Description          string   `json:"description"`
}

// LatestCandle returns the most recent bar, or false when the history is empty.
func (f *FinancialSnapshot) LatestCandle() (Candle, bool) {
	if len(f.History) == 0 {
		return Candle{}, false
	}
	return f.History[len(f.History)-1], true
}
