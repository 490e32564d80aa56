package models

import "time"

// PopularQuote is one row of the popular-tickers feed. Upserted each broadcast
// tick, keyed by ticker. Price fields are pointers: a failed fetch for one
// symbol is represented as null fields rather than aborting the tick.
type PopularQuote struct {
	Ticker           string    `json:"ticker" badgerhold:"index"`
	Price            *float64  `json:"price"`
	ChangeAmount     *float64  `json:"change_amount"`
	ChangePercentage *float64  `json:"change_percentage"`
	UpdatedAt        time.Time `json:"updated_at"`
}
