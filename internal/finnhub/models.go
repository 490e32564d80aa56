package finnhub

// quoteResponse is the raw /quote payload.
// c = current, o = open, h = high, l = low, d = change, dp = change percent.
type quoteResponse struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PrevClose     float64 `json:"pc"`
}

// profileResponse is the raw /stock/profile2 payload. Finnhub returns an
// empty object (not a 404) for unknown tickers.
type profileResponse struct {
	Name             string  `json:"name"`
	Ticker           string  `json:"ticker"`
	Country          string  `json:"country"`
	Industry         string  `json:"finnhubIndustry"`
	Exchange         string  `json:"exchange"`
	IPO              string  `json:"ipo"`
	MarketCap        float64 `json:"marketCapitalization"`
	WebURL           string  `json:"weburl"`
	Currency         string  `json:"currency"`
	ShareOutstanding float64 `json:"shareOutstanding"`
}

// newsItem is one entry of the /company-news payload.
type newsItem struct {
	Category string `json:"category"`
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	ID       int64  `json:"id"`
	Image    string `json:"image"`
	Related  string `json:"related"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}
