package models

// TradingSignal is the discrete trading posture derived from the composite score.
type TradingSignal string

const (
	SignalBuy  TradingSignal = "BUY"
	SignalSell TradingSignal = "SELL"
	SignalHold TradingSignal = "HOLD"
)

// ScoreSet holds the five composite metrics and the trading signal for one
// analysis run. All score fields are normalized to [0,100] except
// SentimentPriceDivergence (signed) and the confidences (in [0,1]).
// Immutable once computed.
type ScoreSet struct {
	FinancialMomentum        float64       `json:"financial_momentum"`
	NewsSentiment            float64       `json:"news_sentiment"`
	NewsConfidence           float64       `json:"news_confidence"`
	SocialBuzz               float64       `json:"social_buzz"`
	SocialConfidence         float64       `json:"social_confidence"`
	HypeIndex                float64       `json:"hype_index"`
	SentimentPriceDivergence float64       `json:"sentiment_price_divergence"`
	TradingSignal            TradingSignal `json:"trading_signal"`
}
