// Package scoring turns the three data bundles of an analysis run into the
// composite metric set and trading signal. Every metric is computed
// independently: an input too thin for one metric substitutes that metric's
// documented default and never poisons the others.
package scoring

import (
	"errors"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hypr/internal/models"
)

// Metric defaults substituted when a metric's inputs are insufficient.
const (
	DefaultFinancialMomentum = 50.0
	DefaultNewsSentiment     = 50.0
	DefaultNewsConfidence    = 0.5
	DefaultSocialBuzz        = 0.0
	DefaultSocialConfidence  = 0.5

	// momentumWindow is the long lookback for momentum and volume baselines.
	// History shorter than momentumWindow+1 bars cannot support the metric.
	momentumWindow = 20

	// recencyWindow bounds what counts as a "recent" social post.
	recencyWindow = 24 * time.Hour

	// confidenceGate is the floor below which no directional signal is issued.
	confidenceGate = 0.6
)

var (
	errInsufficientHistory = errors.New("insufficient price history")
	errNoArticles          = errors.New("no scored articles")
	errNoPosts             = errors.New("no scored posts")
)

// Engine computes score sets. It is stateless; the same inputs always yield
// the same outputs.
type Engine struct {
	logger arbor.ILogger
}

// NewEngine creates a scoring engine.
func NewEngine(logger arbor.ILogger) *Engine {
	return &Engine{logger: logger}
}

// Score computes the full metric set. now anchors the social recency window.
func (e *Engine) Score(financial *models.FinancialSnapshot, news *models.NewsBundle, social *models.SocialBundle, now time.Time) models.ScoreSet {
	fm, err := financialMomentum(financial)
	if err != nil {
		e.logger.Debug().Err(err).Msg("Financial momentum degraded to default")
		fm = DefaultFinancialMomentum
	}

	ns, nc, err := newsSentiment(news)
	if err != nil {
		e.logger.Debug().Err(err).Msg("News sentiment degraded to default")
		ns, nc = DefaultNewsSentiment, DefaultNewsConfidence
	}

	sb, sc, err := socialBuzz(social, now)
	if err != nil {
		e.logger.Debug().Err(err).Msg("Social buzz degraded to default")
		sb, sc = DefaultSocialBuzz, DefaultSocialConfidence
	}

	hype := 0.6*fm + 0.2*ns + 0.2*sb
	divergence := sentimentPriceDivergence(financial, ns, sb)

	return models.ScoreSet{
		FinancialMomentum:        fm,
		NewsSentiment:            ns,
		NewsConfidence:           nc,
		SocialBuzz:               sb,
		SocialConfidence:         sc,
		HypeIndex:                hype,
		SentimentPriceDivergence: divergence,
		TradingSignal:            tradingSignal(fm, ns, nc, sb, sc, divergence),
	}
}

// financialMomentum blends short and long price momentum with a volume surge
// term and an inverse-volatility bonus.
func financialMomentum(financial *models.FinancialSnapshot) (float64, error) {
	if financial == nil {
		return 0, errInsufficientHistory
	}

	pc5, err := pctChange(financial.History, 5)
	if err != nil {
		return 0, err
	}
	pc20, err := pctChange(financial.History, momentumWindow)
	if err != nil {
		return 0, err
	}
	volRatio, err := volumeRatio(financial.History)
	if err != nil {
		return 0, err
	}

	volatilityScore := min50(10 / maxF(financial.AnnualizedVolatility, 1e-4))

	return clamp(0, 100, 3*pc5+2*pc20+10*volRatio+volatilityScore), nil
}

// newsSentiment maps the confidence-weighted article sentiment into [0,100],
// scaled by how many articles back it.
func newsSentiment(news *models.NewsBundle) (sentiment, confidence float64, err error) {
	if news == nil || len(news.Articles) == 0 {
		return 0, 0, errNoArticles
	}

	var weightedSum, confidenceSum float64
	for _, a := range news.Articles {
		weightedSum += a.Sentiment * a.Confidence
		confidenceSum += a.Confidence
	}

	var avg float64
	if confidenceSum > 0 {
		avg = weightedSum / confidenceSum
	}

	countFactor := clamp(0.5, 1.5, float64(len(news.Articles))/10)
	sentiment = clamp(0, 100, (avg+1)*50*countFactor)

	confidence = confidenceSum / float64(len(news.Articles))
	return sentiment, confidence, nil
}

// socialBuzz combines mean post sentiment with volume, recency and engagement
// factors. An empty post set is silence, not neutrality: it scores 0.
func socialBuzz(social *models.SocialBundle, now time.Time) (buzz, confidence float64, err error) {
	if social == nil || len(social.Posts) == 0 {
		return 0, 0, errNoPosts
	}

	var sentimentSum, confidenceSum, engagementSum float64
	recent := 0
	cutoff := now.Add(-recencyWindow)

	for _, p := range social.Posts {
		sentimentSum += p.Sentiment
		confidenceSum += p.Confidence
		engagementSum += float64(p.Engagement)
		if p.CreatedAt.After(cutoff) {
			recent++
		}
	}

	n := float64(len(social.Posts))
	avg := sentimentSum / n

	volumeFactor := clamp(0.5, 2.0, n/50)
	recencyFactor := clamp(0.5, 1.5, float64(recent)/n*3)
	engagementFactor := clamp(0.5, 2.0, engagementSum/n/10)

	buzz = clamp(0, 100, (avg+1)*50*volumeFactor*recencyFactor*engagementFactor)
	confidence = confidenceSum / n
	return buzz, confidence, nil
}

// sentimentPriceDivergence is the signed gap between normalized 3-day price
// movement and the sentiment metrics. Positive means price is outrunning
// sentiment; negative means sentiment is outrunning price.
func sentimentPriceDivergence(financial *models.FinancialSnapshot, newsSentiment, socialBuzz float64) float64 {
	var pc3 float64
	if financial != nil {
		if pc, err := pctChange(financial.History, 3); err == nil {
			pc3 = pc
		}
	}
	normalizedPrice := clamp(0, 100, (pc3+10)*5)
	return normalizedPrice - (newsSentiment+socialBuzz)/2
}

// tradingSignal gates a directional call behind combined confidence and
// requires the divergence direction to confirm it.
func tradingSignal(fm, ns, nc, sb, sc, divergence float64) models.TradingSignal {
	composite := 0.6*fm + 0.2*ns*nc + 0.2*sb*sc
	combinedConfidence := (nc + sc + 1) / 3

	if combinedConfidence < confidenceGate {
		return models.SignalHold
	}
	if composite >= 60 && divergence < 0 {
		return models.SignalBuy
	}
	if composite <= 40 && divergence > 0 {
		return models.SignalSell
	}
	return models.SignalHold
}

// pctChange returns the percent change of the close over the last n bars.
// Requires n+1 bars of ascending history.
func pctChange(history []models.Candle, n int) (float64, error) {
	if len(history) < n+1 {
		return 0, errInsufficientHistory
	}
	latest := history[len(history)-1].Close
	base := history[len(history)-1-n].Close
	if base == 0 {
		return 0, errInsufficientHistory
	}
	return (latest - base) / base * 100, nil
}

// volumeRatio is the latest volume over the mean of the preceding
// momentumWindow volumes.
func volumeRatio(history []models.Candle) (float64, error) {
	if len(history) < momentumWindow+1 {
		return 0, errInsufficientHistory
	}
	latest := history[len(history)-1].Volume

	var sum float64
	for _, c := range history[len(history)-1-momentumWindow : len(history)-1] {
		sum += c.Volume
	}
	mean := sum / momentumWindow
	if mean == 0 {
		return 0, errInsufficientHistory
	}
	return latest / mean, nil
}

func clamp(lo, hi, v float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func min50(v float64) float64 {
	if v > 50 {
		return 50
	}
	return v
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
