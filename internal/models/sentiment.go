package models

// Sentiment labels produced by the classifier.
const (
	LabelPositive = "positive"
	LabelNeutral  = "neutral"
	LabelNegative = "negative"
)

// Sentiment is a single classification result: a scalar in [-1,1], a discrete
// label and the classifier's confidence in [0,1].
type Sentiment struct {
	Score      float64 `json:"sentiment"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// NeutralSentiment is the documented default used when the classifier is
// unavailable or the input text is empty after cleaning.
func NeutralSentiment() Sentiment {
	return Sentiment{Score: 0, Label: LabelNeutral, Confidence: 0.5}
}
