package models

type Recommendation string

const (
	RecommendBuy  Recommendation = "Buy"
	RecommendSell Recommendation = "Sell"
	RecommendHold Recommendation = "Hold"
)

type Prediction struct {
	Symbol         string         `json:"symbol" yaml:"symbol"`
	CurrentPrice   float64        `json:"currentPrice" yaml:"current_price"`
	PredictedPrice float64        `json:"predictedPrice" yaml:"predicted_price"`
	Confidence     int            `json:"confidence" yaml:"confidence"` // percent, 0-100
	Timeframe      string         `json:"timeframe" yaml:"timeframe"`
	Recommendation Recommendation `json:"recommendation" yaml:"recommendation"`
}
