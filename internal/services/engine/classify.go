package engine

import "tradehits/internal/domain/models"

// Classification thresholds shared by the daily/hourly scorers and fusion.
// The five-minute scorer uses a tighter table to reflect its narrower
// neutral band; both tables must be kept distinct.
const (
	strongBuyMin = 80.0
	buyMin       = 60.0
	holdMin      = 40.0
	sellMin      = 20.0

	fiveMinStrongBuyMin = 75.0
	fiveMinBuyMin       = 55.0
	fiveMinHoldMin      = 45.0
	fiveMinSellMin      = 25.0
)

// Clamp bounds a strength value to [0,100]. Additive scoring may transiently
// leave the range; classification always happens on the clamped value.
func Clamp(strength float64) float64 {
	if strength < 0 {
		return 0
	}
	if strength > 100 {
		return 100
	}
	return strength
}

// Classify maps a strength value to a recommendation label using the shared
// threshold table.
func Classify(strength float64) models.Recommendation {
	s := Clamp(strength)
	switch {
	case s >= strongBuyMin:
		return models.RecStrongBuy
	case s >= buyMin:
		return models.RecBuy
	case s >= holdMin:
		return models.RecHold
	case s >= sellMin:
		return models.RecSell
	default:
		return models.RecStrongSell
	}
}

// ClassifyFiveMin maps a strength value to a label using the tighter
// five-minute table.
func ClassifyFiveMin(strength float64) models.Recommendation {
	s := Clamp(strength)
	switch {
	case s >= fiveMinStrongBuyMin:
		return models.RecStrongBuy
	case s >= fiveMinBuyMin:
		return models.RecBuy
	case s >= fiveMinHoldMin:
		return models.RecHold
	case s >= fiveMinSellMin:
		return models.RecSell
	default:
		return models.RecStrongSell
	}
}
