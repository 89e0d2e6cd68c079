package engine

import (
	"math"

	"tradehits/internal/domain/models"
	domrepo "tradehits/internal/domain/repository"
)

// Scoring rule weights. Each constant is one additive contribution; the sum
// is clamped to [0,100] before classification.
const (
	dailyGrowthCap     = 40.0
	dailyGrowthFactor  = 0.4
	dailyRSISweetSpot  = 20.0
	dailyMACDBullish   = 15.0
	dailyEMARiseCycle  = 15.0
	dailyPivotLow      = 10.0
	hourlyCycleStart   = 30.0
	hourlyCycleHold    = 15.0
	hourlyRSIBullish   = 15.0
	hourlyRSIOversold  = 10.0
	hourlyRSIOverbought = 15.0
	hourlyVolumeSpike  = 10.0
	hourlyMACDMomentum = 10.0
	volumeSpikeRatio   = 1.5
	fiveMinCross       = 25.0
	fiveMinTrend       = 10.0
	fiveMinRSIEdge     = 15.0
	fiveMinVWAPBelow   = 10.0
	fiveMinVWAPAbove   = 5.0
	vwapBandPct        = 0.5
)

// Input is one scoring unit: the current snapshot, its immediate predecessor
// when available, and the trailing volume average computed by the caller
// from the snapshot window.
type Input struct {
	Snapshot models.IndicatorSnapshot
	Prev     *models.IndicatorSnapshot
	// AvgVolume is the trailing 20-snapshot average volume; zero when the
	// window is too short.
	AvgVolume float64
}

// Score maps one snapshot to a graded timeframe signal. Deterministic and
// side-effect-free: identical inputs produce identical output. Unknown
// timeframes yield a neutral HOLD signal rather than an error.
func Score(tf domrepo.Timeframe, in Input) models.TimeframeSignal {
	snap := in.Snapshot
	factors := snap.Sanitize()
	var prev *models.IndicatorSnapshot
	if in.Prev != nil {
		p := *in.Prev
		p.Sanitize()
		prev = &p
	}

	sig := models.TimeframeSignal{
		Symbol:    snap.Symbol,
		Timeframe: string(tf),
		Timestamp: snap.Timestamp,
		Factors:   factors,
	}

	var strength float64
	switch tf {
	case domrepo.TFDaily:
		strength = scoreDaily(snap, &sig)
		sig.Recommendation = Classify(strength)
	case domrepo.TFHourly:
		strength = scoreHourly(snap, prev, in.AvgVolume, &sig)
		sig.Recommendation = Classify(strength)
	case domrepo.TFFiveMin:
		strength = scoreFiveMin(snap, prev, &sig)
		sig.Recommendation = ClassifyFiveMin(strength)
	default:
		strength = 50
		sig.Recommendation = models.RecHold
		sig.Metrics = map[string]float64{"close": snap.Close}
	}

	sig.Strength = Clamp(strength)
	return sig
}

// scoreDaily identifies opportunities: growth composite plus trend and
// momentum confirmations, starting from zero.
func scoreDaily(s models.IndicatorSnapshot, sig *models.TimeframeSignal) float64 {
	strength := 0.0

	if pts := math.Min(s.GrowthScore*dailyGrowthFactor, dailyGrowthCap); pts > 0 {
		strength += pts
		sig.Factors = append(sig.Factors, "High Growth Score")
	}
	if s.RSI >= 40 && s.RSI <= 65 {
		strength += dailyRSISweetSpot
		sig.Factors = append(sig.Factors, "RSI Sweet Spot")
	}
	if s.MACDHistogram > 0 {
		strength += dailyMACDBullish
		sig.Factors = append(sig.Factors, "MACD Bullish")
	}
	if s.EMAFast > s.EMASlow {
		strength += dailyEMARiseCycle
		sig.Factors = append(sig.Factors, "EMA Rise Cycle")
	}
	if s.PivotLowFlag {
		strength += dailyPivotLow
		sig.Factors = append(sig.Factors, "Pivot Low Signal")
	}
	// informational only, no strength contribution
	if s.SMA200 > 0 && s.Close > s.SMA200 {
		sig.Factors = append(sig.Factors, "Above 200 SMA")
	}

	sig.Metrics = map[string]float64{
		"growth_score":   s.GrowthScore,
		"rsi":            s.RSI,
		"macd_histogram": s.MACDHistogram,
		"ema_fast":       s.EMAFast,
		"ema_slow":       s.EMASlow,
		"close":          s.Close,
		"sma_200":        s.SMA200,
	}
	return strength
}

// scoreHourly times the cycle: starts neutral at 50 and moves with the
// fast/slow EMA ordering, RSI band, volume and MACD momentum.
func scoreHourly(s models.IndicatorSnapshot, prev *models.IndicatorSnapshot, avgVolume float64, sig *models.TimeframeSignal) float64 {
	strength := 50.0
	riseCycle := s.EMAFast > s.EMASlow

	if prev != nil {
		prevRise := prev.EMAFast > prev.EMASlow
		switch {
		case riseCycle && !prevRise:
			strength += hourlyCycleStart
			sig.Factors = append(sig.Factors, "Rise Cycle Start!")
		case riseCycle:
			strength += hourlyCycleHold
			sig.Factors = append(sig.Factors, "Rise Cycle")
		case !riseCycle && prevRise:
			strength -= hourlyCycleStart
			sig.Factors = append(sig.Factors, "Fall Cycle Start!")
		default:
			strength -= hourlyCycleHold
			sig.Factors = append(sig.Factors, "Fall Cycle")
		}
	} else if riseCycle {
		strength += hourlyCycleHold
		sig.Factors = append(sig.Factors, "Rise Cycle")
	} else {
		strength -= hourlyCycleHold
		sig.Factors = append(sig.Factors, "Fall Cycle")
	}

	// the three RSI bands are mutually exclusive by construction; keep the
	// chain explicit so the oversold bonus never stacks on the bullish one
	if s.RSI > 50 && s.RSI < 70 {
		strength += hourlyRSIBullish
		sig.Factors = append(sig.Factors, "RSI Bullish")
	} else if s.RSI < 30 {
		strength += hourlyRSIOversold
		sig.Factors = append(sig.Factors, "RSI Oversold Entry")
	} else if s.RSI > 70 {
		strength -= hourlyRSIOverbought
		sig.Factors = append(sig.Factors, "RSI Overbought")
	}

	if avgVolume > 0 && s.Volume > volumeSpikeRatio*avgVolume && riseCycle {
		strength += hourlyVolumeSpike
		sig.Factors = append(sig.Factors, "Volume Spike")
	}
	if prev != nil && s.MACDHistogram > 0 && s.MACDHistogram > prev.MACDHistogram {
		strength += hourlyMACDMomentum
		sig.Factors = append(sig.Factors, "MACD Momentum Up")
	}

	sig.Metrics = map[string]float64{
		"rsi":            s.RSI,
		"macd_histogram": s.MACDHistogram,
		"ema_fast":       s.EMAFast,
		"ema_slow":       s.EMASlow,
		"volume":         s.Volume,
		"avg_volume_20":  avgVolume,
	}
	return strength
}

// scoreFiveMin times the execution: micro-average crossovers, RSI extremes
// and the price deviation from VWAP. Emphasis-marked factor tags are entry
// triggers and must be preserved verbatim downstream.
func scoreFiveMin(s models.IndicatorSnapshot, prev *models.IndicatorSnapshot, sig *models.TimeframeSignal) float64 {
	strength := 50.0
	microUp := s.EMAFast > s.EMASlow

	switch {
	case prev != nil && microUp && !(prev.EMAFast > prev.EMASlow):
		strength += fiveMinCross
		sig.EntrySignal = models.EntryBuyNow
		sig.Factors = append(sig.Factors, "Micro Cross Up! BUY NOW")
	case prev != nil && !microUp && prev.EMAFast > prev.EMASlow:
		strength -= fiveMinCross
		sig.EntrySignal = models.EntrySellNow
		sig.Factors = append(sig.Factors, "Micro Cross Down! SELL NOW")
	case microUp:
		strength += fiveMinTrend
		sig.Factors = append(sig.Factors, "Micro Trend Up")
	default:
		strength -= fiveMinTrend
		sig.Factors = append(sig.Factors, "Micro Trend Down")
	}

	if s.RSI < 35 {
		strength += fiveMinRSIEdge
		if sig.EntrySignal == models.EntryNone {
			sig.EntrySignal = models.EntryConsiderBuy
		}
		sig.Factors = append(sig.Factors, "RSI Oversold")
	} else if s.RSI > 65 {
		strength -= fiveMinRSIEdge
		if sig.EntrySignal == models.EntryNone {
			sig.EntrySignal = models.EntryConsiderSell
		}
		sig.Factors = append(sig.Factors, "RSI Overbought")
	}

	priceVsVWAP := 0.0
	if s.VWAP > 0 {
		priceVsVWAP = (s.Close/s.VWAP - 1) * 100
		if priceVsVWAP < -vwapBandPct {
			strength += fiveMinVWAPBelow
			sig.Factors = append(sig.Factors, "Below VWAP")
		} else if priceVsVWAP > vwapBandPct {
			strength -= fiveMinVWAPAbove
			sig.Factors = append(sig.Factors, "Above VWAP")
		}
	}

	sig.Metrics = map[string]float64{
		"rsi":           s.RSI,
		"ema_fast":      s.EMAFast,
		"ema_slow":      s.EMASlow,
		"close":         s.Close,
		"vwap":          s.VWAP,
		"price_vs_vwap": priceVsVWAP,
	}
	return strength
}
