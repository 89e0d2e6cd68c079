package engine

import (
	"strings"
	"time"

	"tradehits/internal/domain/models"
	domrepo "tradehits/internal/domain/repository"
)

// Fixed fusion weights; renormalized over the timeframes actually supplied.
const (
	weightDaily   = 0.5
	weightHourly  = 0.3
	weightFiveMin = 0.2
)

// Fused recommendation thresholds on the renormalized average strength.
const (
	fuseExecuteMin = 60.0
	fusePrepareMin = 55.0
	fuseMonitorMin = 45.0
)

// Fuse combines up to three timeframe signals into one opinion. Missing
// timeframes drop out of the weighted average entirely; the remaining
// weights are renormalized so an absent signal never skews the result.
// Pure: identical inputs yield identical output.
func Fuse(daily, hourly, fiveMin *models.TimeframeSignal) models.FusedSignal {
	type part struct {
		tf     domrepo.Timeframe
		weight float64
		sig    *models.TimeframeSignal
	}
	parts := []part{
		{domrepo.TFDaily, weightDaily, daily},
		{domrepo.TFHourly, weightHourly, hourly},
		{domrepo.TFFiveMin, weightFiveMin, fiveMin},
	}

	fused := models.FusedSignal{
		Alignment: make(map[string]bool, 3),
		Timestamp: time.Time{},
	}

	var total, weightSum float64
	present := 0
	allAligned := true
	for _, p := range parts {
		if p.sig == nil {
			continue
		}
		present++
		bullish := p.sig.Recommendation.Bullish()
		fused.Alignment[string(p.tf)] = bullish
		if !bullish {
			allAligned = false
		}
		total += p.sig.Strength * p.weight
		weightSum += p.weight
		if tag := salientTag(p.sig); tag != "" {
			fused.Factors = append(fused.Factors, tag)
		}
		if fused.Symbol == "" {
			fused.Symbol = p.sig.Symbol
		}
		if p.sig.Timestamp.After(fused.Timestamp) {
			fused.Timestamp = p.sig.Timestamp
		}
	}

	avg := 0.0
	if weightSum > 0 {
		avg = Clamp(total / weightSum)
	}
	fused.OverallStrength = avg
	fused.AllAligned = present > 0 && allAligned

	dailyBull := daily != nil && daily.Recommendation.Bullish()
	hourlyBull := hourly != nil && hourly.Recommendation.Bullish()
	switch {
	case fused.AllAligned && avg >= fuseExecuteMin:
		fused.Recommendation = models.RecStrongBuy
		fused.Action = models.ActionExecuteBuy
	case dailyBull && hourlyBull && avg >= fusePrepareMin:
		fused.Recommendation = models.RecBuy
		fused.Action = models.ActionPrepareBuy
	case avg >= fuseMonitorMin:
		fused.Recommendation = models.RecHold
		fused.Action = models.ActionMonitor
	default:
		fused.Recommendation = models.RecAvoid
		fused.Action = models.ActionStayOut
	}

	if fused.AllAligned {
		fused.Factors = append(fused.Factors, "ALL TIMEFRAMES ALIGNED")
	}
	return fused
}

// salientTag picks the highest-salience factor of a signal: the first
// emphasis-marked tag, falling back to the first tag.
func salientTag(sig *models.TimeframeSignal) string {
	for _, f := range sig.Factors {
		if strings.Contains(f, "!") {
			return f
		}
	}
	if len(sig.Factors) > 0 {
		return sig.Factors[0]
	}
	return ""
}
