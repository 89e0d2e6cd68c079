package features

import (
	"math"

	"tradehits/internal/domain/models"
	"tradehits/internal/domain/repository"
)

// SplitLatest returns the most recent snapshot and the one before it from an
// ascending window. prev is nil when the window holds fewer than two bars.
func SplitLatest(snaps []models.IndicatorSnapshot) (cur, prev *models.IndicatorSnapshot) {
	switch len(snaps) {
	case 0:
		return nil, nil
	case 1:
		return &snaps[0], nil
	default:
		return &snaps[len(snaps)-1], &snaps[len(snaps)-2]
	}
}

// TrailingAvgVolume averages volume over the bars preceding the latest one,
// capped at repository.VolumeWindow. The current bar is excluded so a spike
// does not inflate its own baseline. Returns 0 with no history.
func TrailingAvgVolume(snaps []models.IndicatorSnapshot) float64 {
	if len(snaps) < 2 {
		return 0
	}
	hist := snaps[:len(snaps)-1]
	if len(hist) > repository.VolumeWindow {
		hist = hist[len(hist)-repository.VolumeWindow:]
	}
	sum := 0.0
	n := 0
	for _, s := range hist {
		if s.Volume <= 0 || math.IsNaN(s.Volume) || math.IsInf(s.Volume, 0) {
			continue
		}
		sum += s.Volume
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// ComputeLogReturns computes log returns r_t = ln(C_t / C_{t-1}) over an
// ascending window. Bars with a non-positive close contribute 0. Returns a
// slice of length len(snaps)-1, or nil with insufficient data.
func ComputeLogReturns(snaps []models.IndicatorSnapshot) []float64 {
	if len(snaps) < 2 {
		return nil
	}
	out := make([]float64, 0, len(snaps)-1)
	for i := 1; i < len(snaps); i++ {
		prev := snaps[i-1].Close
		cur := snaps[i].Close
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// RealizedVolatility computes annualized realized volatility over the latest
// rolling window using the provided number of bars per year.
func RealizedVolatility(logReturns []float64, window int, barsPerYear float64) float64 {
	if window <= 1 || len(logReturns) < window {
		return 0
	}
	sum := 0.0
	sum2 := 0.0
	for i := len(logReturns) - window; i < len(logReturns); i++ {
		r := logReturns[i]
		sum += r
		sum2 += r * r
	}
	n := float64(window)
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance * barsPerYear)
}

// BarsPerYearForTF returns the approximate number of bars per year for a
// timeframe.
func BarsPerYearForTF(tf repository.Timeframe) float64 {
	switch tf {
	case repository.TFFiveMin:
		return 365 * 24 * 12
	case repository.TFHourly:
		return 365 * 24
	default:
		return 252
	}
}
