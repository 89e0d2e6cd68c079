package engine

import (
	"math"
	"reflect"
	"testing"
	"time"

	"tradehits/internal/domain/models"
	domrepo "tradehits/internal/domain/repository"
)

func dailySnap() models.IndicatorSnapshot {
	return models.IndicatorSnapshot{
		Symbol:       "AAPL",
		Timeframe:    "1d",
		Timestamp:    time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		Close:        210,
		Volume:       1_000_000,
		RSI:          50,
		MACDHistogram: 0.5,
		EMAFast:      208,
		EMASlow:      205,
		GrowthScore:  100,
		PivotLowFlag: true,
		SMA200:       190,
		VWAP:         209,
	}
}

func TestScoreDailyAllBonuses(t *testing.T) {
	sig := Score(domrepo.TFDaily, Input{Snapshot: dailySnap()})
	// 40 (growth, capped) + 20 (RSI) + 15 (MACD) + 15 (EMA) + 10 (pivot) = 100
	if sig.Strength != 100 {
		t.Fatalf("strength = %v, want 100", sig.Strength)
	}
	if sig.Recommendation != models.RecStrongBuy {
		t.Fatalf("recommendation = %s, want STRONG_BUY", sig.Recommendation)
	}
	wantTags := []string{"High Growth Score", "RSI Sweet Spot", "MACD Bullish", "EMA Rise Cycle", "Pivot Low Signal", "Above 200 SMA"}
	if !reflect.DeepEqual(sig.Factors, wantTags) {
		t.Fatalf("factors = %v, want %v", sig.Factors, wantTags)
	}
}

func TestScoreDailyGrowthCap(t *testing.T) {
	s := dailySnap()
	s.GrowthScore = 80
	s.PivotLowFlag = false
	sig := Score(domrepo.TFDaily, Input{Snapshot: s})
	// min(80*0.4, 40) = 32, plus 20+15+15
	if sig.Strength != 82 {
		t.Fatalf("strength = %v, want 82", sig.Strength)
	}
}

func TestScoreDailySMA200IsInformational(t *testing.T) {
	s := dailySnap()
	base := Score(domrepo.TFDaily, Input{Snapshot: s})
	s.SMA200 = 300 // below the 200 SMA now
	below := Score(domrepo.TFDaily, Input{Snapshot: s})
	if base.Strength != below.Strength {
		t.Fatalf("SMA 200 changed strength: %v vs %v", base.Strength, below.Strength)
	}
	for _, f := range below.Factors {
		if f == "Above 200 SMA" {
			t.Fatalf("unexpected Above 200 SMA tag when close below sma_200")
		}
	}
}

func TestScoreHourlyRiseCycleStart(t *testing.T) {
	prev := models.IndicatorSnapshot{Symbol: "AAPL", EMAFast: 10, EMASlow: 11, RSI: 50}
	cur := models.IndicatorSnapshot{
		Symbol:  "AAPL",
		RSI:     55,
		EMAFast: 11,
		EMASlow: 10,
		Volume:  2000,
	}
	sig := Score(domrepo.TFHourly, Input{Snapshot: cur, Prev: &prev, AvgVolume: 1000})
	// 50 + 30 (cycle start) + 15 (RSI 50-70) + 10 (volume spike) = 105, clamped
	if sig.Strength != 100 {
		t.Fatalf("strength = %v, want 100", sig.Strength)
	}
	if sig.Recommendation != models.RecStrongBuy {
		t.Fatalf("recommendation = %s, want STRONG_BUY", sig.Recommendation)
	}
	if sig.Factors[0] != "Rise Cycle Start!" {
		t.Fatalf("first factor = %q, want Rise Cycle Start!", sig.Factors[0])
	}
}

func TestScoreHourlyFallCycleOverbought(t *testing.T) {
	prev := models.IndicatorSnapshot{EMAFast: 11, EMASlow: 10}
	cur := models.IndicatorSnapshot{RSI: 75, EMAFast: 10, EMASlow: 11}
	sig := Score(domrepo.TFHourly, Input{Snapshot: cur, Prev: &prev})
	// 50 - 30 (fall cycle start) - 15 (overbought) = 5
	if sig.Strength != 5 {
		t.Fatalf("strength = %v, want 5", sig.Strength)
	}
	if sig.Recommendation != models.RecStrongSell {
		t.Fatalf("recommendation = %s, want STRONG_SELL", sig.Recommendation)
	}
}

func TestScoreHourlyOversoldExclusive(t *testing.T) {
	cur := models.IndicatorSnapshot{RSI: 25, EMAFast: 11, EMASlow: 10}
	sig := Score(domrepo.TFHourly, Input{Snapshot: cur})
	// 50 + 15 (still rise cycle, no prev) + 10 (oversold entry)
	if sig.Strength != 75 {
		t.Fatalf("strength = %v, want 75", sig.Strength)
	}
	seen := map[string]bool{}
	for _, f := range sig.Factors {
		seen[f] = true
	}
	if !seen["RSI Oversold Entry"] || seen["RSI Bullish"] {
		t.Fatalf("oversold bonus must be exclusive, factors = %v", sig.Factors)
	}
}

func TestScoreHourlyVolumeSpikeRequiresRiseCycle(t *testing.T) {
	cur := models.IndicatorSnapshot{RSI: 50, EMAFast: 10, EMASlow: 11, Volume: 5000}
	sig := Score(domrepo.TFHourly, Input{Snapshot: cur, AvgVolume: 1000})
	for _, f := range sig.Factors {
		if f == "Volume Spike" {
			t.Fatalf("volume spike must not fire in a fall cycle")
		}
	}
}

func TestScoreFiveMinCrossUp(t *testing.T) {
	prev := models.IndicatorSnapshot{EMAFast: 99, EMASlow: 100, RSI: 50}
	cur := models.IndicatorSnapshot{EMAFast: 101, EMASlow: 100, RSI: 50, Close: 100, VWAP: 100}
	sig := Score(domrepo.TFFiveMin, Input{Snapshot: cur, Prev: &prev})
	if sig.Strength != 75 {
		t.Fatalf("strength = %v, want 75", sig.Strength)
	}
	if sig.EntrySignal != models.EntryBuyNow {
		t.Fatalf("entry signal = %s, want BUY_NOW", sig.EntrySignal)
	}
	if sig.Recommendation != models.RecStrongBuy {
		t.Fatalf("recommendation = %s, want STRONG_BUY on the tighter table", sig.Recommendation)
	}
	if sig.Factors[0] != "Micro Cross Up! BUY NOW" {
		t.Fatalf("factor = %q, want verbatim entry trigger tag", sig.Factors[0])
	}
}

func TestScoreFiveMinOversoldKeepsCrossEntry(t *testing.T) {
	prev := models.IndicatorSnapshot{EMAFast: 99, EMASlow: 100}
	cur := models.IndicatorSnapshot{EMAFast: 101, EMASlow: 100, RSI: 30, Close: 100, VWAP: 100}
	sig := Score(domrepo.TFFiveMin, Input{Snapshot: cur, Prev: &prev})
	if sig.EntrySignal != models.EntryBuyNow {
		t.Fatalf("entry signal = %s, cross trigger must not be downgraded", sig.EntrySignal)
	}
}

func TestScoreFiveMinVWAPBands(t *testing.T) {
	cur := models.IndicatorSnapshot{EMAFast: 101, EMASlow: 100, RSI: 50, Close: 99, VWAP: 100}
	sig := Score(domrepo.TFFiveMin, Input{Snapshot: cur})
	// 50 + 10 (micro trend up) + 10 (1% below vwap)
	if sig.Strength != 70 {
		t.Fatalf("strength = %v, want 70", sig.Strength)
	}

	cur.Close = 101
	sig = Score(domrepo.TFFiveMin, Input{Snapshot: cur})
	// 50 + 10 - 5 (1% above vwap)
	if sig.Strength != 55 {
		t.Fatalf("strength = %v, want 55", sig.Strength)
	}
}

func TestScoreFiveMinConsiderSell(t *testing.T) {
	cur := models.IndicatorSnapshot{EMAFast: 100, EMASlow: 101, RSI: 70, Close: 100, VWAP: 100}
	sig := Score(domrepo.TFFiveMin, Input{Snapshot: cur})
	// 50 - 10 (micro trend down) - 15 (overbought)
	if sig.Strength != 25 {
		t.Fatalf("strength = %v, want 25", sig.Strength)
	}
	if sig.EntrySignal != models.EntryConsiderSell {
		t.Fatalf("entry signal = %s, want CONSIDER_SELL", sig.EntrySignal)
	}
}

func TestScoreRejectsNonFiniteField(t *testing.T) {
	s := dailySnap()
	s.RSI = math.NaN()
	sig := Score(domrepo.TFDaily, Input{Snapshot: s})
	if math.IsNaN(sig.Strength) {
		t.Fatalf("non-finite strength must never propagate")
	}
	// NaN rsi falls back to neutral 50, which is inside the sweet spot
	if sig.Metrics["rsi"] != models.DefaultRSI {
		t.Fatalf("rsi metric = %v, want neutral default %v", sig.Metrics["rsi"], models.DefaultRSI)
	}
	if sig.Factors[0] != "Degraded Input: rsi" {
		t.Fatalf("factors = %v, want leading degraded-input tag", sig.Factors)
	}
}

func TestScoreIdempotent(t *testing.T) {
	in := Input{Snapshot: dailySnap()}
	a := Score(domrepo.TFDaily, in)
	b := Score(domrepo.TFDaily, in)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("repeated scoring diverged: %+v vs %+v", a, b)
	}
}
