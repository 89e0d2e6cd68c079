package engine

import (
	"math"
	"reflect"
	"testing"
	"time"

	"tradehits/internal/domain/models"
)

func tfSig(tf string, strength float64, rec models.Recommendation, factors ...string) *models.TimeframeSignal {
	return &models.TimeframeSignal{
		Symbol:         "AAPL",
		Timeframe:      tf,
		Strength:       strength,
		Recommendation: rec,
		Factors:        factors,
		Timestamp:      time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC),
	}
}

func TestFuseAllAligned(t *testing.T) {
	fused := Fuse(
		tfSig("1d", 90, models.RecStrongBuy, "High Growth Score"),
		tfSig("1h", 65, models.RecBuy, "Rise Cycle Start!", "RSI Bullish"),
		tfSig("5m", 60, models.RecBuy, "Micro Trend Up"),
	)
	if !fused.AllAligned {
		t.Fatalf("all three bullish, want AllAligned")
	}
	// (90*0.5 + 65*0.3 + 60*0.2) / 1.0
	if math.Abs(fused.OverallStrength-76.5) > 1e-9 {
		t.Fatalf("overall strength = %v, want 76.5", fused.OverallStrength)
	}
	if fused.Recommendation != models.RecStrongBuy || fused.Action != models.ActionExecuteBuy {
		t.Fatalf("got %s/%s, want STRONG_BUY/EXECUTE_BUY", fused.Recommendation, fused.Action)
	}
	want := map[string]bool{"1d": true, "1h": true, "5m": true}
	if !reflect.DeepEqual(fused.Alignment, want) {
		t.Fatalf("alignment = %v, want %v", fused.Alignment, want)
	}
	if fused.Factors[len(fused.Factors)-1] != "ALL TIMEFRAMES ALIGNED" {
		t.Fatalf("factors = %v, want trailing alignment marker", fused.Factors)
	}
}

func TestFuseRenormalizesMissingTimeframe(t *testing.T) {
	fused := Fuse(
		tfSig("1d", 90, models.RecStrongBuy),
		tfSig("1h", 65, models.RecBuy),
		nil,
	)
	// (90*0.5 + 65*0.3) / 0.8; the absent 0.2 weight must not skew the average
	want := (90*0.5 + 65*0.3) / 0.8
	if math.Abs(fused.OverallStrength-want) > 1e-9 {
		t.Fatalf("overall strength = %v, want %v", fused.OverallStrength, want)
	}
	if _, ok := fused.Alignment["5m"]; ok {
		t.Fatalf("absent timeframe must not appear in alignment map")
	}
}

func TestFuseSingleTimeframe(t *testing.T) {
	fused := Fuse(tfSig("1d", 90, models.RecStrongBuy), nil, nil)
	if fused.OverallStrength != 90 {
		t.Fatalf("overall strength = %v, want 90", fused.OverallStrength)
	}
	if !fused.AllAligned {
		t.Fatalf("single bullish timeframe counts as aligned")
	}
}

func TestFusePrepareBuy(t *testing.T) {
	fused := Fuse(
		tfSig("1d", 65, models.RecBuy),
		tfSig("1h", 62, models.RecBuy),
		tfSig("5m", 40, models.RecSell),
	)
	if fused.AllAligned {
		t.Fatalf("bearish five-minute leg must break alignment")
	}
	// (32.5 + 18.6 + 8) / 1.0 = 59.1 >= 55 with daily+hourly bullish
	if fused.Recommendation != models.RecBuy || fused.Action != models.ActionPrepareBuy {
		t.Fatalf("got %s/%s, want BUY/PREPARE_BUY", fused.Recommendation, fused.Action)
	}
}

func TestFuseMonitorAndStayOut(t *testing.T) {
	fused := Fuse(tfSig("1d", 50, models.RecHold), nil, nil)
	if fused.Recommendation != models.RecHold || fused.Action != models.ActionMonitor {
		t.Fatalf("got %s/%s, want HOLD/MONITOR", fused.Recommendation, fused.Action)
	}

	fused = Fuse(tfSig("1d", 30, models.RecSell), nil, nil)
	if fused.Recommendation != models.RecAvoid || fused.Action != models.ActionStayOut {
		t.Fatalf("got %s/%s, want AVOID/STAY_OUT", fused.Recommendation, fused.Action)
	}
}

func TestFuseNoSignals(t *testing.T) {
	fused := Fuse(nil, nil, nil)
	if fused.AllAligned {
		t.Fatalf("no signals cannot be aligned")
	}
	if fused.Recommendation != models.RecAvoid || fused.Action != models.ActionStayOut {
		t.Fatalf("got %s/%s, want AVOID/STAY_OUT", fused.Recommendation, fused.Action)
	}
}

func TestFusePicksSalientTags(t *testing.T) {
	fused := Fuse(
		tfSig("1d", 90, models.RecStrongBuy, "High Growth Score", "RSI Sweet Spot"),
		tfSig("1h", 80, models.RecStrongBuy, "RSI Bullish", "Rise Cycle Start!"),
		nil,
	)
	want := []string{"High Growth Score", "Rise Cycle Start!", "ALL TIMEFRAMES ALIGNED"}
	if !reflect.DeepEqual(fused.Factors, want) {
		t.Fatalf("factors = %v, want %v", fused.Factors, want)
	}
}

func TestFuseIdempotent(t *testing.T) {
	d := tfSig("1d", 90, models.RecStrongBuy, "High Growth Score")
	h := tfSig("1h", 65, models.RecBuy, "Rise Cycle")
	a := Fuse(d, h, nil)
	b := Fuse(d, h, nil)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("repeated fusion diverged: %+v vs %+v", a, b)
	}
}
