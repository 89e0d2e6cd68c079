package features

import (
	"testing"

	"tradehits/internal/domain/models"
)

func snapsWithVolumes(vols ...float64) []models.IndicatorSnapshot {
	out := make([]models.IndicatorSnapshot, len(vols))
	for i, v := range vols {
		out[i] = models.IndicatorSnapshot{Symbol: "AAPL", Volume: v, Close: 100 + float64(i)}
	}
	return out
}

func TestSplitLatest(t *testing.T) {
	if cur, prev := SplitLatest(nil); cur != nil || prev != nil {
		t.Fatalf("empty window: cur=%v prev=%v", cur, prev)
	}
	one := snapsWithVolumes(10)
	if cur, prev := SplitLatest(one); cur == nil || prev != nil {
		t.Fatalf("single bar: cur=%v prev=%v", cur, prev)
	}
	many := snapsWithVolumes(10, 20, 30)
	cur, prev := SplitLatest(many)
	if cur.Volume != 30 || prev.Volume != 20 {
		t.Fatalf("cur.Volume=%v prev.Volume=%v, want 30/20", cur.Volume, prev.Volume)
	}
}

func TestTrailingAvgVolumeExcludesCurrentBar(t *testing.T) {
	snaps := snapsWithVolumes(100, 200, 300, 9000)
	if got := TrailingAvgVolume(snaps); got != 200 {
		t.Fatalf("avg = %v, want 200 (current bar excluded)", got)
	}
}

func TestTrailingAvgVolumeCapsWindow(t *testing.T) {
	vols := make([]float64, 0, 30)
	for i := 0; i < 9; i++ {
		vols = append(vols, 1000) // older than the 20-bar window
	}
	for i := 0; i < 20; i++ {
		vols = append(vols, 100)
	}
	vols = append(vols, 5000) // current bar
	if got := TrailingAvgVolume(snapsWithVolumes(vols...)); got != 100 {
		t.Fatalf("avg = %v, want 100 (only last 20 history bars counted)", got)
	}
}

func TestTrailingAvgVolumeSkipsInvalid(t *testing.T) {
	snaps := snapsWithVolumes(0, -5, 300, 100)
	if got := TrailingAvgVolume(snaps); got != 300 {
		t.Fatalf("avg = %v, want 300 (non-positive volumes skipped)", got)
	}
	if got := TrailingAvgVolume(snapsWithVolumes(100)); got != 0 {
		t.Fatalf("avg = %v, want 0 with no history", got)
	}
}

func TestComputeLogReturns(t *testing.T) {
	snaps := []models.IndicatorSnapshot{
		{Close: 100}, {Close: 110}, {Close: 0}, {Close: 105},
	}
	rets := ComputeLogReturns(snaps)
	if len(rets) != 3 {
		t.Fatalf("len = %d, want 3", len(rets))
	}
	if rets[1] != 0 || rets[2] != 0 {
		t.Fatalf("non-positive closes must yield 0 returns, got %v", rets)
	}
	if rets[0] <= 0 {
		t.Fatalf("positive move must yield positive return, got %v", rets[0])
	}
	if ComputeLogReturns(snaps[:1]) != nil {
		t.Fatalf("single bar must yield nil")
	}
}

func TestRealizedVolatility(t *testing.T) {
	if got := RealizedVolatility([]float64{0.01}, 5, 252); got != 0 {
		t.Fatalf("insufficient data: got %v, want 0", got)
	}
	flat := []float64{0.01, 0.01, 0.01, 0.01, 0.01}
	if got := RealizedVolatility(flat, 5, 252); got != 0 {
		t.Fatalf("constant returns: got %v, want 0", got)
	}
	noisy := []float64{0.01, -0.02, 0.03, -0.01, 0.02}
	if got := RealizedVolatility(noisy, 5, 252); got <= 0 {
		t.Fatalf("noisy returns: got %v, want > 0", got)
	}
}
