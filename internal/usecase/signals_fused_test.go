package usecase

import (
	"context"
	"testing"
	"time"

	"tradehits/internal/domain/models"
	domrepo "tradehits/internal/domain/repository"
)

// memStore is an in-memory SnapshotStore keyed by "symbol|timeframe".
type memStore struct {
	data map[string][]models.IndicatorSnapshot
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]models.IndicatorSnapshot)}
}

func (m *memStore) add(snaps ...models.IndicatorSnapshot) {
	for _, s := range snaps {
		key := s.Symbol + "|" + s.Timeframe
		m.data[key] = append(m.data[key], s)
	}
}

func (m *memStore) GetSnapshots(_ context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) ([]models.IndicatorSnapshot, error) {
	var out []models.IndicatorSnapshot
	for _, s := range m.data[symbol+"|"+string(tf)] {
		if !s.Timestamp.Before(from) && !s.Timestamp.After(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) GetLatestN(_ context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.IndicatorSnapshot, error) {
	snaps := m.data[symbol+"|"+string(tf)]
	if len(snaps) > n {
		snaps = snaps[len(snaps)-n:]
	}
	return snaps, nil
}

func strongDaily(symbol string, ts time.Time) models.IndicatorSnapshot {
	return models.IndicatorSnapshot{
		Symbol:        symbol,
		Timeframe:     "1d",
		Timestamp:     ts,
		Close:         210,
		Volume:        1_000_000,
		RSI:           55,
		MACDHistogram: 1.0,
		EMAFast:       105,
		EMASlow:       100,
		GrowthScore:   80,
		PivotLowFlag:  true,
	}
}

func TestScoreTimeframeDaily(t *testing.T) {
	store := newMemStore()
	store.add(strongDaily("TEST", time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)))
	eng := NewSignalEngine(store)

	sig, err := eng.ScoreTimeframe(context.Background(), "TEST", domrepo.TFDaily)
	if err != nil {
		t.Fatalf("ScoreTimeframe: %v", err)
	}
	// min(80*0.4, 40) + 20 (RSI) + 15 (MACD) + 15 (EMA) + 10 (pivot) = 92
	if sig.Strength != 92 {
		t.Fatalf("strength = %v, want 92", sig.Strength)
	}
	if sig.Recommendation != models.RecStrongBuy {
		t.Fatalf("recommendation = %s, want STRONG_BUY", sig.Recommendation)
	}
	if sig.Symbol != "TEST" || sig.Timeframe != "1d" {
		t.Fatalf("identity = %s/%s, want TEST/1d", sig.Symbol, sig.Timeframe)
	}
}

func TestScoreTimeframeNoData(t *testing.T) {
	eng := NewSignalEngine(newMemStore())
	if _, err := eng.ScoreTimeframe(context.Background(), "NONE", domrepo.TFDaily); err == nil {
		t.Fatal("expected error for empty window")
	}
}

func TestGetFusedDailyOnly(t *testing.T) {
	store := newMemStore()
	store.add(strongDaily("TEST", time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)))
	uc := NewFusedSignalsUseCase(NewSignalEngine(store))

	res, err := uc.GetFused(context.Background(), GetFusedParams{Symbol: "TEST"})
	if err != nil {
		t.Fatalf("GetFused: %v", err)
	}
	if len(res.Signals) != 1 || res.Signals["1d"] == nil {
		t.Fatalf("signals = %v, want only 1d", res.Signals)
	}
	if res.Errors == nil || res.Errors["1h"] == "" || res.Errors["5m"] == "" {
		t.Fatalf("errors = %v, want entries for 1h and 5m", res.Errors)
	}
	if res.Fused == nil {
		t.Fatal("fused signal missing")
	}
	// single present timeframe renormalizes to its own strength
	if res.Fused.OverallStrength != 92 {
		t.Fatalf("overall = %v, want 92", res.Fused.OverallStrength)
	}
	if res.Fused.Symbol != "TEST" {
		t.Fatalf("symbol = %s, want TEST", res.Fused.Symbol)
	}
	if res.Fused.Action != models.ActionExecuteBuy {
		t.Fatalf("action = %s, want EXECUTE_BUY", res.Fused.Action)
	}
}

func TestGetFusedRequiresSymbol(t *testing.T) {
	uc := NewFusedSignalsUseCase(NewSignalEngine(newMemStore()))
	if _, err := uc.GetFused(context.Background(), GetFusedParams{}); err == nil {
		t.Fatal("expected error for empty symbol")
	}
}
