package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"tradehits/internal/domain/models"
)

type fakeMetrics struct {
	mu        sync.Mutex
	errors    map[string]int
	strengths map[string]float64
	latencies map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		errors:    make(map[string]int),
		strengths: make(map[string]float64),
		latencies: make(map[string]int),
	}
}

func (m *fakeMetrics) RecordMessageSent(string, string) {}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordLastStrength(symbol string, strength float64) {
	m.mu.Lock()
	m.strengths[symbol] = strength
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordLatency(op string, _ float64) {
	m.mu.Lock()
	m.latencies[op]++
	m.mu.Unlock()
}

func TestRefreshSymbolBuildsRow(t *testing.T) {
	store := newMemStore()
	store.add(strongDaily("AAA", time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)))
	uc := NewFusedSignalsUseCase(NewSignalEngine(store))
	metrics := newFakeMetrics()
	r := NewOpportunityRefresher(uc, store, metrics, nil, []UniverseEntry{{Symbol: "AAA", AssetType: "stock"}}, 0, 0)

	if err := r.RefreshSymbol(context.Background(), UniverseEntry{Symbol: "AAA", AssetType: "stock"}); err != nil {
		t.Fatalf("RefreshSymbol: %v", err)
	}
	rows := r.Rows()
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	row := rows[0]
	if row.Symbol != "AAA" || row.AssetType != "stock" {
		t.Fatalf("identity = %s/%s", row.Symbol, row.AssetType)
	}
	if row.Strength == nil || *row.Strength != 92 {
		t.Fatalf("strength = %v, want 92", row.Strength)
	}
	if row.GrowthScore == nil || *row.GrowthScore != 80 {
		t.Fatalf("growth = %v, want 80", row.GrowthScore)
	}
	// 0.8*92 + 0.2*80 = 89.6
	if row.OpportunityScore == nil || *row.OpportunityScore != 89.6 {
		t.Fatalf("score = %v, want 89.6", row.OpportunityScore)
	}
	if row.Close == nil || *row.Close != 210 {
		t.Fatalf("close = %v, want 210", row.Close)
	}
	if metrics.strengths["AAA"] != 92 {
		t.Fatalf("recorded strength = %v, want 92", metrics.strengths["AAA"])
	}
}

func TestRefreshSymbolRequiresSymbol(t *testing.T) {
	store := newMemStore()
	r := NewOpportunityRefresher(NewFusedSignalsUseCase(NewSignalEngine(store)), store, newFakeMetrics(), nil, nil, 0, 0)
	if err := r.RefreshSymbol(context.Background(), UniverseEntry{}); err == nil {
		t.Fatal("expected error for empty symbol")
	}
}

func TestRefreshAllScansUniverse(t *testing.T) {
	store := newMemStore()
	ts := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	store.add(strongDaily("BBB", ts), strongDaily("AAA", ts))
	uc := NewFusedSignalsUseCase(NewSignalEngine(store))
	metrics := newFakeMetrics()
	universe := []UniverseEntry{{Symbol: "BBB"}, {Symbol: "AAA"}, {Symbol: "MISSING"}}
	r := NewOpportunityRefresher(uc, store, metrics, nil, universe, 2, time.Minute)

	r.RefreshAll(context.Background())

	rows := r.Rows()
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	// Rows is symbol-ordered
	if rows[0].Symbol != "AAA" || rows[1].Symbol != "BBB" || rows[2].Symbol != "MISSING" {
		t.Fatalf("order = %s,%s,%s, want AAA,BBB,MISSING", rows[0].Symbol, rows[1].Symbol, rows[2].Symbol)
	}
	// no data on any timeframe fuses to a stay-out row, not an error
	if rows[2].Action != models.ActionStayOut {
		t.Fatalf("action = %s, want STAY_OUT", rows[2].Action)
	}
	if rows[2].OpportunityScore == nil || *rows[2].OpportunityScore != 0 {
		t.Fatalf("score = %v, want 0", rows[2].OpportunityScore)
	}
	if metrics.latencies["refresh_universe"] != 1 {
		t.Fatalf("latency records = %d, want 1", metrics.latencies["refresh_universe"])
	}
}
