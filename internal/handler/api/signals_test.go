package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tradehits/internal/domain/models"
	domrepo "tradehits/internal/domain/repository"
	icache "tradehits/internal/service/cache"
	"tradehits/internal/usecase"
)

type stubStore struct {
	snaps map[string][]models.IndicatorSnapshot
}

func newStubStore() *stubStore {
	return &stubStore{snaps: make(map[string][]models.IndicatorSnapshot)}
}

func (s *stubStore) add(snap models.IndicatorSnapshot) {
	key := snap.Symbol + "|" + snap.Timeframe
	s.snaps[key] = append(s.snaps[key], snap)
}

func (s *stubStore) GetSnapshots(_ context.Context, symbol string, _, _ time.Time, tf domrepo.Timeframe) ([]models.IndicatorSnapshot, error) {
	return s.snaps[symbol+"|"+string(tf)], nil
}

func (s *stubStore) GetLatestN(_ context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.IndicatorSnapshot, error) {
	out := s.snaps[symbol+"|"+string(tf)]
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out, nil
}

type stubStorage struct {
	crossovers []models.CrossoverEvent
}

func (s *stubStorage) Init(context.Context) error                             { return nil }
func (s *stubStorage) Store(context.Context, *models.IndicatorSnapshot) error { return nil }
func (s *stubStorage) StoreBatch(context.Context, []*models.IndicatorSnapshot) error {
	return nil
}
func (s *stubStorage) StoreCrossover(context.Context, *models.CrossoverEvent) error { return nil }
func (s *stubStorage) QueryCrossovers(_ context.Context, symbol string, limit int) ([]models.CrossoverEvent, error) {
	out := s.crossovers
	if symbol != "" {
		out = nil
		for _, ev := range s.crossovers {
			if ev.Symbol == symbol {
				out = append(out, ev)
			}
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
func (s *stubStorage) Query(context.Context, string, time.Time, time.Time, domrepo.Timeframe, int) ([]models.IndicatorSnapshot, error) {
	return nil, nil
}
func (s *stubStorage) Health(context.Context) error { return nil }
func (s *stubStorage) Close() error                 { return nil }

type nopMetrics struct{}

func (nopMetrics) RecordMessageSent(string, string)   {}
func (nopMetrics) RecordError(string)                 {}
func (nopMetrics) RecordLastStrength(string, float64) {}
func (nopMetrics) RecordLatency(string, float64)      {}

func testDaily(symbol string) models.IndicatorSnapshot {
	return models.IndicatorSnapshot{
		Symbol:        symbol,
		Timeframe:     "1d",
		Timestamp:     time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
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

func newTestHandler(store *stubStore, storage *stubStorage) (*SignalsHandler, *usecase.OpportunityRefresher) {
	eng := usecase.NewSignalEngine(store)
	fused := usecase.NewFusedSignalsUseCase(eng)
	refresher := usecase.NewOpportunityRefresher(fused, store, nopMetrics{}, nil, nil, 0, 0)
	return NewSignalsHandler(eng, fused, storage, refresher), refresher
}

func TestScoreEndpointMissingSymbol(t *testing.T) {
	h, _ := newTestHandler(newStubStore(), &stubStorage{})
	rec := httptest.NewRecorder()
	h.Score()(rec, httptest.NewRequest(http.MethodGet, "/api/score", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestScoreEndpointReturnsSignalAndCaches(t *testing.T) {
	store := newStubStore()
	store.add(testDaily("TEST"))
	h, _ := newTestHandler(store, &stubStorage{})
	cache := icache.NewTTLCache()
	h.SetCache(cache)

	rec := httptest.NewRecorder()
	h.Score()(rec, httptest.NewRequest(http.MethodGet, "/api/score?symbol=TEST&tf=1d", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var sig models.TimeframeSignal
	if err := json.Unmarshal(rec.Body.Bytes(), &sig); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sig.Strength != 92 || sig.Recommendation != models.RecStrongBuy {
		t.Fatalf("signal = %v/%s, want 92/STRONG_BUY", sig.Strength, sig.Recommendation)
	}
	if _, ok, _ := cache.GetBytes("score:TEST:1d"); !ok {
		t.Fatal("response was not cached")
	}

	// second hit is served from cache with an identical body
	rec2 := httptest.NewRecorder()
	h.Score()(rec2, httptest.NewRequest(http.MethodGet, "/api/score?symbol=TEST&tf=1d", nil))
	if rec2.Code != http.StatusOK || rec2.Body.String() != rec.Body.String() {
		t.Fatalf("cached response differs: %s", rec2.Body.String())
	}
}

func TestFusedEndpoint(t *testing.T) {
	store := newStubStore()
	store.add(testDaily("TEST"))
	h, _ := newTestHandler(store, &stubStorage{})

	rec := httptest.NewRecorder()
	h.Fused()(rec, httptest.NewRequest(http.MethodGet, "/api/fused?symbol=TEST", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var res models.FusedResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Fused == nil || res.Fused.OverallStrength != 92 {
		t.Fatalf("fused = %+v, want overall 92", res.Fused)
	}
	if len(res.Errors) != 2 {
		t.Fatalf("errors = %v, want 1h and 5m", res.Errors)
	}
}

func TestCrossoversEndpoint(t *testing.T) {
	storage := &stubStorage{crossovers: []models.CrossoverEvent{
		{Symbol: "TEST", SignalType: models.SignalBuy, Magnitude: 3.5, Confidence: 0.8},
		{Symbol: "OTHER", SignalType: models.SignalSell, Magnitude: 1.0, Confidence: 0.5},
	}}
	h, _ := newTestHandler(newStubStore(), storage)

	rec := httptest.NewRecorder()
	h.Crossovers()(rec, httptest.NewRequest(http.MethodGet, "/api/crossovers?symbol=TEST", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var evs []models.CrossoverEvent
	if err := json.Unmarshal(rec.Body.Bytes(), &evs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(evs) != 1 || evs[0].Symbol != "TEST" {
		t.Fatalf("events = %v, want single TEST event", evs)
	}
}

func TestOpportunitiesEndpoint(t *testing.T) {
	store := newStubStore()
	store.add(testDaily("AAA"))
	store.add(testDaily("BBB"))
	h, refresher := newTestHandler(store, &stubStorage{})
	for _, sym := range []string{"AAA", "BBB"} {
		if err := refresher.RefreshSymbol(context.Background(), usecase.UniverseEntry{Symbol: sym}); err != nil {
			t.Fatalf("refresh %s: %v", sym, err)
		}
	}

	rec := httptest.NewRecorder()
	h.Opportunities()(rec, httptest.NewRequest(http.MethodGet, "/api/opportunities?order=asc", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var res struct {
		Total    int                  `json:"total"`
		Filtered int                  `json:"filtered"`
		Rows     []models.Opportunity `json:"rows"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Total != 2 || len(res.Rows) != 2 {
		t.Fatalf("result = %+v, want 2 rows", res)
	}
}

func TestOpportunitiesEndpointUnknownRecommendation(t *testing.T) {
	h, _ := newTestHandler(newStubStore(), &stubStorage{})
	rec := httptest.NewRecorder()
	h.Opportunities()(rec, httptest.NewRequest(http.MethodGet, "/api/opportunities?recommendation=MAYBE", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestFusedEndpointRateLimited(t *testing.T) {
	store := newStubStore()
	store.add(testDaily("TEST"))
	h, _ := newTestHandler(store, &stubStorage{})

	limited := false
	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		h.Fused()(rec, httptest.NewRequest(http.MethodGet, "/api/fused?symbol=TEST", nil))
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Fatal("burst was never rate limited")
	}
}
