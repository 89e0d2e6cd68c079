package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"tradehits/internal/domain/models"
	domrepo "tradehits/internal/domain/repository"
	"tradehits/internal/services/engine"
)

type captureStorage struct {
	stored     []models.IndicatorSnapshot
	crossovers []models.CrossoverEvent
}

func (s *captureStorage) Init(context.Context) error { return nil }
func (s *captureStorage) Store(_ context.Context, snap *models.IndicatorSnapshot) error {
	s.stored = append(s.stored, *snap)
	return nil
}
func (s *captureStorage) StoreBatch(_ context.Context, snaps []*models.IndicatorSnapshot) error {
	for _, snap := range snaps {
		s.stored = append(s.stored, *snap)
	}
	return nil
}
func (s *captureStorage) StoreCrossover(_ context.Context, ev *models.CrossoverEvent) error {
	s.crossovers = append(s.crossovers, *ev)
	return nil
}
func (s *captureStorage) QueryCrossovers(context.Context, string, int) ([]models.CrossoverEvent, error) {
	return nil, nil
}
func (s *captureStorage) Query(context.Context, string, time.Time, time.Time, domrepo.Timeframe, int) ([]models.IndicatorSnapshot, error) {
	return nil, nil
}
func (s *captureStorage) Health(context.Context) error { return nil }
func (s *captureStorage) Close() error                 { return nil }

type capturePublisher struct {
	crossovers []models.CrossoverEvent
}

func (p *capturePublisher) PublishSnapshot(context.Context, *models.IndicatorSnapshot) error {
	return nil
}
func (p *capturePublisher) PublishSnapshotBatch(context.Context, []*models.IndicatorSnapshot) error {
	return nil
}
func (p *capturePublisher) PublishCrossover(_ context.Context, ev *models.CrossoverEvent) error {
	p.crossovers = append(p.crossovers, *ev)
	return nil
}
func (p *capturePublisher) Close() error { return nil }

func updateMsg(t *testing.T, symbol, tf string, ts int64, growth, rsi float64) []byte {
	t.Helper()
	b, err := json.Marshal(models.SnapshotUpdate{
		Symbol:      symbol,
		Timeframe:   tf,
		Timestamp:   ts,
		GrowthScore: &growth,
		RSI:         &rsi,
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestKafkaHandlerStoresSnapshot(t *testing.T) {
	storage := &captureStorage{}
	h := NewKafkaSnapshotsHandler("snapshots", storage, nil, engine.NewDetector(), nil, newFakeMetrics())

	if err := h.Handle(context.Background(), updateMsg(t, "TEST", "1h", 1748822400, 30, 60)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(storage.stored) != 1 {
		t.Fatalf("stored = %d, want 1", len(storage.stored))
	}
	if storage.stored[0].Symbol != "TEST" || storage.stored[0].Timeframe != "1h" {
		t.Fatalf("stored = %+v", storage.stored[0])
	}
	// first observation only seeds detector state
	if len(storage.crossovers) != 0 {
		t.Fatalf("crossovers = %d, want 0", len(storage.crossovers))
	}
}

func TestKafkaHandlerEmitsCrossover(t *testing.T) {
	storage := &captureStorage{}
	publisher := &capturePublisher{}
	h := NewKafkaSnapshotsHandler("snapshots", storage, publisher, engine.NewDetector(), nil, newFakeMetrics())

	if err := h.Handle(context.Background(), updateMsg(t, "TEST", "1h", 1748822400, 30, 60)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// growth crosses above RSI with both in buy territory
	if err := h.Handle(context.Background(), updateMsg(t, "TEST", "1h", 1748826000, 70, 45)); err != nil {
		t.Fatalf("cross: %v", err)
	}
	if len(storage.crossovers) != 1 {
		t.Fatalf("stored crossovers = %d, want 1", len(storage.crossovers))
	}
	ev := storage.crossovers[0]
	if ev.Symbol != "TEST" {
		t.Fatalf("symbol = %q, want TEST", ev.Symbol)
	}
	if ev.SignalType != models.SignalStrongBuy {
		t.Fatalf("signal = %s, want STRONG_BUY", ev.SignalType)
	}
	if len(publisher.crossovers) != 1 {
		t.Fatalf("published crossovers = %d, want 1", len(publisher.crossovers))
	}
}

func TestKafkaHandlerDropsOutOfOrder(t *testing.T) {
	storage := &captureStorage{}
	metrics := newFakeMetrics()
	h := NewKafkaSnapshotsHandler("snapshots", storage, nil, engine.NewDetector(), nil, metrics)

	if err := h.Handle(context.Background(), updateMsg(t, "TEST", "1h", 1748826000, 30, 60)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// older event time is dropped without a consumer retry
	if err := h.Handle(context.Background(), updateMsg(t, "TEST", "1h", 1748822400, 70, 45)); err != nil {
		t.Fatalf("stale message should not error: %v", err)
	}
	if len(storage.stored) != 1 {
		t.Fatalf("stored = %d, want 1", len(storage.stored))
	}
	if metrics.errors["consumer_out_of_order"] != 1 {
		t.Fatalf("out_of_order = %d, want 1", metrics.errors["consumer_out_of_order"])
	}
}

func TestKafkaHandlerRejectsInvalid(t *testing.T) {
	metrics := newFakeMetrics()
	h := NewKafkaSnapshotsHandler("snapshots", &captureStorage{}, nil, engine.NewDetector(), nil, metrics)

	if err := h.Handle(context.Background(), []byte("{not json")); err == nil {
		t.Fatal("expected unmarshal error")
	}
	if err := h.Handle(context.Background(), updateMsg(t, "TEST", "2w", 1748822400, 50, 50)); err == nil {
		t.Fatal("expected invalid timeframe error")
	}
	if metrics.errors["consumer_unmarshal"] != 1 || metrics.errors["consumer_invalid"] != 1 {
		t.Fatalf("error counts = %v", metrics.errors)
	}
}
