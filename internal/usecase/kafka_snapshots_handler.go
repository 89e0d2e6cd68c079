package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tradehits/internal/domain/models"
	domrepo "tradehits/internal/domain/repository"
	domsvc "tradehits/internal/domain/service"
	"tradehits/internal/services/engine"
	pkgkafka "tradehits/pkg/kafka"
)

// KafkaSnapshotsHandler consumes snapshot messages, persists them and feeds
// the crossover detector. Out-of-order snapshots are dropped, not retried.
type KafkaSnapshotsHandler struct {
	topic     string
	storage   domrepo.Storage
	publisher domrepo.Publisher
	detector  *engine.Detector
	sentiment domsvc.SentimentProvider
	metrics   domrepo.Metrics
}

func NewKafkaSnapshotsHandler(
	topic string,
	storage domrepo.Storage,
	publisher domrepo.Publisher,
	detector *engine.Detector,
	sentiment domsvc.SentimentProvider,
	metrics domrepo.Metrics,
) *KafkaSnapshotsHandler {
	return &KafkaSnapshotsHandler{
		topic:     topic,
		storage:   storage,
		publisher: publisher,
		detector:  detector,
		sentiment: sentiment,
		metrics:   metrics,
	}
}

func (h *KafkaSnapshotsHandler) Topic() string { return h.topic }

func (h *KafkaSnapshotsHandler) Handle(ctx context.Context, b []byte) error {
	var update models.SnapshotUpdate
	if err := json.Unmarshal(b, &update); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	snap := update.Snapshot()
	if snap.Symbol == "" || !domrepo.IsValidTimeframe(domrepo.Timeframe(snap.Timeframe)) {
		h.metrics.RecordError("consumer_invalid")
		return fmt.Errorf("invalid snapshot: symbol=%q tf=%q", snap.Symbol, snap.Timeframe)
	}
	snap.Sanitize()

	// E2E latency from event time to now (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(snap.Timestamp).Seconds())

	// Detector state is per symbol and timeframe; ordering is enforced there.
	key := snap.Symbol + "|" + snap.Timeframe
	aux := engine.Aux{}
	if h.sentiment != nil {
		if sc, err := h.sentiment.Scores(ctx, snap.Symbol); err == nil {
			aux.BullRunProbability = sc.BullRunProbability
			aux.SentimentScore = sc.SentimentScore
		}
	}
	ev, err := h.detector.Detect(key, snap.Timestamp, snap.GrowthScore, snap.RSI, aux)
	if err != nil {
		if errors.Is(err, engine.ErrOutOfOrder) {
			h.metrics.RecordError("consumer_out_of_order")
			return nil
		}
		h.metrics.RecordError("consumer_detect")
		return err
	}

	start := time.Now()
	if err := h.storage.Store(ctx, &snap); err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	h.metrics.RecordMessageSent("clickhouse", snap.Symbol)

	if ev != nil {
		ev.Symbol = snap.Symbol
		if err := h.storage.StoreCrossover(ctx, ev); err != nil {
			h.metrics.RecordError("consumer_crossover_store")
			return err
		}
		if h.publisher != nil {
			if err := h.publisher.PublishCrossover(ctx, ev); err != nil {
				h.metrics.RecordError("consumer_crossover_publish")
			}
		}
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaSnapshotsHandler)(nil)
