package repository

import (
	"context"
	"time"

	"tradehits/internal/domain/models"
)

// SnapshotStream is the ingestion feed of indicator snapshots.
type SnapshotStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.IndicatorSnapshot, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher fans engine output out to downstream consumers.
type Publisher interface {
	PublishSnapshot(ctx context.Context, s *models.IndicatorSnapshot) error
	PublishSnapshotBatch(ctx context.Context, snaps []*models.IndicatorSnapshot) error
	PublishCrossover(ctx context.Context, ev *models.CrossoverEvent) error
	Close() error
}

// Storage persists snapshots and crossover events to the warehouse.
type Storage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, s *models.IndicatorSnapshot) error
	StoreBatch(ctx context.Context, snaps []*models.IndicatorSnapshot) error
	StoreCrossover(ctx context.Context, ev *models.CrossoverEvent) error
	QueryCrossovers(ctx context.Context, symbol string, limit int) ([]models.CrossoverEvent, error)
	Query(ctx context.Context, symbol string, from, to time.Time, tf Timeframe, limit int) ([]models.IndicatorSnapshot, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// Metrics records operational counters and latencies.
type Metrics interface {
	RecordMessageSent(backend, symbol string)
	RecordError(kind string)
	RecordLastStrength(symbol string, strength float64)
	RecordLatency(op string, seconds float64)
}
