package repository

import (
	"context"
	"time"

	"tradehits/internal/domain/models"
)

// Timeframe represents the scoring resolution buckets.
type Timeframe string

const (
	TFDaily   Timeframe = "1d"
	TFHourly  Timeframe = "1h"
	TFFiveMin Timeframe = "5m"
)

// VolumeWindow is the trailing snapshot count used for the rolling volume
// average; the longest lookback any scorer needs.
const VolumeWindow = 20

// SnapshotStore provides read-only access to indicator snapshots.
// Implementations must return snapshots in ascending timestamp order and
// retain at least VolumeWindow+1 recent snapshots per (symbol, timeframe).
type SnapshotStore interface {
	GetSnapshots(ctx context.Context, symbol string, from, to time.Time, tf Timeframe) ([]models.IndicatorSnapshot, error)
	GetLatestN(ctx context.Context, symbol string, n int, tf Timeframe) ([]models.IndicatorSnapshot, error)
}
