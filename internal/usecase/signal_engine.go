package usecase

import (
	"context"
	"fmt"

	"tradehits/internal/domain/models"
	domrepo "tradehits/internal/domain/repository"
	"tradehits/internal/services/engine"
	"tradehits/internal/services/features"
)

// SignalEngine scores one symbol on one timeframe from the stored snapshot
// window. Fusion across timeframes lives in FusedSignalsUseCase.
type SignalEngine struct {
	store domrepo.SnapshotStore
}

func NewSignalEngine(store domrepo.SnapshotStore) *SignalEngine {
	return &SignalEngine{store: store}
}

// lookback covers the rolling volume average plus the current bar.
const lookback = domrepo.VolumeWindow + 1

func (e *SignalEngine) ScoreTimeframe(ctx context.Context, symbol string, tf domrepo.Timeframe) (*models.TimeframeSignal, error) {
	snaps, err := e.store.GetLatestN(ctx, symbol, lookback, tf)
	if err != nil {
		return nil, fmt.Errorf("load window %s/%s: %w", symbol, tf, err)
	}
	cur, prev := features.SplitLatest(snaps)
	if cur == nil {
		return nil, fmt.Errorf("no snapshots for %s/%s", symbol, tf)
	}
	sig := engine.Score(tf, engine.Input{
		Snapshot:  *cur,
		Prev:      prev,
		AvgVolume: features.TrailingAvgVolume(snaps),
	})

	// Annotate with realized volatility when the window is deep enough.
	rets := features.ComputeLogReturns(snaps)
	if vol := features.RealizedVolatility(rets, domrepo.VolumeWindow, features.BarsPerYearForTF(tf)); vol > 0 {
		if sig.Metrics == nil {
			sig.Metrics = map[string]float64{}
		}
		sig.Metrics["realized_vol"] = vol
	}
	return &sig, nil
}
