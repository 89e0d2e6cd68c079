package usecase

import (
	"context"
	"fmt"
	"time"

	"tradehits/internal/domain/models"
	domrepo "tradehits/internal/domain/repository"
)

// SnapshotsUseCase provides business logic for retrieving stored snapshots.
type SnapshotsUseCase struct {
	store domrepo.SnapshotStore
}

func NewSnapshotsUseCase(store domrepo.SnapshotStore) *SnapshotsUseCase {
	return &SnapshotsUseCase{store: store}
}

type GetSnapshotsParams struct {
	Symbol    string
	From      time.Time
	To        time.Time
	Timeframe domrepo.Timeframe
	Limit     int
}

type GetSnapshotsResult struct {
	Symbol    string
	Timeframe string
	From      time.Time
	To        time.Time
	Count     int
	Snapshots []models.IndicatorSnapshot
}

func (uc *SnapshotsUseCase) GetSnapshots(ctx context.Context, p GetSnapshotsParams) (*GetSnapshotsResult, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}
	if p.Limit <= 0 {
		p.Limit = 10000
	}
	if p.Limit > 50000 {
		p.Limit = 50000
	}

	snaps, err := uc.store.GetSnapshots(ctx, p.Symbol, p.From, p.To, p.Timeframe)
	if err != nil {
		return nil, fmt.Errorf("get snapshots: %w", err)
	}
	if len(snaps) > p.Limit {
		snaps = snaps[:p.Limit]
	}

	return &GetSnapshotsResult{
		Symbol:    p.Symbol,
		Timeframe: string(p.Timeframe),
		From:      p.From,
		To:        p.To,
		Count:     len(snaps),
		Snapshots: snaps,
	}, nil
}
