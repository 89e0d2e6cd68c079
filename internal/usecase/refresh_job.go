package usecase

import (
	"context"
	"fmt"

	"tradehits/pkg/queue"
)

// RefreshJobType is the queue message type that triggers a single-symbol
// opportunity refresh.
const RefreshJobType = "opportunity.refresh"

// RefreshJobPayload is the wire payload of a refresh request.
type RefreshJobPayload struct {
	Symbol    string `json:"symbol"`
	AssetType string `json:"asset_type,omitempty"`
}

// RefreshJob handles queued single-symbol refreshes, so external producers
// can force a rescan outside the periodic loop.
type RefreshJob struct {
	refresher *OpportunityRefresher
}

func NewRefreshJob(refresher *OpportunityRefresher) *RefreshJob {
	return &RefreshJob{refresher: refresher}
}

func (j *RefreshJob) Name() string { return "opportunity-refresher" }

func (j *RefreshJob) Type() string { return RefreshJobType }

func (j *RefreshJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[RefreshJobPayload](payload)
	if err != nil {
		return fmt.Errorf("parse refresh payload: %w", err)
	}
	return j.refresher.RefreshSymbol(ctx, UniverseEntry{Symbol: p.Symbol, AssetType: p.AssetType})
}

var _ queue.Job = (*RefreshJob)(nil)
