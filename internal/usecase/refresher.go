package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tradehits/internal/domain/models"
	domrepo "tradehits/internal/domain/repository"
	"tradehits/internal/services/features"
	applogger "tradehits/pkg/logger"
)

// Opportunity score blends the fused strength with the raw growth composite
// so a symbol with thin intraday data still ranks on its daily growth.
const (
	oppWeightStrength = 0.8
	oppWeightGrowth   = 0.2
)

// UniverseEntry is one tracked symbol with its asset class.
type UniverseEntry struct {
	Symbol    string
	AssetType string
}

// OpportunityRefresher periodically rescans the symbol universe with a
// bounded worker pool and keeps the latest opportunity row per symbol in
// memory for the ranking endpoint.
type OpportunityRefresher struct {
	fused    *FusedSignalsUseCase
	store    domrepo.SnapshotStore
	metrics  domrepo.Metrics
	l        *applogger.Logger
	universe []UniverseEntry
	workers  int
	interval time.Duration

	mu   sync.RWMutex
	rows map[string]models.Opportunity

	stopCh  chan struct{}
	started bool
	stateMu sync.Mutex
}

func NewOpportunityRefresher(
	fused *FusedSignalsUseCase,
	store domrepo.SnapshotStore,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	universe []UniverseEntry,
	workers int,
	interval time.Duration,
) *OpportunityRefresher {
	if workers <= 0 {
		workers = 4
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &OpportunityRefresher{
		fused:    fused,
		store:    store,
		metrics:  metrics,
		l:        l,
		universe: universe,
		workers:  workers,
		interval: interval,
		rows:     make(map[string]models.Opportunity, len(universe)),
		stopCh:   make(chan struct{}),
	}
}

// Start launches the periodic refresh loop. The first scan runs immediately.
func (r *OpportunityRefresher) Start(ctx context.Context) {
	r.stateMu.Lock()
	if r.started {
		r.stateMu.Unlock()
		return
	}
	r.started = true
	r.stateMu.Unlock()

	go func() {
		r.RefreshAll(ctx)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.RefreshAll(ctx)
			}
		}
	}()
}

// Stop halts the refresh loop.
func (r *OpportunityRefresher) Stop() {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	if !r.started {
		return
	}
	r.started = false
	close(r.stopCh)
}

// RefreshAll rescans the whole universe with the bounded worker pool.
func (r *OpportunityRefresher) RefreshAll(ctx context.Context) {
	start := time.Now()
	jobs := make(chan UniverseEntry)
	var wg sync.WaitGroup

	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobs {
				if err := r.RefreshSymbol(ctx, entry); err != nil {
					r.metrics.RecordError("refresh_symbol")
					if r.l != nil {
						r.l.Warn("opportunity refresh failed",
							applogger.String("symbol", entry.Symbol),
							applogger.Error(err),
						)
					}
				}
			}
		}()
	}

	for _, entry := range r.universe {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return
		case jobs <- entry:
		}
	}
	close(jobs)
	wg.Wait()

	r.metrics.RecordLatency("refresh_universe", time.Since(start).Seconds())
	if r.l != nil {
		r.l.Info("opportunity universe refreshed",
			applogger.Int("symbols", len(r.universe)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
}

// RefreshSymbol recomputes one symbol's opportunity row.
func (r *OpportunityRefresher) RefreshSymbol(ctx context.Context, entry UniverseEntry) error {
	if entry.Symbol == "" {
		return fmt.Errorf("symbol required")
	}
	res, err := r.fused.GetFused(ctx, GetFusedParams{Symbol: entry.Symbol})
	if err != nil {
		return fmt.Errorf("fuse %s: %w", entry.Symbol, err)
	}
	if res.Fused == nil {
		return fmt.Errorf("no fused signal for %s", entry.Symbol)
	}

	row := models.Opportunity{
		Symbol:         entry.Symbol,
		AssetType:      entry.AssetType,
		Recommendation: res.Fused.Recommendation,
		Action:         res.Fused.Action,
		UpdatedAt:      time.Now(),
	}
	strength := res.Fused.OverallStrength
	row.Strength = &strength

	// Daily bar supplies the display fields and the growth leg of the score.
	growth := 0.0
	snaps, err := r.store.GetLatestN(ctx, entry.Symbol, 1, domrepo.TFDaily)
	if err == nil {
		if cur, _ := features.SplitLatest(snaps); cur != nil {
			growth = cur.GrowthScore
			closePx, vol := cur.Close, cur.Volume
			row.GrowthScore = &growth
			row.Close = &closePx
			row.Volume = &vol
		}
	}
	score := oppWeightStrength*strength + oppWeightGrowth*growth
	row.OpportunityScore = &score

	r.mu.Lock()
	r.rows[entry.Symbol] = row
	r.mu.Unlock()

	r.metrics.RecordLastStrength(entry.Symbol, strength)
	return nil
}

// Rows returns a copy of the current opportunity universe, symbol-ordered so
// repeated reads are deterministic before ranking.
func (r *OpportunityRefresher) Rows() []models.Opportunity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Opportunity, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
