package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tradehits/internal/domain/models"
	domrepo "tradehits/internal/domain/repository"
	"tradehits/internal/services/engine"
)

// FusedSignalsUseCase scores all three timeframes concurrently and fuses
// them into one recommendation. A failed timeframe is reported in the
// Errors map and the remaining weights are renormalized by the fuser.
type FusedSignalsUseCase struct {
	eng     *SignalEngine
	timeout time.Duration
}

func NewFusedSignalsUseCase(eng *SignalEngine) *FusedSignalsUseCase {
	return &FusedSignalsUseCase{eng: eng, timeout: 10 * time.Second}
}

type GetFusedParams struct {
	Symbol string
}

func (uc *FusedSignalsUseCase) GetFused(ctx context.Context, p GetFusedParams) (*models.FusedResult, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}

	// Overall timeout
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	res := &models.FusedResult{
		Symbol:    p.Symbol,
		Timestamp: time.Now(),
		Signals:   map[string]*models.TimeframeSignal{},
		Errors:    map[string]string{},
	}

	type item struct {
		tf  domrepo.Timeframe
		sig *models.TimeframeSignal
		err error
	}
	tfs := []domrepo.Timeframe{domrepo.TFDaily, domrepo.TFHourly, domrepo.TFFiveMin}
	ch := make(chan item, len(tfs))
	var wg sync.WaitGroup

	for _, tf := range tfs {
		wg.Add(1)
		go func(tf domrepo.Timeframe) {
			defer wg.Done()
			sig, err := uc.eng.ScoreTimeframe(ctx, p.Symbol, tf)
			ch <- item{tf, sig, err}
		}(tf)
	}

	go func() { wg.Wait(); close(ch) }()

	for it := range ch {
		if it.err != nil {
			res.Errors[string(it.tf)] = it.err.Error()
			continue
		}
		res.Signals[string(it.tf)] = it.sig
	}

	fused := engine.Fuse(
		res.Signals[string(domrepo.TFDaily)],
		res.Signals[string(domrepo.TFHourly)],
		res.Signals[string(domrepo.TFFiveMin)],
	)
	fused.Symbol = p.Symbol
	fused.Timestamp = res.Timestamp
	res.Fused = &fused

	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	return res, nil
}
