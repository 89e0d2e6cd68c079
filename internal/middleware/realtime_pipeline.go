package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tradehits/internal/domain/models"
	domrepo "tradehits/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, snap *models.IndicatorSnapshot) error
}

// RealtimePipeline sits between the feed stream and the backend. It
// validates, rejects stale snapshots, throttles per stream key, and buffers
// when downstream is unavailable.
type RealtimePipeline struct {
	proc     Proc
	metrics  domrepo.Metrics
	maxRPS   int
	bufSize  int
	bufCh    chan *models.IndicatorSnapshot
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[string]time.Time // per stream key, last accepted wall time
	lastTS   map[string]time.Time // per stream key, last accepted event time
	// simple format transform hook (optional)
	transform func(*models.IndicatorSnapshot) *models.IndicatorSnapshot
	// metrics
	bufDepthGauge func(int)
	throttleWarn  func(string)
}

type PipelineOption func(*RealtimePipeline)

// WithMaxRPS sets the max snapshots per second per stream key.
func WithMaxRPS(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithTransform sets a transformation hook to modify snapshot format.
func WithTransform(fn func(*models.IndicatorSnapshot) *models.IndicatorSnapshot) PipelineOption {
	return func(p *RealtimePipeline) { p.transform = fn }
}

// NewRealtimePipeline creates a new pipeline.
func NewRealtimePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *RealtimePipeline {
	p := &RealtimePipeline{
		proc:     proc,
		metrics:  metrics,
		maxRPS:   20,   // default throttle per stream key
		bufSize:  1000, // default buffer
		bufCh:    make(chan *models.IndicatorSnapshot, 1000),
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
		lastTS:   make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan *models.IndicatorSnapshot, p.bufSize)
	}
	// metrics hooks using domain metrics if available
	p.bufDepthGauge = func(n int) { p.metrics.RecordLatency("pipeline_buffer_depth", float64(n)) }
	p.throttleWarn = func(key string) { p.metrics.RecordError("pipeline_throttle_" + key) }
	return p
}

// Start launches background flushing of buffered snapshots.
func (p *RealtimePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case snap := <-p.bufCh:
				if snap == nil {
					continue
				}
				if err := p.proc.Process(ctx, snap); err != nil {
					// exponential backoff with cap
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- snap:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *RealtimePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, rejects out-of-order snapshots, throttles, and forwards
// to downstream, buffering on errors.
func (p *RealtimePipeline) Process(ctx context.Context, snap *models.IndicatorSnapshot) error {
	start := time.Now()
	if err := validateSnapshot(snap); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if p.transform != nil {
		snap = p.transform(snap)
		if err := validateSnapshot(snap); err != nil {
			p.metrics.RecordError("pipeline_transform_invalid")
			return err
		}
	}
	key := snap.Symbol + "|" + snap.Timeframe
	if !p.accept(key, snap.Timestamp) {
		// stale event time; drop, a rewind must not corrupt detector state
		p.metrics.RecordError("pipeline_out_of_order")
		return nil
	}
	if !p.allow(key, start) {
		// throttled; record and drop silently
		p.metrics.RecordError("pipeline_throttle")
		if p.throttleWarn != nil {
			p.throttleWarn(key)
		}
		return nil
	}

	if err := p.proc.Process(ctx, snap); err != nil {
		p.metrics.RecordError("pipeline_process")
		// buffer non-blocking
		select {
		case p.bufCh <- snap:
			if p.bufDepthGauge != nil {
				p.bufDepthGauge(len(p.bufCh))
			}
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateSnapshot(snap *models.IndicatorSnapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot nil")
	}
	if snap.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if !domrepo.IsValidTimeframe(domrepo.Timeframe(snap.Timeframe)) {
		return fmt.Errorf("timeframe invalid: %s", snap.Timeframe)
	}
	if snap.Timestamp.IsZero() {
		return fmt.Errorf("timestamp invalid")
	}
	if snap.Close < 0 || snap.Volume < 0 {
		return fmt.Errorf("negative close/volume")
	}
	return nil
}

// accept rejects snapshots whose event time moves backwards for a stream key.
func (p *RealtimePipeline) accept(key string, ts time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastTS[key]
	if ts.Before(last) {
		return false
	}
	p.lastTS[key] = ts
	return true
}

func (p *RealtimePipeline) allow(key string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	// simple throttle: ensure at most maxRPS per second
	last := p.lastSeen[key]
	if last.IsZero() {
		p.lastSeen[key] = now
		return true
	}
	if now.Sub(last) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSeen[key] = now
	return true
}
