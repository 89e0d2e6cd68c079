package engine

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"sync"
	"time"

	"tradehits/internal/domain/models"
)

// ErrOutOfOrder is returned when a snapshot older than the last one seen for
// a symbol reaches the detector. The caller must re-sequence or drop it.
var ErrOutOfOrder = errors.New("snapshot out of order")

const detectorShards = 32

// Crossover classification thresholds on the oscillator pair.
const (
	crossUpAMin         = 50.0
	crossUpBMin         = 40.0
	crossUpStrongAMin   = 65.0
	crossDownAMax       = 50.0
	crossDownBMax       = 60.0
	crossDownStrongAMax = 35.0
)

// Aux carries the externally supplied inputs for confidence boosting.
type Aux struct {
	BullRunProbability float64 // [0,1]
	SentimentScore     float64 // [-1,1]
}

type crossoverState struct {
	lastA   float64
	lastB   float64
	aAboveB bool
	lastTS  time.Time
}

type detectorShard struct {
	mu     sync.Mutex
	states map[string]*crossoverState
}

// Detector is a per-symbol edge detector over an oscillator pair. State is
// sharded by symbol hash and each shard holds its own lock, so at most one
// evaluation mutates a symbol's state at a time while different symbols
// proceed independently.
type Detector struct {
	shards [detectorShards]*detectorShard
}

// NewDetector creates an empty detector.
func NewDetector() *Detector {
	d := &Detector{}
	for i := range d.shards {
		d.shards[i] = &detectorShard{states: make(map[string]*crossoverState)}
	}
	return d
}

func (d *Detector) shardFor(symbol string) *detectorShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(symbol))
	return d.shards[h.Sum32()%detectorShards]
}

// Detect compares the oscillator pair against the stored ordering for the
// symbol and emits an event exactly when the ordering flips. The first
// observation for a symbol only seeds state. Snapshots must arrive in
// non-decreasing timestamp order per symbol.
func (d *Detector) Detect(symbol string, ts time.Time, oscA, oscB float64, aux Aux) (*models.CrossoverEvent, error) {
	sh := d.shardFor(symbol)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	cur := oscA > oscB
	st, ok := sh.states[symbol]
	if !ok {
		sh.states[symbol] = &crossoverState{lastA: oscA, lastB: oscB, aAboveB: cur, lastTS: ts}
		return nil, nil
	}
	if ts.Before(st.lastTS) {
		return nil, fmt.Errorf("%w: %s at %s, last seen %s", ErrOutOfOrder, symbol,
			ts.UTC().Format(time.RFC3339), st.lastTS.UTC().Format(time.RFC3339))
	}
	if cur == st.aAboveB {
		st.lastA, st.lastB, st.lastTS = oscA, oscB, ts
		return nil, nil
	}

	sig := classifyCrossover(cur, oscA, oscB)
	mag := math.Abs(oscA - oscB)
	conf := math.Min(1, mag/20+aux.BullRunProbability*0.4+0.3)
	if (aux.SentimentScore > 0.3 && sig.BuyType()) || (aux.SentimentScore < -0.3 && sig.SellType()) {
		conf *= 1.2
	}
	if conf > 1 {
		conf = 1
	}
	if conf < 0 {
		conf = 0
	}

	st.lastA, st.lastB, st.aAboveB, st.lastTS = oscA, oscB, cur, ts
	return &models.CrossoverEvent{
		Symbol:     symbol,
		Timestamp:  ts,
		SignalType: sig,
		Magnitude:  mag,
		Confidence: conf,
	}, nil
}

func classifyCrossover(aAboveB bool, oscA, oscB float64) models.SignalType {
	if aAboveB {
		switch {
		case oscA > crossUpAMin && oscB > crossUpBMin && oscA > crossUpStrongAMin:
			return models.SignalStrongBuy
		case oscA > crossUpAMin && oscB > crossUpBMin:
			return models.SignalBuy
		default:
			return models.SignalNeutral
		}
	}
	switch {
	case oscA < crossDownAMax && oscB < crossDownBMax && oscA < crossDownStrongAMax:
		return models.SignalStrongSell
	case oscA < crossDownAMax && oscB < crossDownBMax:
		return models.SignalSell
	default:
		return models.SignalNeutral
	}
}
