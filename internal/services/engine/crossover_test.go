package engine

import (
	"errors"
	"sync"
	"testing"
	"time"

	"tradehits/internal/domain/models"
)

func ts(i int) time.Time {
	return time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute)
}

func TestDetectColdStartNoEvent(t *testing.T) {
	d := NewDetector()
	ev, err := d.Detect("AAPL", ts(0), 60, 50, Aux{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev != nil {
		t.Fatalf("first observation must not emit, got %+v", ev)
	}
}

func TestDetectEmitsExactlyOnceOnSingleFlip(t *testing.T) {
	d := NewDetector()
	// A below B, then above, then stays above
	seq := []struct{ a, b float64 }{{40, 50}, {45, 48}, {66, 45}, {70, 46}, {72, 47}}
	events := 0
	for i, s := range seq {
		ev, err := d.Detect("AAPL", ts(i), s.a, s.b, Aux{})
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if ev != nil {
			events++
			if ev.SignalType != models.SignalStrongBuy {
				t.Fatalf("signal type = %s, want STRONG_BUY (A=66>65, B=45>40)", ev.SignalType)
			}
			if ev.Magnitude != 21 {
				t.Fatalf("magnitude = %v, want 21", ev.Magnitude)
			}
		}
	}
	if events != 1 {
		t.Fatalf("events = %d, want exactly 1 for a single sign change", events)
	}
}

func TestDetectNoFlipNoEvents(t *testing.T) {
	d := NewDetector()
	for i := 0; i < 10; i++ {
		ev, err := d.Detect("MSFT", ts(i), 60+float64(i), 40, Aux{})
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if ev != nil {
			t.Fatalf("no ordering change but event emitted at step %d", i)
		}
	}
}

func TestDetectDownwardClassification(t *testing.T) {
	d := NewDetector()
	if _, err := d.Detect("TSLA", ts(0), 60, 40, Aux{}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	ev, err := d.Detect("TSLA", ts(1), 30, 55, Aux{})
	if err != nil {
		t.Fatalf("flip: %v", err)
	}
	if ev == nil {
		t.Fatalf("expected event on downward flip")
	}
	if ev.SignalType != models.SignalStrongSell {
		t.Fatalf("signal type = %s, want STRONG_SELL (A=30<35, B=55<60)", ev.SignalType)
	}
}

func TestDetectNeutralFlip(t *testing.T) {
	d := NewDetector()
	if _, err := d.Detect("NVDA", ts(0), 30, 45, Aux{}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// upward flip but A too weak for a buy signal
	ev, err := d.Detect("NVDA", ts(1), 46, 45, Aux{})
	if err != nil {
		t.Fatalf("flip: %v", err)
	}
	if ev == nil || ev.SignalType != models.SignalNeutral {
		t.Fatalf("got %+v, want NEUTRAL event", ev)
	}
}

func TestDetectConfidence(t *testing.T) {
	d := NewDetector()
	if _, err := d.Detect("AMD", ts(0), 40, 50, Aux{}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// magnitude 10 -> 10/20 + 0.5*0.4 + 0.3 = 1.0 exactly
	ev, err := d.Detect("AMD", ts(1), 60, 50, Aux{BullRunProbability: 0.5})
	if err != nil {
		t.Fatalf("flip: %v", err)
	}
	if ev.Confidence != 1 {
		t.Fatalf("confidence = %v, want 1", ev.Confidence)
	}
}

func TestDetectSentimentBoostClamped(t *testing.T) {
	d := NewDetector()
	if _, err := d.Detect("META", ts(0), 40, 50, Aux{}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// base = min(1, 4/20 + 0 + 0.3) = 0.5; buy-type with sentiment > 0.3 -> 0.6
	ev, err := d.Detect("META", ts(1), 55, 51, Aux{SentimentScore: 0.5})
	if err != nil {
		t.Fatalf("flip: %v", err)
	}
	if !ev.SignalType.BuyType() {
		t.Fatalf("signal type = %s, want buy-type", ev.SignalType)
	}
	if got := ev.Confidence; got < 0.5999 || got > 0.6001 {
		t.Fatalf("confidence = %v, want 0.6", got)
	}
	if ev.Confidence > 1 {
		t.Fatalf("confidence must be clamped to [0,1]")
	}
}

func TestDetectRejectsOutOfOrder(t *testing.T) {
	d := NewDetector()
	if _, err := d.Detect("GOOG", ts(5), 60, 50, Aux{}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_, err := d.Detect("GOOG", ts(3), 40, 50, Aux{})
	if !errors.Is(err, ErrOutOfOrder) {
		t.Fatalf("err = %v, want ErrOutOfOrder", err)
	}
	// state must be unchanged: the next in-order flip still emits
	ev, err := d.Detect("GOOG", ts(6), 40, 50, Aux{})
	if err != nil {
		t.Fatalf("in-order after reject: %v", err)
	}
	if ev == nil {
		t.Fatalf("expected event, rejected snapshot must not advance state")
	}
}

func TestDetectSymbolsIndependent(t *testing.T) {
	d := NewDetector()
	var wg sync.WaitGroup
	symbols := []string{"AAPL", "MSFT", "TSLA", "NVDA", "AMD", "META", "GOOG", "AMZN"}
	for _, sym := range symbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				a := 40.0
				if i%2 == 1 {
					a = 60.0
				}
				if _, err := d.Detect(sym, ts(i), a, 50, Aux{}); err != nil {
					t.Errorf("%s step %d: %v", sym, i, err)
					return
				}
			}
		}(sym)
	}
	wg.Wait()
}
