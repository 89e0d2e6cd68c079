package models

import (
	"math"
	"testing"
	"time"
)

func TestSanitizeReplacesBadFields(t *testing.T) {
	s := IndicatorSnapshot{
		Symbol:      "TEST",
		Close:       100,
		Volume:      -5,
		RSI:         140,
		MACD:        math.NaN(),
		GrowthScore: 42,
	}
	degraded := s.Sanitize()

	if s.Volume != 0 {
		t.Fatalf("volume = %v, want 0", s.Volume)
	}
	if s.RSI != DefaultRSI {
		t.Fatalf("rsi = %v, want %v", s.RSI, DefaultRSI)
	}
	if s.MACD != DefaultMACD {
		t.Fatalf("macd = %v, want %v", s.MACD, DefaultMACD)
	}
	// valid fields untouched
	if s.Close != 100 || s.GrowthScore != 42 {
		t.Fatalf("valid fields changed: close=%v growth=%v", s.Close, s.GrowthScore)
	}
	if len(degraded) != 3 {
		t.Fatalf("degraded tags = %v, want 3", degraded)
	}
}

func TestSanitizeCleanSnapshot(t *testing.T) {
	s := IndicatorSnapshot{Close: 10, Volume: 100, RSI: 50, GrowthScore: 60}
	if degraded := s.Sanitize(); len(degraded) != 0 {
		t.Fatalf("degraded = %v, want none", degraded)
	}
}

func TestSnapshotUpdateFillsDefaults(t *testing.T) {
	u := SnapshotUpdate{
		Symbol:    "TEST",
		Timeframe: "1h",
		Timestamp: 1748822400, // 2025-06-02T00:00:00Z
	}
	s := u.Snapshot()

	if s.RSI != DefaultRSI {
		t.Fatalf("rsi = %v, want neutral default", s.RSI)
	}
	if s.Close != 0 || s.Volume != 0 {
		t.Fatalf("close/volume = %v/%v, want zeros", s.Close, s.Volume)
	}
	if s.PivotLowFlag || s.PivotHighFlag {
		t.Fatal("pivot flags should default to false")
	}
	want := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	if !s.Timestamp.Equal(want) {
		t.Fatalf("timestamp = %v, want %v", s.Timestamp, want)
	}
}

func TestSnapshotUpdateMillisecondTimestamp(t *testing.T) {
	u := SnapshotUpdate{Symbol: "TEST", Timeframe: "1d", Timestamp: 1748822400000}
	s := u.Snapshot()
	want := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	if !s.Timestamp.Equal(want) {
		t.Fatalf("timestamp = %v, want %v", s.Timestamp, want)
	}
}

func TestSnapshotUpdateKeepsExplicitValues(t *testing.T) {
	rsi := 31.5
	pivot := true
	u := SnapshotUpdate{Symbol: "TEST", Timeframe: "5m", Timestamp: 1, RSI: &rsi, PivotLowFlag: &pivot}
	s := u.Snapshot()
	if s.RSI != 31.5 || !s.PivotLowFlag {
		t.Fatalf("rsi/pivot = %v/%v, want 31.5/true", s.RSI, s.PivotLowFlag)
	}
}
