package models

import (
	"math"
	"time"
)

// Neutral defaults applied when a snapshot field is absent or unusable.
// Every fallback in the engine goes through these named constants.
const (
	DefaultRSI           = 50.0
	DefaultMACD          = 0.0
	DefaultMACDSignal    = 0.0
	DefaultMACDHistogram = 0.0
	DefaultGrowthScore   = 0.0
	DefaultEMA           = 0.0
	DefaultSMA200        = 0.0
	DefaultVWAP          = 0.0
)

// IndicatorSnapshot is one observation of an asset at a timeframe, produced
// by the ingestion side and immutable once stored. The engine only reads it.
type IndicatorSnapshot struct {
	Symbol        string    `json:"symbol"`
	Timeframe     string    `json:"timeframe"`
	Timestamp     time.Time `json:"timestamp"`
	Close         float64   `json:"close"`
	Volume        float64   `json:"volume"`
	RSI           float64   `json:"rsi"`
	MACD          float64   `json:"macd"`
	MACDSignal    float64   `json:"macd_signal"`
	MACDHistogram float64   `json:"macd_histogram"`
	EMAFast       float64   `json:"ema_fast"`
	EMASlow       float64   `json:"ema_slow"`
	GrowthScore   float64   `json:"growth_score"`
	PivotLowFlag  bool      `json:"pivot_low_flag"`
	PivotHighFlag bool      `json:"pivot_high_flag"`
	SMA200        float64   `json:"sma_200"`
	VWAP          float64   `json:"vwap"`
}

// Sanitize replaces non-finite or physically impossible values with their
// neutral defaults, field by field, and returns one degraded-input tag per
// replaced field. A bad field never aborts scoring of the whole snapshot.
func (s *IndicatorSnapshot) Sanitize() []string {
	var degraded []string

	if !isFinite(s.Close) || s.Close < 0 {
		s.Close = 0
		degraded = append(degraded, "Degraded Input: close")
	}
	if !isFinite(s.Volume) || s.Volume < 0 {
		s.Volume = 0
		degraded = append(degraded, "Degraded Input: volume")
	}
	if !isFinite(s.RSI) || s.RSI < 0 || s.RSI > 100 {
		s.RSI = DefaultRSI
		degraded = append(degraded, "Degraded Input: rsi")
	}
	if !isFinite(s.MACD) {
		s.MACD = DefaultMACD
		degraded = append(degraded, "Degraded Input: macd")
	}
	if !isFinite(s.MACDSignal) {
		s.MACDSignal = DefaultMACDSignal
		degraded = append(degraded, "Degraded Input: macd_signal")
	}
	if !isFinite(s.MACDHistogram) {
		s.MACDHistogram = DefaultMACDHistogram
		degraded = append(degraded, "Degraded Input: macd_histogram")
	}
	if !isFinite(s.EMAFast) {
		s.EMAFast = DefaultEMA
		degraded = append(degraded, "Degraded Input: ema_fast")
	}
	if !isFinite(s.EMASlow) {
		s.EMASlow = DefaultEMA
		degraded = append(degraded, "Degraded Input: ema_slow")
	}
	if !isFinite(s.GrowthScore) || s.GrowthScore < 0 || s.GrowthScore > 100 {
		s.GrowthScore = DefaultGrowthScore
		degraded = append(degraded, "Degraded Input: growth_score")
	}
	if !isFinite(s.SMA200) || s.SMA200 < 0 {
		s.SMA200 = DefaultSMA200
		degraded = append(degraded, "Degraded Input: sma_200")
	}
	if !isFinite(s.VWAP) || s.VWAP < 0 {
		s.VWAP = DefaultVWAP
		degraded = append(degraded, "Degraded Input: vwap")
	}
	return degraded
}

// SnapshotUpdate is the wire form of a snapshot as produced by the ingestion
// collaborator. Numeric fields are pointers so that absent/null values can be
// told apart from zero and resolved to the documented neutral defaults.
type SnapshotUpdate struct {
	Symbol        string   `json:"symbol"`
	Timeframe     string   `json:"timeframe"`
	Timestamp     int64    `json:"timestamp"` // unix seconds (ms accepted)
	Close         *float64 `json:"close"`
	Volume        *float64 `json:"volume"`
	RSI           *float64 `json:"rsi"`
	MACD          *float64 `json:"macd"`
	MACDSignal    *float64 `json:"macd_signal"`
	MACDHistogram *float64 `json:"macd_histogram"`
	EMAFast       *float64 `json:"ema_fast"`
	EMASlow       *float64 `json:"ema_slow"`
	GrowthScore   *float64 `json:"growth_score"`
	PivotLowFlag  *bool    `json:"pivot_low_flag"`
	PivotHighFlag *bool    `json:"pivot_high_flag"`
	SMA200        *float64 `json:"sma_200"`
	VWAP          *float64 `json:"vwap"`
}

// Snapshot resolves the update into a full IndicatorSnapshot, filling every
// missing field with its neutral default. Missing fields are not an error.
func (u *SnapshotUpdate) Snapshot() IndicatorSnapshot {
	ts := u.Timestamp
	if ts > 1e11 { // ms
		ts = ts / 1000
	}
	return IndicatorSnapshot{
		Symbol:        u.Symbol,
		Timeframe:     u.Timeframe,
		Timestamp:     time.Unix(ts, 0).UTC(),
		Close:         orDefault(u.Close, 0),
		Volume:        orDefault(u.Volume, 0),
		RSI:           orDefault(u.RSI, DefaultRSI),
		MACD:          orDefault(u.MACD, DefaultMACD),
		MACDSignal:    orDefault(u.MACDSignal, DefaultMACDSignal),
		MACDHistogram: orDefault(u.MACDHistogram, DefaultMACDHistogram),
		EMAFast:       orDefault(u.EMAFast, DefaultEMA),
		EMASlow:       orDefault(u.EMASlow, DefaultEMA),
		GrowthScore:   orDefault(u.GrowthScore, DefaultGrowthScore),
		PivotLowFlag:  u.PivotLowFlag != nil && *u.PivotLowFlag,
		PivotHighFlag: u.PivotHighFlag != nil && *u.PivotHighFlag,
		SMA200:        orDefault(u.SMA200, DefaultSMA200),
		VWAP:          orDefault(u.VWAP, DefaultVWAP),
	}
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
