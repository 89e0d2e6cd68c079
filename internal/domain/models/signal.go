package models

import "time"

// Recommendation is the graded opinion assigned by the strength classifier.
type Recommendation string

const (
	RecStrongBuy  Recommendation = "STRONG_BUY"
	RecBuy        Recommendation = "BUY"
	RecHold       Recommendation = "HOLD"
	RecSell       Recommendation = "SELL"
	RecStrongSell Recommendation = "STRONG_SELL"
	// RecAvoid appears only on fused signals, below the HOLD band.
	RecAvoid Recommendation = "AVOID"
)

// Bullish reports whether the label is a buy-side opinion.
func (r Recommendation) Bullish() bool {
	return r == RecStrongBuy || r == RecBuy
}

// Rank orders labels from most bearish (0) to most bullish (4).
func (r Recommendation) Rank() int {
	switch r {
	case RecStrongSell:
		return 0
	case RecSell:
		return 1
	case RecHold:
		return 2
	case RecBuy:
		return 3
	case RecStrongBuy:
		return 4
	default:
		return 2
	}
}

// EntrySignal marks execution-timing triggers on the five-minute scorer.
type EntrySignal string

const (
	EntryNone         EntrySignal = ""
	EntryBuyNow       EntrySignal = "BUY_NOW"
	EntrySellNow      EntrySignal = "SELL_NOW"
	EntryConsiderBuy  EntrySignal = "CONSIDER_BUY"
	EntryConsiderSell EntrySignal = "CONSIDER_SELL"
)

// TimeframeSignal is the graded opinion for one (symbol, timeframe) snapshot.
// Created fresh on every scoring call; never persisted.
type TimeframeSignal struct {
	Symbol         string             `json:"symbol"`
	Timeframe      string             `json:"timeframe"`
	Strength       float64            `json:"strength"`
	Recommendation Recommendation     `json:"recommendation"`
	EntrySignal    EntrySignal        `json:"entry_signal,omitempty"`
	Factors        []string           `json:"factors"`
	Metrics        map[string]float64 `json:"metrics"`
	Timestamp      time.Time          `json:"timestamp"`
}

// SignalType classifies a crossover flip.
type SignalType string

const (
	SignalStrongBuy  SignalType = "STRONG_BUY"
	SignalBuy        SignalType = "BUY"
	SignalSell       SignalType = "SELL"
	SignalStrongSell SignalType = "STRONG_SELL"
	SignalNeutral    SignalType = "NEUTRAL"
)

// BuyType reports whether the signal is buy-side.
func (t SignalType) BuyType() bool { return t == SignalStrongBuy || t == SignalBuy }

// SellType reports whether the signal is sell-side.
func (t SignalType) SellType() bool { return t == SignalStrongSell || t == SignalSell }

// CrossoverEvent is emitted exactly when the relative ordering of the two
// compared oscillators flips between consecutive snapshots.
type CrossoverEvent struct {
	Symbol     string     `json:"symbol"`
	Timestamp  time.Time  `json:"timestamp"`
	SignalType SignalType `json:"signal_type"`
	Magnitude  float64    `json:"magnitude"`
	Confidence float64    `json:"confidence"`
}

// Action is the trade posture derived from a fused signal.
type Action string

const (
	ActionExecuteBuy Action = "EXECUTE_BUY"
	ActionPrepareBuy Action = "PREPARE_BUY"
	ActionMonitor    Action = "MONITOR"
	ActionStayOut    Action = "STAY_OUT"
)

// FusedSignal combines up to three timeframe signals into one opinion.
type FusedSignal struct {
	Symbol          string          `json:"symbol"`
	OverallStrength float64         `json:"overall_strength"`
	Recommendation  Recommendation  `json:"recommendation"`
	Alignment       map[string]bool `json:"alignment"`
	AllAligned      bool            `json:"all_aligned"`
	Action          Action          `json:"action"`
	Factors         []string        `json:"factors"`
	Timestamp       time.Time       `json:"timestamp"`
}

// SymbolSentiment carries the externally computed auxiliary scores consumed
// by crossover confidence boosting.
type SymbolSentiment struct {
	Symbol             string    `json:"symbol"`
	BullRunProbability float64   `json:"bull_run_probability"` // [0,1]
	SentimentScore     float64   `json:"sentiment_score"`      // [-1,1]
	Timestamp          time.Time `json:"timestamp"`
}

// Opportunity is one row of the ranked universe shown to the presentation
// layer. Optional numerics are pointers so the ranker can treat absent
// values as zero without conflating them with real zeros.
type Opportunity struct {
	Symbol           string         `json:"symbol"`
	AssetType        string         `json:"asset_type,omitempty"`
	Recommendation   Recommendation `json:"recommendation"`
	Action           Action         `json:"action,omitempty"`
	OpportunityScore *float64       `json:"opportunity_score,omitempty"`
	Strength         *float64       `json:"strength,omitempty"`
	GrowthScore      *float64       `json:"growth_score,omitempty"`
	Close            *float64       `json:"close,omitempty"`
	Volume           *float64       `json:"volume,omitempty"`
	UpdatedAt        time.Time      `json:"updated_at"`
}
