package models

import "time"

// FusedResult is the consolidated multi-timeframe view for one symbol.
// Note: no transport (json/http) concerns beyond field naming here.
type FusedResult struct {
	Symbol    string                      `json:"symbol"`
	Timestamp time.Time                   `json:"timestamp"`
	Fused     *FusedSignal                `json:"fused,omitempty"`
	Signals   map[string]*TimeframeSignal `json:"signals,omitempty"`
	Errors    map[string]string           `json:"errors,omitempty"`
}
