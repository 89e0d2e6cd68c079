package analytics

import (
	"context"
	"fmt"
	"time"

	"tradehits/internal/domain/models"
	domsvc "tradehits/internal/domain/service"
	"tradehits/pkg/cache"
	"tradehits/pkg/config"
)

// sentimentCacheTTL bounds how stale a cached sentiment score may be before
// the service is asked again.
const sentimentCacheTTL = 30 * time.Second

// HTTPSentimentProvider fetches per-symbol sentiment from the external
// sentiment service. Scores are memoized for a short TTL since every consumed
// snapshot asks for them. Crossover confidence uses these scores as an
// additive boost, so callers are expected to fall back to neutral on error.
type HTTPSentimentProvider struct {
	base     *HTTPServiceBase
	cache    cache.Service
	attempts int
}

func NewHTTPSentimentProvider(cfg *config.Config) *HTTPSentimentProvider {
	attempts := cfg.Sentiment.Retries
	if attempts <= 0 {
		attempts = 1
	}
	return &HTTPSentimentProvider{
		base:     NewHTTPServiceBase(cfg),
		cache:    cache.NewMemoryCache(),
		attempts: attempts,
	}
}

type sentimentReq struct {
	Symbol string `json:"symbol"`
}

type sentimentResp struct {
	BullRunProbability float64 `json:"bull_run_probability"`
	SentimentScore     float64 `json:"sentiment_score"`
}

func (s *HTTPSentimentProvider) Scores(ctx context.Context, symbol string) (models.SymbolSentiment, error) {
	key := cache.GenerateKey("sentiment", symbol)
	var raw interface{}
	if err := s.cache.Get(ctx, key, &raw); err == nil {
		if cached, ok := raw.(models.SymbolSentiment); ok {
			return cached, nil
		}
	}

	var sr sentimentResp
	err := s.base.PostJSONWithRetry(ctx, "/sentiment/score", sentimentReq{Symbol: symbol}, &sr, s.attempts)
	if err != nil {
		return models.SymbolSentiment{}, fmt.Errorf("fetch sentiment for %s: %w", symbol, err)
	}
	out := models.SymbolSentiment{
		Symbol:             symbol,
		BullRunProbability: clamp01(sr.BullRunProbability),
		SentimentScore:     clampSigned(sr.SentimentScore),
		Timestamp:          time.Now(),
	}
	_ = s.cache.Set(ctx, key, out, sentimentCacheTTL)
	return out, nil
}

var _ domsvc.SentimentProvider = (*HTTPSentimentProvider)(nil)

// NeutralSentimentProvider returns flat scores. Used when no sentiment
// service is configured so the engine keeps running without the boost.
type NeutralSentimentProvider struct{}

func (NeutralSentimentProvider) Scores(ctx context.Context, symbol string) (models.SymbolSentiment, error) {
	return models.SymbolSentiment{}, nil
}

var _ domsvc.SentimentProvider = NeutralSentimentProvider{}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampSigned(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
