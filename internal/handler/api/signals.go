package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"tradehits/internal/domain/models"
	domrepo "tradehits/internal/domain/repository"
	icache "tradehits/internal/service/cache"
	"tradehits/internal/service/metrics"
	"tradehits/internal/service/ratelimit"
	"tradehits/internal/services/engine"
	"tradehits/internal/usecase"
	applogger "tradehits/pkg/logger"
)

type SignalsHandler struct {
	eng       *usecase.SignalEngine
	fused     *usecase.FusedSignalsUseCase
	storage   domrepo.Storage
	refresher *usecase.OpportunityRefresher
	cache     icache.BytesCache
	rl        *ratelimit.Limiter
	l         *applogger.Logger
}

func NewSignalsHandler(eng *usecase.SignalEngine, fused *usecase.FusedSignalsUseCase, storage domrepo.Storage, refresher *usecase.OpportunityRefresher) *SignalsHandler {
	metrics.Register()
	return &SignalsHandler{eng: eng, fused: fused, storage: storage, refresher: refresher, rl: ratelimit.New()}
}

func (h *SignalsHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetLogger injects a structured logger.
func (h *SignalsHandler) SetLogger(l *applogger.Logger) { h.l = l }

func (h *SignalsHandler) Score() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "score"
		defer func() { metrics.EngineLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		symbol := r.URL.Query().Get("symbol")
		if symbol == "" {
			if h.l != nil {
				h.l.Warn("signals.score missing symbol")
			}
			http.Error(w, "symbol required", http.StatusBadRequest)
			return
		}
		tf := domrepo.NormalizeTimeframe(r.URL.Query().Get("tf"))
		if !h.rl.Allow(r.RemoteAddr+":score", 5, 2) {
			if h.l != nil {
				h.l.Warn("signals.score rate_limited", applogger.String("remote", r.RemoteAddr))
			}
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		cacheKey := "score:" + symbol + ":" + string(tf)
		if h.serveCached(w, endpoint, cacheKey) {
			return
		}
		res, err := h.eng.ScoreTimeframe(r.Context(), symbol, tf)
		if err != nil {
			metrics.EngineErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("signals.score error", applogger.Error(err))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, endpoint, cacheKey, res, 15*time.Second)
	}
}

func (h *SignalsHandler) Fused() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "fused"
		defer func() { metrics.EngineLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		symbol := r.URL.Query().Get("symbol")
		if symbol == "" {
			if h.l != nil {
				h.l.Warn("signals.fused missing symbol")
			}
			http.Error(w, "symbol required", http.StatusBadRequest)
			return
		}
		if !h.rl.Allow(r.RemoteAddr+":fused", 5, 2) {
			if h.l != nil {
				h.l.Warn("signals.fused rate_limited", applogger.String("remote", r.RemoteAddr))
			}
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		cacheKey := "fused:" + symbol
		if h.serveCached(w, endpoint, cacheKey) {
			return
		}
		res, err := h.fused.GetFused(r.Context(), usecase.GetFusedParams{Symbol: symbol})
		if err != nil {
			metrics.EngineErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("signals.fused error", applogger.Error(err))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, endpoint, cacheKey, res, 15*time.Second)
	}
}

func (h *SignalsHandler) Crossovers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "crossovers"
		defer func() { metrics.EngineLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		symbol := r.URL.Query().Get("symbol")
		limit := parseInt(r.URL.Query().Get("limit"), 50)
		if limit < 1 {
			limit = 1
		}
		if limit > 500 {
			limit = 500
		}
		if !h.rl.Allow(r.RemoteAddr+":crossovers", 5, 2) {
			if h.l != nil {
				h.l.Warn("signals.crossovers rate_limited", applogger.String("remote", r.RemoteAddr))
			}
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		cacheKey := "crossovers:" + symbol + ":" + strconv.Itoa(limit)
		if h.serveCached(w, endpoint, cacheKey) {
			return
		}
		res, err := h.storage.QueryCrossovers(r.Context(), symbol, limit)
		if err != nil {
			metrics.EngineErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("signals.crossovers error", applogger.Error(err))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, endpoint, cacheKey, res, 10*time.Second)
	}
}

func (h *SignalsHandler) Opportunities() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "opportunities"
		defer func() { metrics.EngineLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		q := r.URL.Query()
		params := engine.RankParams{
			SortBy:    q.Get("sort_by"),
			Order:     q.Get("order"),
			AssetType: q.Get("asset_type"),
		}
		if params.SortBy == "" {
			params.SortBy = "opportunity_score"
		}
		if params.Order == "" {
			params.Order = "desc"
		}
		if rec := q.Get("recommendation"); rec != "" {
			params.Recommendation = recommendationFromLabel(rec)
			if params.Recommendation == "" {
				http.Error(w, "unknown recommendation", http.StatusBadRequest)
				return
			}
		}
		if !h.rl.Allow(r.RemoteAddr+":opportunities", 5, 2) {
			if h.l != nil {
				h.l.Warn("signals.opportunities rate_limited", applogger.String("remote", r.RemoteAddr))
			}
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		res := engine.Rank(h.refresher.Rows(), params)
		h.writeJSON(w, endpoint, "", res, 0)
	}
}

func (h *SignalsHandler) serveCached(w http.ResponseWriter, endpoint, key string) bool {
	if h.cache == nil {
		return false
	}
	b, ok, err := h.cache.GetBytes(key)
	if err != nil {
		if h.l != nil {
			h.l.Warn("signals."+endpoint+" cache_get_error", applogger.Error(err))
		}
		return false
	}
	if !ok {
		if h.l != nil {
			h.l.Debug("signals."+endpoint+" cache_miss", applogger.String("key", key))
		}
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	if h.l != nil {
		h.l.Debug("signals."+endpoint+" cache_hit", applogger.String("key", key))
	}
	if _, err := w.Write(b); err != nil && h.l != nil {
		h.l.Warn("signals."+endpoint+" write_error", applogger.Error(err))
	}
	return true
}

func (h *SignalsHandler) writeJSON(w http.ResponseWriter, endpoint, cacheKey string, v interface{}, ttl time.Duration) {
	w.Header().Set("Content-Type", "application/json")
	b, err := json.Marshal(v)
	if err != nil {
		if h.l != nil {
			h.l.Error("signals."+endpoint+" marshal_error", applogger.Error(err))
		}
		http.Error(w, "encode error", http.StatusInternalServerError)
		return
	}
	if h.cache != nil && cacheKey != "" && ttl > 0 {
		if err := h.cache.SetBytes(cacheKey, b, ttl); err != nil && h.l != nil {
			h.l.Warn("signals."+endpoint+" cache_set_error", applogger.Error(err))
		}
	}
	if _, err := w.Write(b); err != nil && h.l != nil {
		h.l.Warn("signals."+endpoint+" write_error", applogger.Error(err))
	}
}

func recommendationFromLabel(s string) models.Recommendation {
	rec := models.Recommendation(s)
	switch rec {
	case models.RecStrongBuy, models.RecBuy, models.RecHold, models.RecAvoid, models.RecSell, models.RecStrongSell:
		return rec
	default:
		return ""
	}
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
