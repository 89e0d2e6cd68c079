package api

import (
	"time"

	models "tradehits/internal/domain/models"
	domrepo "tradehits/internal/domain/repository"
	"tradehits/internal/services/engine"
	"tradehits/internal/usecase"
	xhttp "tradehits/pkg/http"
	xlogger "tradehits/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SignalsEchoHandler implements Echo-based HTTP handlers following Clean Architecture.
type SignalsEchoHandler struct {
	logger    *xlogger.Logger
	eng       *usecase.SignalEngine
	fused     *usecase.FusedSignalsUseCase
	snaps     *usecase.SnapshotsUseCase
	storage   domrepo.Storage
	refresher *usecase.OpportunityRefresher
}

func NewSignalsEchoHandler(
	logger *xlogger.Logger,
	eng *usecase.SignalEngine,
	fused *usecase.FusedSignalsUseCase,
	snaps *usecase.SnapshotsUseCase,
	storage domrepo.Storage,
	refresher *usecase.OpportunityRefresher,
) *SignalsEchoHandler {
	return &SignalsEchoHandler{logger: logger, eng: eng, fused: fused, snaps: snaps, storage: storage, refresher: refresher}
}

func (h *SignalsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/score", h.Score)
	g.GET("/fused", h.Fused)
	g.GET("/crossovers", h.Crossovers)
	g.GET("/opportunities", h.Opportunities)
	g.GET("/snapshots", h.Snapshots)
}

func (h *SignalsEchoHandler) Score(c echo.Context) error {
	req := &models.ScoreRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	res, err := h.eng.ScoreTimeframe(c.Request().Context(), req.Symbol, tf)
	if err != nil {
		h.logger.Error("score usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

func (h *SignalsEchoHandler) Fused(c echo.Context) error {
	req := &models.FusedRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.fused.GetFused(c.Request().Context(), usecase.GetFusedParams{Symbol: req.Symbol})
	if err != nil {
		h.logger.Error("fused usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *SignalsEchoHandler) Crossovers(c echo.Context) error {
	req := &models.CrossoversRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.storage.QueryCrossovers(c.Request().Context(), req.Symbol, req.Limit)
	if err != nil {
		h.logger.Error("crossovers usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *SignalsEchoHandler) Opportunities(c echo.Context) error {
	req := &models.OpportunitiesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res := engine.Rank(h.refresher.Rows(), engine.RankParams{
		SortBy:         req.SortBy,
		Order:          req.Order,
		AssetType:      req.AssetType,
		Recommendation: models.Recommendation(req.Recommendation),
	})
	return xhttp.SuccessResponse(c, res)
}

func (h *SignalsEchoHandler) Snapshots(c echo.Context) error {
	req := &models.SnapshotsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	to := time.Now()
	from := to.Add(-24 * time.Hour)
	if req.From != "" {
		if t, err := time.Parse(time.RFC3339, req.From); err == nil {
			from = t
		}
	}
	if req.To != "" {
		if t, err := time.Parse(time.RFC3339, req.To); err == nil {
			to = t
		}
	}

	res, err := h.snaps.GetSnapshots(c.Request().Context(), usecase.GetSnapshotsParams{
		Symbol:    req.Symbol,
		From:      from,
		To:        to,
		Timeframe: tf,
		Limit:     req.Limit,
	})
	if err != nil {
		h.logger.Error("snapshots usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}
