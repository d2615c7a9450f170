package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	models "PairScout/internal/domain/models"
	domrepo "PairScout/internal/domain/repository"
	icache "PairScout/internal/service/cache"
	"PairScout/internal/service/metrics"
	"PairScout/internal/usecase"
	xhttp "PairScout/pkg/http"
	xlogger "PairScout/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PairsEchoHandler exposes the scanner, lifecycle and analysis operations
// over HTTP.
type PairsEchoHandler struct {
	logger    *xlogger.Logger
	analyzer  *usecase.PairAnalyzer
	scheduler *usecase.Scheduler
	candles   *usecase.CandlesUseCase
	state     domrepo.StateStore
	history   domrepo.HistoryStore
	cache     icache.BytesCache
}

func NewPairsEchoHandler(
	logger *xlogger.Logger,
	analyzer *usecase.PairAnalyzer,
	scheduler *usecase.Scheduler,
	candles *usecase.CandlesUseCase,
	state domrepo.StateStore,
	history domrepo.HistoryStore,
) *PairsEchoHandler {
	metrics.Register()
	return &PairsEchoHandler{
		logger:    logger,
		analyzer:  analyzer,
		scheduler: scheduler,
		candles:   candles,
		state:     state,
		history:   history,
	}
}

// SetCache injects an optional response cache for the analyze endpoint.
func (h *PairsEchoHandler) SetCache(c icache.BytesCache) { h.cache = c }

func (h *PairsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/analyze", h.Analyze)
	g.GET("/watchlist", h.Watchlist)
	g.GET("/trades", h.Trades)
	g.GET("/history", h.History)
	g.GET("/stats", h.Stats)
	g.GET("/candles", h.Candles)
	g.POST("/scan", h.Scan)
	g.POST("/monitor", h.Monitor)
	g.GET("/exclusions", h.ListExclusions)
	g.POST("/exclusions", h.AddExclusion)
	g.DELETE("/exclusions", h.RemoveExclusion)
}

func (h *PairsEchoHandler) Analyze(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("analyze").Observe(time.Since(start).Seconds()) }()

	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	cacheKey := "analyze:" + models.PairKey(req.Asset1, req.Asset2)
	if h.cache != nil {
		if b, ok, _ := h.cache.GetBytes(cacheKey); ok {
			return xhttp.SuccessResponse(c, json.RawMessage(b))
		}
	}

	res, err := h.analyzer.AnalyzePair(c.Request().Context(), req.Asset1, req.Asset2, req.Days)
	if err != nil {
		metrics.APIErrors.WithLabelValues("analyze").Inc()
		h.logger.Error("analyze usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if h.cache != nil {
		if b, err := json.Marshal(res); err == nil {
			_ = h.cache.SetBytes(cacheKey, b, 30*time.Second)
		}
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PairsEchoHandler) Watchlist(c echo.Context) error {
	req := &models.WatchlistRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	entries, err := h.state.ListWatchlist(c.Request().Context())
	if err != nil {
		metrics.APIErrors.WithLabelValues("watchlist").Inc()
		h.logger.Error("watchlist list error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	out := make([]*models.WatchlistEntry, 0, len(entries))
	for _, e := range entries {
		if req.Sector != "" && e.Sector != req.Sector {
			continue
		}
		out = append(out, e)
		if len(out) >= req.Limit {
			break
		}
	}
	return xhttp.ListResponse(c, out, int64(len(out)))
}

func (h *PairsEchoHandler) Trades(c echo.Context) error {
	trades, err := h.state.ListActiveTrades(c.Request().Context())
	if err != nil {
		metrics.APIErrors.WithLabelValues("trades").Inc()
		h.logger.Error("trades list error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, trades, int64(len(trades)))
}

func (h *PairsEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	records, err := h.history.List(c.Request().Context(), req.PairKey, req.Limit)
	if err != nil {
		metrics.APIErrors.WithLabelValues("history").Inc()
		h.logger.Error("history list error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, records, int64(len(records)))
}

func (h *PairsEchoHandler) Stats(c echo.Context) error {
	stats, err := h.history.Stats(c.Request().Context())
	if err != nil {
		metrics.APIErrors.WithLabelValues("stats").Inc()
		h.logger.Error("history stats error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, stats)
}

func (h *PairsEchoHandler) Candles(c echo.Context) error {
	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	res, err := h.candles.GetLatest(c.Request().Context(), req.Symbol, req.N, tf)
	if err != nil {
		metrics.APIErrors.WithLabelValues("candles").Inc()
		h.logger.Error("candles usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PairsEchoHandler) Scan(c echo.Context) error {
	report, err := h.scheduler.RunScan(c.Request().Context())
	return h.cycleResponse(c, "scan", report, err)
}

func (h *PairsEchoHandler) Monitor(c echo.Context) error {
	report, err := h.scheduler.RunMonitor(c.Request().Context())
	return h.cycleResponse(c, "monitor", report, err)
}

func (h *PairsEchoHandler) cycleResponse(c echo.Context, job string, report *models.CycleReport, err error) error {
	if errors.Is(err, usecase.ErrJobRunning) {
		return xhttp.DataResponse(c, http.StatusConflict, map[string]string{"error": err.Error()})
	}
	if err != nil {
		metrics.APIErrors.WithLabelValues(job).Inc()
		h.logger.Error("cycle error", xlogger.String("job", job), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, report)
}

func (h *PairsEchoHandler) ListExclusions(c echo.Context) error {
	symbols, err := h.state.ListExclusions(c.Request().Context())
	if err != nil {
		h.logger.Error("exclusions list error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, symbols, int64(len(symbols)))
}

func (h *PairsEchoHandler) AddExclusion(c echo.Context) error {
	req := &models.ExclusionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.state.AddExclusion(c.Request().Context(), req.Symbol); err != nil {
		h.logger.Error("exclusion add error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, req.Symbol)
}

func (h *PairsEchoHandler) RemoveExclusion(c echo.Context) error {
	req := &models.ExclusionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.state.RemoveExclusion(c.Request().Context(), req.Symbol); err != nil {
		h.logger.Error("exclusion remove error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}
