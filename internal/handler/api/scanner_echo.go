package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	models "FinScan/internal/domain/models"
	domrepo "FinScan/internal/domain/repository"
	icache "FinScan/internal/service/cache"
	"FinScan/internal/service/ratelimit"
	xhttp "FinScan/pkg/http"
	xlogger "FinScan/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ScanRunner is the slice of the scan orchestrator the HTTP surface needs.
type ScanRunner interface {
	ScanNow(ctx context.Context, symbols []string) *models.ScanReport
	Status() *models.ScanStatus
}

// ScannerEchoHandler exposes the scan engine over REST: manual scans, the
// status snapshot, and the stored signal history with its performance stats.
type ScannerEchoHandler struct {
	logger  *xlogger.Logger
	scanner ScanRunner
	store   domrepo.SignalStore
	rl      *ratelimit.Limiter
	cache   icache.BytesCache
}

func NewScannerEchoHandler(logger *xlogger.Logger, scanner ScanRunner, store domrepo.SignalStore) *ScannerEchoHandler {
	return &ScannerEchoHandler{logger: logger, scanner: scanner, store: store, rl: ratelimit.New()}
}

// SetCache enables short-lived response caching for the read endpoints.
func (h *ScannerEchoHandler) SetCache(c icache.BytesCache) { h.cache = c }

func (h *ScannerEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api")
	g.POST("/scan", h.Scan)
	g.GET("/status", h.Status)
	g.GET("/history", h.History)
	g.GET("/stats", h.Stats)
	g.GET("/errors", h.Errors)
}

// Scan triggers one manual cycle. Rate limited per client address: a cycle
// hits the exchange for every requested symbol.
func (h *ScannerEchoHandler) Scan(c echo.Context) error {
	req := &models.ScanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":scan", 2, 0.2) {
		h.logger.Warn("manual scan rate limited", xlogger.String("remote", c.RealIP()))
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "scan rate limited")
	}

	report := h.scanner.ScanNow(c.Request().Context(), req.Symbols)
	return xhttp.SuccessResponse(c, report)
}

func (h *ScannerEchoHandler) Status(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.scanner.Status())
}

// Errors lists the recent warn/error tail the logger keeps in memory,
// newest first. Useful when the scanner runs headless and the operator
// has no log access.
func (h *ScannerEchoHandler) Errors(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.logger.Recent(50))
}

func (h *ScannerEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	key := fmt.Sprintf("history:%s:%d", req.Symbol, req.Limit)
	if cached, ok := h.cacheGet(key); ok {
		return xhttp.SuccessResponse(c, cached)
	}

	sigs, err := h.store.History(c.Request().Context(), req.Symbol, req.Limit)
	if err != nil {
		h.logger.Error("history query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("history query failed").WithError(err))
	}
	h.cacheSet(key, sigs, 30*time.Second)
	return xhttp.SuccessResponse(c, sigs)
}

func (h *ScannerEchoHandler) Stats(c echo.Context) error {
	req := &models.StatsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	key := fmt.Sprintf("stats:%d", req.Days)
	if cached, ok := h.cacheGet(key); ok {
		return xhttp.SuccessResponse(c, cached)
	}

	stats, err := h.store.Stats(c.Request().Context(), req.Days)
	if err != nil {
		h.logger.Error("stats query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("stats query failed").WithError(err))
	}
	h.cacheSet(key, stats, time.Minute)
	return xhttp.SuccessResponse(c, stats)
}

// cacheGet returns the cached payload as raw JSON so the envelope embeds it
// without a second decode.
func (h *ScannerEchoHandler) cacheGet(key string) (json.RawMessage, bool) {
	if h.cache == nil {
		return nil, false
	}
	b, ok, err := h.cache.GetBytes(key)
	if err != nil {
		h.logger.Warn("response cache read failed", xlogger.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return json.RawMessage(b), true
}

func (h *ScannerEchoHandler) cacheSet(key string, v interface{}, ttl time.Duration) {
	if h.cache == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := h.cache.SetBytes(key, b, ttl); err != nil {
		h.logger.Warn("response cache write failed", xlogger.Error(err))
	}
}

// Health reports readiness: the process is up and the store answers.
func (h *ScannerEchoHandler) Health(c echo.Context) error {
	if h.store != nil {
		if err := h.store.Health(c.Request().Context()); err != nil {
			h.logger.Warn("health check degraded", xlogger.Error(err))
			return xhttp.DataResponse(c, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"store":  err.Error(),
			})
		}
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}
