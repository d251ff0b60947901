package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	models "FinScan/internal/domain/models"
	icache "FinScan/internal/service/cache"
	xlogger "FinScan/pkg/logger"
)

type fakeRunner struct {
	scanned [][]string
	report  *models.ScanReport
	status  *models.ScanStatus
}

func (f *fakeRunner) ScanNow(ctx context.Context, symbols []string) *models.ScanReport {
	f.scanned = append(f.scanned, symbols)
	return f.report
}

func (f *fakeRunner) Status() *models.ScanStatus { return f.status }

type fakeStore struct {
	history    []models.ScoredSignal
	historyErr error
	lastSymbol string
	lastLimit  int
	stats      *models.PerformanceStats
	lastDays   int
	healthErr  error
}

func (s *fakeStore) Init(context.Context) error                        { return nil }
func (s *fakeStore) Store(context.Context, *models.ScoredSignal) error { return nil }
func (s *fakeStore) History(ctx context.Context, symbol string, limit int) ([]models.ScoredSignal, error) {
	s.lastSymbol, s.lastLimit = symbol, limit
	return s.history, s.historyErr
}
func (s *fakeStore) OpenSignals(context.Context, time.Duration) ([]models.ScoredSignal, error) {
	return nil, nil
}
func (s *fakeStore) StoreOutcome(context.Context, *models.SignalOutcome) error { return nil }
func (s *fakeStore) Stats(ctx context.Context, days int) (*models.PerformanceStats, error) {
	s.lastDays = days
	return s.stats, nil
}
func (s *fakeStore) Health(context.Context) error { return s.healthErr }
func (s *fakeStore) Close() error                 { return nil }

func newTestHandler(t *testing.T, runner *fakeRunner, store *fakeStore) (*ScannerEchoHandler, *echo.Echo) {
	t.Helper()
	log, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	h := NewScannerEchoHandler(log, runner, store)
	e := echo.New()
	h.RegisterRoutes(e)
	return h, e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func embeddedStatus(t *testing.T, rec *httptest.ResponseRecorder) int {
	t.Helper()
	var resp struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return resp.Status
}

func TestScanEndpointRunsManualCycle(t *testing.T) {
	runner := &fakeRunner{report: &models.ScanReport{Trigger: models.TriggerManual, Symbols: 2}}
	_, e := newTestHandler(t, runner, &fakeStore{})

	rec := do(e, http.MethodPost, "/api/scan", `{"symbols":["BTCUSDT","ETHUSDT"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("http status = %d", rec.Code)
	}
	if got := embeddedStatus(t, rec); got != http.StatusOK {
		t.Errorf("embedded status = %d", got)
	}
	if len(runner.scanned) != 1 || len(runner.scanned[0]) != 2 {
		t.Errorf("scanner invoked with %v", runner.scanned)
	}
	if !strings.Contains(rec.Body.String(), `"manual"`) {
		t.Errorf("report missing from body: %s", rec.Body.String())
	}
}

func TestScanEndpointAllowsEmptyBody(t *testing.T) {
	runner := &fakeRunner{report: &models.ScanReport{Trigger: models.TriggerManual}}
	_, e := newTestHandler(t, runner, &fakeStore{})

	rec := do(e, http.MethodPost, "/api/scan", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("http status = %d: %s", rec.Code, rec.Body.String())
	}
	if len(runner.scanned) != 1 || runner.scanned[0] != nil {
		t.Errorf("empty body should mean full universe, got %v", runner.scanned)
	}
}

func TestScanEndpointRateLimitsBursts(t *testing.T) {
	runner := &fakeRunner{report: &models.ScanReport{}}
	_, e := newTestHandler(t, runner, &fakeStore{})

	limited := false
	for i := 0; i < 5; i++ {
		rec := do(e, http.MethodPost, "/api/scan", "")
		if embeddedStatus(t, rec) == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("burst of manual scans should trip the limiter")
	}
	if len(runner.scanned) >= 5 {
		t.Errorf("limiter did not shield the scanner, %d calls", len(runner.scanned))
	}
}

func TestStatusEndpoint(t *testing.T) {
	runner := &fakeRunner{status: &models.ScanStatus{Running: true, SignalsToday: 3, Session: "LONDON"}}
	_, e := newTestHandler(t, runner, &fakeStore{})

	rec := do(e, http.MethodGet, "/api/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("http status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"LONDON"`) {
		t.Errorf("status payload missing session: %s", body)
	}
}

func TestHistoryEndpointDefaultsLimit(t *testing.T) {
	store := &fakeStore{history: []models.ScoredSignal{{ID: "a", Symbol: "BTCUSDT"}}}
	_, e := newTestHandler(t, &fakeRunner{}, store)

	rec := do(e, http.MethodGet, "/api/history", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("http status = %d: %s", rec.Code, rec.Body.String())
	}
	if store.lastLimit != 20 {
		t.Errorf("default limit = %d, want 20", store.lastLimit)
	}

	do(e, http.MethodGet, "/api/history?symbol=ETHUSDT&limit=5", "")
	if store.lastSymbol != "ETHUSDT" || store.lastLimit != 5 {
		t.Errorf("filters not bound: symbol=%q limit=%d", store.lastSymbol, store.lastLimit)
	}
}

func TestHistoryEndpointRejectsOversizedLimit(t *testing.T) {
	_, e := newTestHandler(t, &fakeRunner{}, &fakeStore{})

	rec := do(e, http.MethodGet, "/api/history?limit=10000", "")
	if got := embeddedStatus(t, rec); got != http.StatusBadRequest {
		t.Errorf("embedded status = %d, want 400", got)
	}
}

func TestStatsEndpoint(t *testing.T) {
	store := &fakeStore{stats: &models.PerformanceStats{Days: 7, Total: 10, Wins: 6, WinRate: 60}}
	_, e := newTestHandler(t, &fakeRunner{}, store)

	rec := do(e, http.MethodGet, "/api/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("http status = %d: %s", rec.Code, rec.Body.String())
	}
	if store.lastDays != 7 {
		t.Errorf("default days = %d, want 7", store.lastDays)
	}

	rec = do(e, http.MethodGet, "/api/stats?days=200", "")
	if got := embeddedStatus(t, rec); got != http.StatusBadRequest {
		t.Errorf("days above the cap should 400, got %d", got)
	}
}

func TestHistoryEndpointServesFromCache(t *testing.T) {
	store := &fakeStore{history: []models.ScoredSignal{{ID: "a", Symbol: "BTCUSDT"}}}
	h, e := newTestHandler(t, &fakeRunner{}, store)
	h.SetCache(icache.NewTTLCache())

	first := do(e, http.MethodGet, "/api/history?limit=10", "")
	store.lastLimit = 0
	second := do(e, http.MethodGet, "/api/history?limit=10", "")

	if store.lastLimit != 0 {
		t.Error("second request should not reach the store")
	}
	if !strings.Contains(second.Body.String(), `"BTCUSDT"`) {
		t.Errorf("cached body lost the payload: %s", second.Body.String())
	}
	if first.Body.String() != second.Body.String() {
		t.Errorf("cached response differs:\n%s\n%s", first.Body.String(), second.Body.String())
	}
}

func TestHealthEndpointReflectsStore(t *testing.T) {
	store := &fakeStore{}
	_, e := newTestHandler(t, &fakeRunner{}, store)

	rec := do(e, http.MethodGet, "/healthz", "")
	if got := embeddedStatus(t, rec); got != http.StatusOK {
		t.Errorf("healthy store should report ok, got %d", got)
	}

	store.healthErr = errors.New("connection refused")
	rec = do(e, http.MethodGet, "/healthz", "")
	if got := embeddedStatus(t, rec); got != http.StatusServiceUnavailable {
		t.Errorf("failing store should report degraded, got %d", got)
	}
}
