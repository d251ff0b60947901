package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"FinScan/internal/domain/models"
	domrepo "FinScan/internal/domain/repository"
	"FinScan/internal/services/regime"
	"FinScan/internal/services/ta"
	"FinScan/pkg/config"
	"FinScan/pkg/logger"
	"FinScan/pkg/util"
)

// Evaluator scores one symbol. Satisfied by SymbolEvaluator.
type Evaluator interface {
	Evaluate(ctx context.Context, symbol string, market *models.MarketContext, now time.Time) (*Evaluation, error)
}

// SignalEmitter hands an accepted signal to the configured dispatch backend.
type SignalEmitter interface {
	Emit(ctx context.Context, sig *models.ScoredSignal) error
}

// Scanner owns the periodic sweep: it walks the symbol universe, collects
// accepted candidates, ranks them, applies cooldown and budget truncation,
// and emits the survivors. One cycle runs at a time; manual scans share the
// same state and serialize with the interval loop.
type Scanner struct {
	cfg       config.ScannerConfig
	evaluator Evaluator
	emitter   SignalEmitter
	candles   domrepo.CandleSource
	metrics   domrepo.Metrics
	log       *logger.Logger
	state     *ScanState

	scanMu sync.Mutex // serializes cycles

	statusMu      sync.Mutex
	running       bool
	startedAt     time.Time
	cyclesRun     int64
	lastCycleAt   time.Time
	lastCycleTook time.Duration
	lastAccepted  int
}

func NewScanner(
	cfg config.ScannerConfig,
	evaluator Evaluator,
	emitter SignalEmitter,
	candles domrepo.CandleSource,
	metrics domrepo.Metrics,
	log *logger.Logger,
) *Scanner {
	return &Scanner{
		cfg:       cfg,
		evaluator: evaluator,
		emitter:   emitter,
		candles:   candles,
		metrics:   metrics,
		log:       log,
		state:     NewScanState(),
		startedAt: time.Now().UTC(),
	}
}

// Run executes the interval loop until ctx is cancelled. The first cycle
// starts immediately.
func (s *Scanner) Run(ctx context.Context) error {
	s.setRunning(true)
	defer s.setRunning(false)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.runCycle(ctx, models.TriggerInterval, nil)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runCycle(ctx, models.TriggerInterval, nil)
		}
	}
}

// ScanNow runs one manual cycle over the given symbols (or the full
// universe when empty) and returns its report.
func (s *Scanner) ScanNow(ctx context.Context, symbols []string) *models.ScanReport {
	return s.runCycle(ctx, models.TriggerManual, symbols)
}

func (s *Scanner) runCycle(ctx context.Context, trigger models.ScanTrigger, symbols []string) *models.ScanReport {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()

	now := time.Now().UTC()
	s.state.ResetIfNewDay(now)
	if len(symbols) == 0 {
		symbols = s.cfg.Symbols
	}

	report := &models.ScanReport{
		Trigger:    trigger,
		StartedAt:  now,
		Symbols:    len(symbols),
		Suppressed: make(map[string]int),
	}

	// Symbols still cooling down are not worth fetching at all.
	due := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if s.state.OnCooldown(sym, now) {
			s.suppress(report, "cooldown")
			continue
		}
		due = append(due, sym)
	}

	market := s.fetchMarketContext(ctx, now)
	candidates := s.sweep(ctx, due, market, now, report)

	// Best first; equal scores fall back to confluence depth.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Confluence > candidates[j].Confluence
	})

	for _, sig := range candidates {
		switch {
		case len(report.Accepted) >= s.cfg.MaxPerScan:
			s.suppress(report, "scan_cap")
		case s.state.OnCooldown(sig.Symbol, now):
			s.suppress(report, "cooldown")
		case !s.state.DailyBudgetLeft(s.cfg.MaxPerDay):
			s.suppress(report, "daily_cap")
		case !s.state.CategoryBudgetLeft(sig.Category, s.cfg.CategoryCap(sig.Category)):
			s.suppress(report, "category_cap")
		default:
			s.state.MarkEmitted(sig.Symbol, sig.Category, now, s.cfg.Cooldown)
			if err := s.emitter.Emit(ctx, sig); err != nil {
				// Budget stays consumed: a broken backend must not turn
				// into a resend storm on the next cycle.
				s.log.Error("signal emission failed",
					logger.String("symbol", sig.Symbol),
					logger.String("signal_id", sig.ID),
					logger.Error(err))
			}
			s.metrics.RecordSignal(sig.Symbol, string(sig.Direction), sig.Score)
			report.Accepted = append(report.Accepted, *sig)
			s.log.Info("signal emitted",
				logger.String("symbol", sig.Symbol),
				logger.String("direction", string(sig.Direction)),
				logger.Int("score", sig.Score),
				logger.Int("confluence", sig.Confluence),
				logger.String("session", sig.Session))
		}
	}

	report.FinishedAt = time.Now().UTC()
	s.metrics.RecordCycle(string(trigger), report.Duration().Seconds())
	s.finishCycle(report)
	s.log.Info("scan cycle complete",
		logger.String("trigger", string(trigger)),
		logger.Int("symbols", report.Symbols),
		logger.Int("evaluated", report.Evaluated),
		logger.Int("accepted", len(report.Accepted)),
		logger.Int("failures", report.Failures),
		logger.Duration("took", report.Duration()))
	return report
}

// sweep evaluates symbols concurrently and returns the accepted candidates.
func (s *Scanner) sweep(ctx context.Context, symbols []string, market *models.MarketContext, now time.Time, report *models.ScanReport) []*models.ScoredSignal {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	if workers > len(symbols) {
		workers = len(symbols)
	}
	if workers == 0 {
		return nil
	}

	jobs := make(chan string)
	evals := make(chan *Evaluation, len(symbols))
	errs := make(chan error, len(symbols))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range jobs {
				eval, err := s.evaluator.Evaluate(ctx, sym, market, now)
				if err != nil {
					errs <- err
					continue
				}
				evals <- eval
			}
		}()
	}
	for _, sym := range symbols {
		jobs <- sym
	}
	close(jobs)
	wg.Wait()
	close(evals)
	close(errs)

	for err := range errs {
		report.Failures++
		if models.IsDataError(err) {
			s.log.Warn("symbol skipped", logger.Error(err))
		} else {
			s.log.Error("symbol evaluation failed", logger.Error(err))
		}
	}

	var candidates []*models.ScoredSignal
	for eval := range evals {
		report.Evaluated++
		if eval.Result.Accepted {
			candidates = append(candidates, eval.Signal)
			continue
		}
		s.suppress(report, eval.Result.Reason)
	}
	return candidates
}

// fetchMarketContext reads the reference symbol once per cycle. On failure
// the sweep proceeds with a neutral context: reference gates abstain rather
// than block the whole cycle.
func (s *Scanner) fetchMarketContext(ctx context.Context, now time.Time) *models.MarketContext {
	ref := s.cfg.ReferenceSymbol
	mc := &models.MarketContext{Symbol: ref, Trend: models.TrendNeutral, FetchedAt: now}
	if ref == "" {
		return mc
	}

	fctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()
	series, err := s.candles.Fetch(fctx, ref, domrepo.Timeframe(s.cfg.ScanTimeframe), s.cfg.CandleLimit)
	if err != nil {
		s.metrics.RecordFetchError("reference")
		s.log.Warn("reference symbol unavailable, proceeding neutral",
			logger.String("symbol", ref),
			logger.Error(err))
		return mc
	}

	snap := ta.BuildSnapshot(series, ta.DefaultParams())
	mc.Trend = regime.TrendOf(series)
	mc.RSI = snap.RSI
	return mc
}

func (s *Scanner) suppress(report *models.ScanReport, reason string) {
	if reason == "" {
		reason = "unknown"
	}
	report.Suppressed[reason]++
	s.metrics.RecordSuppression(reason)
}

// Status reports the operational snapshot for the status endpoint.
func (s *Scanner) Status() *models.ScanStatus {
	now := time.Now().UTC()
	s.statusMu.Lock()
	st := &models.ScanStatus{
		Running:       s.running,
		StartedAt:     s.startedAt,
		CyclesRun:     s.cyclesRun,
		LastCycleAt:   s.lastCycleAt,
		LastCycleTook: s.lastCycleTook,
		LastAccepted:  s.lastAccepted,
	}
	s.statusMu.Unlock()

	st.SignalsToday = s.state.SignalsToday()
	st.DailyRemaining = s.cfg.MaxPerDay - st.SignalsToday
	if st.DailyRemaining < 0 {
		st.DailyRemaining = 0
	}
	st.CategoryCounts = s.state.CategoryCounts()
	st.ActiveCooldowns = s.state.ActiveCooldowns(now)
	st.Session = util.SessionAt(now)
	return st
}

func (s *Scanner) setRunning(v bool) {
	s.statusMu.Lock()
	s.running = v
	s.statusMu.Unlock()
}

func (s *Scanner) finishCycle(report *models.ScanReport) {
	s.statusMu.Lock()
	s.cyclesRun++
	s.lastCycleAt = report.FinishedAt
	s.lastCycleTook = report.Duration()
	s.lastAccepted = len(report.Accepted)
	s.statusMu.Unlock()
}
