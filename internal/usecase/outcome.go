package usecase

import (
	"context"
	"time"

	"FinScan/internal/domain/models"
	domrepo "FinScan/internal/domain/repository"
	"FinScan/pkg/config"
	"FinScan/pkg/logger"
)

// OutcomeTracker resolves stored signals against price action: WIN when the
// first take-profit is touched, LOSS when the stop is touched, EXPIRED when
// the signal outlives the configured age without reaching either.
type OutcomeTracker struct {
	store   domrepo.SignalStore
	candles domrepo.CandleSource
	cfg     config.OutcomeConfig
	scanTF  domrepo.Timeframe
	log     *logger.Logger
}

func NewOutcomeTracker(
	store domrepo.SignalStore,
	candles domrepo.CandleSource,
	cfg config.OutcomeConfig,
	scanner config.ScannerConfig,
	log *logger.Logger,
) *OutcomeTracker {
	return &OutcomeTracker{
		store:   store,
		candles: candles,
		cfg:     cfg,
		scanTF:  domrepo.Timeframe(scanner.ScanTimeframe),
		log:     log,
	}
}

// Run checks open signals on the configured interval until ctx ends.
func (t *OutcomeTracker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.CheckOnce(ctx, time.Now().UTC())
		}
	}
}

// CheckOnce resolves whatever open signals it can. Per-signal failures are
// logged and skipped so one bad symbol cannot stall the rest.
func (t *OutcomeTracker) CheckOnce(ctx context.Context, now time.Time) {
	open, err := t.store.OpenSignals(ctx, t.cfg.MaxAge)
	if err != nil {
		t.log.Error("load open signals failed", logger.Error(err))
		return
	}
	if len(open) == 0 {
		return
	}

	// One fetch per symbol per pass, shared across its signals.
	series := make(map[string]*models.CandleSeries)
	for i := range open {
		sig := &open[i]
		s, ok := series[sig.Symbol]
		if !ok {
			s, err = t.candles.Fetch(ctx, sig.Symbol, t.scanTF, t.barsNeeded())
			if err != nil {
				t.log.Warn("outcome check skipped, no data",
					logger.String("symbol", sig.Symbol),
					logger.Error(err))
				series[sig.Symbol] = nil
				continue
			}
			series[sig.Symbol] = s
		}
		if s == nil {
			continue
		}

		out := resolveOutcome(sig, s, now, t.cfg.MaxAge)
		if out == nil {
			continue
		}
		if err := t.store.StoreOutcome(ctx, out); err != nil {
			t.log.Error("store outcome failed",
				logger.String("signal_id", sig.ID),
				logger.Error(err))
			continue
		}
		t.log.Info("signal resolved",
			logger.String("symbol", sig.Symbol),
			logger.String("signal_id", sig.ID),
			logger.String("status", string(out.Status)),
			logger.String("hit", out.HitLevel),
			logger.Float64("pnl_pct", out.PnlPct))
	}
}

func (t *OutcomeTracker) barsNeeded() int {
	bars := int(t.cfg.MaxAge/t.scanTF.Duration()) + 10
	if bars < 50 {
		bars = 50
	}
	if bars > 1000 {
		bars = 1000
	}
	return bars
}

// resolveOutcome walks the bars after signal creation in order. A bar that
// touches both the stop and the target counts as a loss. Nil means the
// signal stays open.
func resolveOutcome(sig *models.ScoredSignal, series *models.CandleSeries, now time.Time, maxAge time.Duration) *models.SignalOutcome {
	for _, bar := range series.Candles {
		if bar.OpenTime.Before(sig.CreatedAt) {
			continue
		}
		switch sig.Direction {
		case models.Long:
			if bar.Low <= sig.Levels.Stop {
				return outcome(sig, models.OutcomeLoss, "SL", sig.Levels.Stop, bar.OpenTime)
			}
			if bar.High >= sig.Levels.TP1 {
				return outcome(sig, models.OutcomeWin, "TP1", sig.Levels.TP1, bar.OpenTime)
			}
		case models.Short:
			if bar.High >= sig.Levels.Stop {
				return outcome(sig, models.OutcomeLoss, "SL", sig.Levels.Stop, bar.OpenTime)
			}
			if bar.Low <= sig.Levels.TP1 {
				return outcome(sig, models.OutcomeWin, "TP1", sig.Levels.TP1, bar.OpenTime)
			}
		}
	}

	if now.Sub(sig.CreatedAt) > maxAge {
		exit := sig.Entry
		if last, ok := series.Last(); ok {
			exit = last.Close
		}
		return outcome(sig, models.OutcomeExpired, "", exit, now)
	}
	return nil
}

func outcome(sig *models.ScoredSignal, status models.OutcomeStatus, hit string, exit float64, at time.Time) *models.SignalOutcome {
	return &models.SignalOutcome{
		SignalID: sig.ID,
		Status:   status,
		HitLevel: hit,
		PnlPct:   pnlPct(sig.Entry, exit, sig.Direction),
		ClosedAt: at.UTC(),
	}
}

func pnlPct(entry, exit float64, dir models.Direction) float64 {
	if entry == 0 {
		return 0
	}
	d := (exit - entry) / entry * 100
	if dir == models.Short {
		return -d
	}
	return d
}
