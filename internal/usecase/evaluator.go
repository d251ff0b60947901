package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"FinScan/internal/domain/models"
	domrepo "FinScan/internal/domain/repository"
	domsvc "FinScan/internal/domain/service"
	"FinScan/internal/services/ta"
	"FinScan/pkg/config"
	"FinScan/pkg/logger"
	"FinScan/pkg/util"
)

// Evaluation is the terminal verdict for one symbol in one cycle. Signal is
// populated only when the scorer accepted.
type Evaluation struct {
	Symbol string
	Result *models.ScoreResult
	Signal *models.ScoredSignal
}

// SymbolEvaluator runs the full per-symbol pipeline: fetch every timeframe,
// build the indicator snapshot, classify the regime, score, and derive trade
// levels for accepted directions.
type SymbolEvaluator struct {
	candles domrepo.CandleSource
	regime  domsvc.RegimeClassifier
	scorer  domsvc.ConfluenceScorer
	levels  domsvc.LevelCalculator
	metrics domrepo.Metrics
	log     *logger.Logger
	scanner config.ScannerConfig
	scoring config.ScoringConfig
	params  ta.Params
}

func NewSymbolEvaluator(
	candles domrepo.CandleSource,
	regime domsvc.RegimeClassifier,
	scorer domsvc.ConfluenceScorer,
	levels domsvc.LevelCalculator,
	metrics domrepo.Metrics,
	log *logger.Logger,
	scanner config.ScannerConfig,
	scoring config.ScoringConfig,
) *SymbolEvaluator {
	return &SymbolEvaluator{
		candles: candles,
		regime:  regime,
		scorer:  scorer,
		levels:  levels,
		metrics: metrics,
		log:     log,
		scanner: scanner,
		scoring: scoring,
		params:  ta.DefaultParams(),
	}
}

// Evaluate scores one symbol. A data failure on the scan timeframe aborts the
// evaluation with a wrapped data error; higher timeframes degrade softly into
// missing trend entries, which the scorer treats as disagreement.
func (e *SymbolEvaluator) Evaluate(ctx context.Context, symbol string, market *models.MarketContext, now time.Time) (*Evaluation, error) {
	e.metrics.RecordEvaluation(symbol)

	fctx, cancel := context.WithTimeout(ctx, e.scanner.FetchTimeout)
	defer cancel()

	primaryTF := e.scanner.ScanTimeframe
	higherTFs := append([]string{e.scanner.IntermediateTimeframe}, e.scanner.HigherTimeframes...)

	type fetched struct {
		tf     string
		series *models.CandleSeries
		err    error
	}
	ch := make(chan fetched, 1+len(higherTFs))
	var wg sync.WaitGroup
	for _, tf := range append([]string{primaryTF}, higherTFs...) {
		wg.Add(1)
		go func(tf string) {
			defer wg.Done()
			series, err := e.candles.Fetch(fctx, symbol, domrepo.Timeframe(tf), e.scanner.CandleLimit)
			ch <- fetched{tf: tf, series: series, err: err}
		}(tf)
	}
	go func() { wg.Wait(); close(ch) }()

	series := make(map[string]*models.CandleSeries, 1+len(higherTFs))
	for f := range ch {
		if f.err != nil {
			if f.tf == primaryTF {
				return nil, fmt.Errorf("%s %s: %w", symbol, f.tf, f.err)
			}
			e.log.Debug("higher timeframe unavailable",
				logger.String("symbol", symbol),
				logger.String("timeframe", f.tf),
				logger.Error(f.err))
			continue
		}
		series[f.tf] = f.series
	}

	primary := series[primaryTF]
	if primary == nil {
		return nil, fmt.Errorf("%s %s: %w", symbol, primaryTF, models.ErrDataUnavailable)
	}
	if primary.Len() < e.scanner.MinCandles {
		return nil, fmt.Errorf("%s: %d of %d candles: %w",
			symbol, primary.Len(), e.scanner.MinCandles, models.ErrInsufficientHistory)
	}

	snap := ta.BuildSnapshot(primary, e.params)

	higher := make(map[string]*models.CandleSeries, len(higherTFs))
	for _, tf := range higherTFs {
		if s, ok := series[tf]; ok {
			higher[tf] = s
		}
	}
	rc, err := e.regime.Classify(snap, primary, higher)
	if err != nil {
		return nil, fmt.Errorf("classify %s: %w", symbol, err)
	}

	result := e.scorer.Score(snap, rc, market, now.UTC().Hour())
	eval := &Evaluation{Symbol: symbol, Result: result}
	if !result.Accepted {
		return eval, nil
	}

	lv, err := e.levels.Compute(snap.Close, result.Direction, snap.ATR, rc)
	if err != nil {
		return nil, fmt.Errorf("levels %s: %w", symbol, err)
	}

	eval.Signal = &models.ScoredSignal{
		ID:         uuid.NewString(),
		Symbol:     symbol,
		Direction:  result.Direction,
		Score:      result.Score,
		Confluence: result.Confluence,
		Reasons:    result.Reasons,
		Entry:      snap.Close,
		Levels:     *lv,
		Leverage:   e.leverage(result.Score),
		Session:    util.SessionAt(now),
		Category:   e.scanner.CategoryOf(symbol),
		Regime:     rc.TrendState,
		Indicators: models.IndicatorDigest{
			RSI:         snap.RSI.Or(0),
			ADX:         snap.ADX.Or(0),
			ATR:         snap.ATR.Or(0),
			MACDHist:    snap.MACDHist.Or(0),
			StochK:      snap.StochK.Or(0),
			VolumeRatio: snap.VolumeRatio.Or(0),
		},
		CreatedAt: now.UTC(),
	}
	return eval, nil
}

func (e *SymbolEvaluator) leverage(score int) int {
	if score >= e.scoring.LeverageHighScore {
		return e.scoring.LeverageHigh
	}
	return e.scoring.LeverageBase
}
