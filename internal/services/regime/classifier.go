// Package regime classifies the qualitative market state for a symbol:
// trend strength from ADX and volatility, market structure from confirmed
// swings, per-timeframe direction from the EMA stack, and a volume bucket.
package regime

import (
	"fmt"

	"FinScan/internal/domain/models"
	domsvc "FinScan/internal/domain/service"
	"FinScan/internal/services/ta"
	"FinScan/pkg/config"
)

const (
	emaFast = 21
	emaSlow = 50
)

type Classifier struct {
	cfg config.RegimeConfig
}

func New(cfg config.RegimeConfig) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify derives the regime for one symbol from its scan-timeframe
// snapshot and series plus the higher-timeframe series keyed by timeframe.
func (c *Classifier) Classify(snap *models.IndicatorSnapshot, series *models.CandleSeries, higher map[string]*models.CandleSeries) (*models.RegimeContext, error) {
	if snap == nil || series == nil {
		return nil, fmt.Errorf("regime: snapshot and series are required")
	}

	rc := &models.RegimeContext{
		TrendState:   c.trendState(snap),
		VolumeStatus: c.volumeStatus(snap.VolumeRatio),
		TFTrends:     make(map[string]models.Trend, len(higher)+1),
	}
	rc.Structure, rc.StructureConf = c.structure(series)
	rc.Support, rc.Resistance = c.supportResistance(series)

	for tf, hs := range higher {
		rc.TFTrends[tf] = TrendOf(hs)
	}
	return rc, nil
}

// trendState buckets ADX into trend strength. A strong trend whose ATR
// exceeds the volatility threshold relative to price is flagged volatile so
// downstream sizing can widen stops.
func (c *Classifier) trendState(snap *models.IndicatorSnapshot) models.TrendState {
	if !snap.ADX.Valid {
		return models.Ranging
	}
	switch {
	case snap.ADX.V < c.cfg.ADXWeak:
		return models.Ranging
	case snap.ADX.V < c.cfg.ADXStrong:
		return models.WeakTrend
	}
	if ap := snap.ATRPercent(); ap.Valid && ap.V >= c.cfg.VolatileATRPct {
		return models.VolatileTrend
	}
	return models.StrongTrend
}

// structure reads market structure from the two most recent confirmed swings
// on each side. Both sides agreeing gives high confidence, one readable side
// medium, anything else neutral with low confidence.
func (c *Classifier) structure(series *models.CandleSeries) (models.Trend, float64) {
	hi := sideTrend(ta.SwingHighs(series.Highs(), c.cfg.SwingWindow))
	lo := sideTrend(ta.SwingLows(series.Lows(), c.cfg.SwingWindow))

	switch {
	case hi == models.TrendBullish && lo == models.TrendBullish:
		return models.TrendBullish, 0.9
	case hi == models.TrendBearish && lo == models.TrendBearish:
		return models.TrendBearish, 0.9
	case hi == models.TrendNeutral && lo != models.TrendNeutral:
		return lo, 0.6
	case lo == models.TrendNeutral && hi != models.TrendNeutral:
		return hi, 0.6
	default:
		return models.TrendNeutral, 0.3
	}
}

func sideTrend(sw []models.SwingPoint) models.Trend {
	n := len(sw)
	if n < 2 {
		return models.TrendNeutral
	}
	switch prev, last := sw[n-2].Price, sw[n-1].Price; {
	case last > prev:
		return models.TrendBullish
	case last < prev:
		return models.TrendBearish
	default:
		return models.TrendNeutral
	}
}

// supportResistance picks the extreme confirmed swing prices inside the
// lookback window, falling back to the raw rolling extremes when the window
// holds no confirmed swings.
func (c *Classifier) supportResistance(series *models.CandleSeries) (float64, float64) {
	highs := series.Highs()
	lows := series.Lows()
	n := len(lows)
	if n == 0 {
		return 0, 0
	}
	from := n - c.cfg.SRLookback
	if from < 0 {
		from = 0
	}

	sup, okSup := swingExtreme(ta.SwingLows(lows, c.cfg.SwingWindow), from, false)
	res, okRes := swingExtreme(ta.SwingHighs(highs, c.cfg.SwingWindow), from, true)
	if !okSup {
		sup = rollingExtreme(lows[from:], false)
	}
	if !okRes {
		res = rollingExtreme(highs[from:], true)
	}
	return sup, res
}

func swingExtreme(points []models.SwingPoint, from int, highest bool) (float64, bool) {
	var best float64
	found := false
	for _, p := range points {
		if p.Index < from {
			continue
		}
		if !found || (highest && p.Price > best) || (!highest && p.Price < best) {
			best = p.Price
			found = true
		}
	}
	return best, found
}

func rollingExtreme(xs []float64, highest bool) float64 {
	best := xs[0]
	for _, x := range xs[1:] {
		if (highest && x > best) || (!highest && x < best) {
			best = x
		}
	}
	return best
}

func (c *Classifier) volumeStatus(ratio models.Value) models.VolumeStatus {
	if !ratio.Valid {
		return models.VolumeNormal
	}
	switch {
	case ratio.V >= c.cfg.VolumeExplosive:
		return models.VolumeExplosive
	case ratio.V >= c.cfg.VolumeHigh:
		return models.VolumeHigh
	case ratio.V >= c.cfg.VolumeAboveAvg:
		return models.VolumeAboveAvg
	default:
		return models.VolumeNormal
	}
}

// TrendOf reads one timeframe's direction from its EMA stack: price above
// both averages with the fast one on top is bullish, the mirror bearish,
// anything else neutral. Insufficient history reads neutral.
func TrendOf(series *models.CandleSeries) models.Trend {
	if series == nil {
		return models.TrendNeutral
	}
	closes := series.Closes()
	if len(closes) == 0 {
		return models.TrendNeutral
	}
	e21 := ta.Last(ta.EMA(closes, emaFast))
	e50 := ta.Last(ta.EMA(closes, emaSlow))
	if !e21.Valid || !e50.Valid {
		return models.TrendNeutral
	}
	price := closes[len(closes)-1]
	switch {
	case price > e21.V && e21.V > e50.V:
		return models.TrendBullish
	case price < e21.V && e21.V < e50.V:
		return models.TrendBearish
	default:
		return models.TrendNeutral
	}
}

var _ domsvc.RegimeClassifier = (*Classifier)(nil)
