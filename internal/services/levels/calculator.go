// Package levels derives stop and take-profit prices for an accepted
// direction from ATR and the market regime, with percentage offsets as the
// fallback when ATR is unusable.
package levels

import (
	"fmt"
	"math"

	"FinScan/internal/domain/models"
	domsvc "FinScan/internal/domain/service"
	"FinScan/pkg/config"
)

type Calculator struct {
	cfg config.LevelsConfig
}

func New(cfg config.LevelsConfig) *Calculator {
	return &Calculator{cfg: cfg}
}

// Compute places the stop and three targets around entry. A volatile trend
// widens every distance; a nearby structural level pulls the stop to just
// beyond it and caps TP1 so it does not overshoot the opposing level.
func (c *Calculator) Compute(entry float64, dir models.Direction, atr models.Value, rc *models.RegimeContext) (*models.TradeLevels, error) {
	if entry <= 0 {
		return nil, fmt.Errorf("levels: entry must be positive, got %v", entry)
	}
	if dir != models.Long && dir != models.Short {
		return nil, fmt.Errorf("levels: unknown direction %q", dir)
	}

	stopD, tpD := c.distances(entry, atr, rc)

	sign := 1.0
	if dir == models.Short {
		sign = -1
	}
	lv := &models.TradeLevels{
		Stop: entry - sign*stopD,
		TP1:  entry + sign*tpD[0],
		TP2:  entry + sign*tpD[1],
		TP3:  entry + sign*tpD[2],
	}
	c.clampToStructure(lv, entry, dir, rc)

	risk := math.Abs(entry - lv.Stop)
	if min := entry * c.cfg.MinStopPct / 100; risk < min {
		// A dust-sized stop distance cannot anchor a risk/reward ratio;
		// widen it to the minimum percentage of price.
		risk = min
		lv.Stop = entry - sign*min
	}
	if risk <= 0 {
		return nil, fmt.Errorf("levels: degenerate stop at entry %v", entry)
	}
	lv.RR1 = math.Abs(lv.TP1-entry) / risk
	lv.RR2 = math.Abs(lv.TP2-entry) / risk
	lv.RR3 = math.Abs(lv.TP3-entry) / risk
	return lv, nil
}

// distances returns the stop and target offsets from entry. ATR drives them
// when usable and sane; otherwise fixed percentages of price stand in.
func (c *Calculator) distances(entry float64, atr models.Value, rc *models.RegimeContext) (float64, [3]float64) {
	if atr.Valid && atr.V > 0 {
		mult := 1.0
		if rc != nil && rc.TrendState == models.VolatileTrend {
			mult = c.cfg.VolatileMult
		}
		stop := atr.V * c.cfg.ATRStop * mult
		if stop < entry {
			return stop, [3]float64{
				atr.V * c.cfg.ATRTP1 * mult,
				atr.V * c.cfg.ATRTP2 * mult,
				atr.V * c.cfg.ATRTP3 * mult,
			}
		}
	}
	return entry * c.cfg.PctStop / 100, [3]float64{
		entry * c.cfg.PctTP1 / 100,
		entry * c.cfg.PctTP2 / 100,
		entry * c.cfg.PctTP3 / 100,
	}
}

// clampToStructure tightens the stop to just beyond a structural level that
// sits between the raw stop and entry, and caps TP1 at the opposing level.
func (c *Calculator) clampToStructure(lv *models.TradeLevels, entry float64, dir models.Direction, rc *models.RegimeContext) {
	if rc == nil {
		return
	}
	buf := c.cfg.StructureBufferPct / 100
	if dir == models.Long {
		if s := rc.Support; s > 0 && s < entry && lv.Stop < s {
			lv.Stop = s * (1 - buf)
		}
		if r := rc.Resistance; r > entry && lv.TP1 > r {
			lv.TP1 = r
		}
		return
	}
	if r := rc.Resistance; r > entry && lv.Stop > r {
		lv.Stop = r * (1 + buf)
	}
	if s := rc.Support; s > 0 && s < entry && lv.TP1 < s {
		lv.TP1 = s
	}
}

var _ domsvc.LevelCalculator = (*Calculator)(nil)
