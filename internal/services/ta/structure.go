package ta

import "FinScan/internal/domain/models"

// SwingHighs returns confirmed swing highs: bars strictly greater than every
// bar within window positions on both sides. Ties are not swing points. The
// final window bars can never confirm and are excluded by construction.
func SwingHighs(highs []float64, window int) []models.SwingPoint {
	var out []models.SwingPoint
	if window <= 0 {
		return out
	}
	for i := window; i < len(highs)-window; i++ {
		ok := true
		for j := 1; j <= window; j++ {
			if highs[i-j] >= highs[i] || highs[i+j] >= highs[i] {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, models.SwingPoint{Index: i, Price: highs[i]})
		}
	}
	return out
}

// SwingLows mirrors SwingHighs for local minima.
func SwingLows(lows []float64, window int) []models.SwingPoint {
	var out []models.SwingPoint
	if window <= 0 {
		return out
	}
	for i := window; i < len(lows)-window; i++ {
		ok := true
		for j := 1; j <= window; j++ {
			if lows[i-j] <= lows[i] || lows[i+j] <= lows[i] {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, models.SwingPoint{Index: i, Price: lows[i]})
		}
	}
	return out
}

// ClassicPivots derives floor-trader pivot levels from one aggregated
// higher-period bar.
func ClassicPivots(high, low, close float64) *models.PivotLevels {
	pp := (high + low + close) / 3
	return &models.PivotLevels{
		PP: pp,
		R1: 2*pp - low,
		S1: 2*pp - high,
		R2: pp + (high - low),
		S2: pp - (high - low),
		R3: high + 2*(pp-low),
		S3: low - 2*(high-pp),
	}
}

// PrevPeriodPivots aggregates the completed window of `bars` candles
// preceding the most recent `bars` candles into one bar and derives classic
// pivots from it. Nil when the series is too short.
func PrevPeriodPivots(candles []models.Candle, bars int) *models.PivotLevels {
	n := len(candles)
	if bars <= 0 || n < 2*bars {
		return nil
	}
	win := candles[n-2*bars : n-bars]
	high, low := win[0].High, win[0].Low
	for _, c := range win[1:] {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}
	return ClassicPivots(high, low, win[len(win)-1].Close)
}
