package ta

import "math"

// TrueRange for one bar given the previous close.
func TrueRange(high, low, prevClose float64) float64 {
	tr := high - low
	if hc := math.Abs(high - prevClose); hc > tr {
		tr = hc
	}
	if lc := math.Abs(low - prevClose); lc > tr {
		tr = lc
	}
	return tr
}

// ATR computes the Average True Range with Wilder smoothing, seeded with the
// simple average of the first period true ranges.
func ATR(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	out := nanSlice(n)
	if period <= 0 || n < period+1 || len(highs) != n || len(lows) != n {
		return out
	}

	tr := make([]float64, n)
	tr[0] = highs[0] - lows[0]
	for i := 1; i < n; i++ {
		tr[i] = TrueRange(highs[i], lows[i], closes[i-1])
	}

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += tr[i]
	}
	out[period-1] = sum / float64(period)
	for i := period; i < n; i++ {
		out[i] = (out[i-1]*float64(period-1) + tr[i]) / float64(period)
	}
	return out
}

// Bollinger returns the upper, middle and lower bands: SMA(period) plus and
// minus mult population standard deviations.
func Bollinger(closes []float64, period int, mult float64) (upper, mid, lower []float64) {
	n := len(closes)
	upper, mid, lower = nanSlice(n), nanSlice(n), nanSlice(n)
	if period <= 0 || n < period {
		return
	}
	mid = SMA(closes, period)
	for i := period - 1; i < n; i++ {
		var varSum float64
		for j := i - period + 1; j <= i; j++ {
			d := closes[j] - mid[i]
			varSum += d * d
		}
		sd := math.Sqrt(varSum / float64(period))
		upper[i] = mid[i] + mult*sd
		lower[i] = mid[i] - mult*sd
	}
	return
}
