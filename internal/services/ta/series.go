// Package ta computes the technical indicator battery over ordered candle
// series. All functions are deterministic and side-effect free; outputs are
// full-length slices aligned with the input, with NaN in the warmup region
// where insufficient history exists. Smoothing convention: Wilder for
// RSI/ATR/ADX (simple-average seed, then s=(s*(n-1)+x)/n), SMA-seeded EMA
// with k=2/(n+1) elsewhere. Callers extract scalars through Last/At, which
// map NaN to an invalid Value so undefined numbers never reach scoring.
package ta

import (
	"math"

	"FinScan/internal/domain/models"
)

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func firstDefined(values []float64) int {
	for i, v := range values {
		if !math.IsNaN(v) {
			return i
		}
	}
	return -1
}

// At returns the series value at index i as a Value, invalid when out of
// range or undefined.
func At(values []float64, i int) models.Value {
	if i < 0 || i >= len(values) || math.IsNaN(values[i]) {
		return models.Value{}
	}
	return models.Val(values[i])
}

// Last returns the final value of the series, invalid when the series is
// empty or ends undefined.
func Last(values []float64) models.Value {
	return At(values, len(values)-1)
}

// SMA computes the simple moving average.
func SMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA computes the exponential moving average, seeded with the SMA of the
// first period values.
func EMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	k := 2.0 / (float64(period) + 1.0)
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	out[period-1] = sum / float64(period)
	for i := period; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return out
}

// smoothDefined applies a smoother to the defined suffix of a NaN-prefixed
// series and maps the result back onto the original indices.
func smoothDefined(values []float64, period int, fn func([]float64, int) []float64) []float64 {
	out := nanSlice(len(values))
	f := firstDefined(values)
	if f < 0 || len(values)-f < period {
		return out
	}
	sm := fn(values[f:], period)
	for i, v := range sm {
		if !math.IsNaN(v) {
			out[f+i] = v
		}
	}
	return out
}

// Crossover reports whether a crossed above b on the final bar: a ended
// above b after being at or below it on the previous bar.
func Crossover(a, b []float64) bool {
	n := len(a)
	if n < 2 || len(b) != n {
		return false
	}
	if math.IsNaN(a[n-1]) || math.IsNaN(b[n-1]) || math.IsNaN(a[n-2]) || math.IsNaN(b[n-2]) {
		return false
	}
	return a[n-1] > b[n-1] && a[n-2] <= b[n-2]
}
