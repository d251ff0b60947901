package ta

import "math"

// RSI computes the Relative Strength Index with Wilder smoothing. A zero
// average loss yields the defined sentinel 100 (never a division by zero); a
// zero average gain falls out of the formula as 0.
func RSI(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period <= 0 || len(closes) < period+1 {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			avgGain += d
		} else {
			avgLoss -= d
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiFrom(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		var gain, loss float64
		if d > 0 {
			gain = d
		} else {
			loss = -d
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiFrom(avgGain, avgLoss)
	}
	return out
}

func rsiFrom(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	return 100 - 100/(1+avgGain/avgLoss)
}

// MACD returns the MACD line (EMA fast - EMA slow), its signal EMA and the
// histogram (line - signal).
func MACD(closes []float64, fast, slow, signal int) (line, sig, hist []float64) {
	n := len(closes)
	line, sig, hist = nanSlice(n), nanSlice(n), nanSlice(n)
	if fast <= 0 || slow <= fast || signal <= 0 || n < slow {
		return
	}
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)
	for i := slow - 1; i < n; i++ {
		line[i] = emaFast[i] - emaSlow[i]
	}
	sig = smoothDefined(line, signal, EMA)
	for i := range hist {
		if !math.IsNaN(line[i]) && !math.IsNaN(sig[i]) {
			hist[i] = line[i] - sig[i]
		}
	}
	return
}

// Stochastic computes the slow stochastic oscillator: raw %K over kPeriod,
// smoothed by kSmooth, with %D as a dPeriod SMA of %K. A flat high-low
// window yields the midpoint 50.
func Stochastic(highs, lows, closes []float64, kPeriod, kSmooth, dPeriod int) (k, d []float64) {
	n := len(closes)
	k, d = nanSlice(n), nanSlice(n)
	if kPeriod <= 0 || kSmooth <= 0 || dPeriod <= 0 || n < kPeriod || len(highs) != n || len(lows) != n {
		return
	}
	raw := nanSlice(n)
	for i := kPeriod - 1; i < n; i++ {
		hh, ll := highs[i], lows[i]
		for j := i - kPeriod + 1; j < i; j++ {
			if highs[j] > hh {
				hh = highs[j]
			}
			if lows[j] < ll {
				ll = lows[j]
			}
		}
		if hh == ll {
			raw[i] = 50
		} else {
			raw[i] = (closes[i] - ll) / (hh - ll) * 100
		}
	}
	k = smoothDefined(raw, kSmooth, SMA)
	d = smoothDefined(k, dPeriod, SMA)
	return
}

// CCI computes the Commodity Channel Index over the typical price. A zero
// mean deviation (flat window) yields 0.
func CCI(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	out := nanSlice(n)
	if period <= 0 || n < period || len(highs) != n || len(lows) != n {
		return out
	}
	tp := make([]float64, n)
	for i := range tp {
		tp[i] = (highs[i] + lows[i] + closes[i]) / 3
	}
	sma := SMA(tp, period)
	for i := period - 1; i < n; i++ {
		var dev float64
		for j := i - period + 1; j <= i; j++ {
			dev += math.Abs(tp[j] - sma[i])
		}
		dev /= float64(period)
		if dev == 0 {
			out[i] = 0
		} else {
			out[i] = (tp[i] - sma[i]) / (0.015 * dev)
		}
	}
	return out
}

// WilliamsR computes Williams %R in [-100, 0]. A flat window yields -50.
func WilliamsR(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	out := nanSlice(n)
	if period <= 0 || n < period || len(highs) != n || len(lows) != n {
		return out
	}
	for i := period - 1; i < n; i++ {
		hh, ll := highs[i], lows[i]
		for j := i - period + 1; j < i; j++ {
			if highs[j] > hh {
				hh = highs[j]
			}
			if lows[j] < ll {
				ll = lows[j]
			}
		}
		if hh == ll {
			out[i] = -50
		} else {
			out[i] = (hh - closes[i]) / (hh - ll) * -100
		}
	}
	return out
}

// AO computes the Awesome Oscillator: SMA(median, fast) - SMA(median, slow)
// over the bar median price.
func AO(highs, lows []float64, fast, slow int) []float64 {
	n := len(highs)
	out := nanSlice(n)
	if fast <= 0 || slow <= fast || n < slow || len(lows) != n {
		return out
	}
	med := make([]float64, n)
	for i := range med {
		med[i] = (highs[i] + lows[i]) / 2
	}
	f := SMA(med, fast)
	s := SMA(med, slow)
	for i := slow - 1; i < n; i++ {
		out[i] = f[i] - s[i]
	}
	return out
}

// Momentum is the raw close difference over period bars.
func Momentum(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period <= 0 || len(closes) < period+1 {
		return out
	}
	for i := period; i < len(closes); i++ {
		out[i] = closes[i] - closes[i-period]
	}
	return out
}

// ROC is the percentage rate of change over period bars.
func ROC(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period <= 0 || len(closes) < period+1 {
		return out
	}
	for i := period; i < len(closes); i++ {
		if closes[i-period] == 0 {
			continue
		}
		out[i] = (closes[i] - closes[i-period]) / closes[i-period] * 100
	}
	return out
}
