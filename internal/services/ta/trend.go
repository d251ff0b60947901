package ta

import "math"

// DMI computes the directional movement system: ADX, +DI and -DI, all Wilder
// smoothed. Degenerate windows are defined, not NaN: a zero smoothed true
// range yields zero DIs, and +DI+-DI=0 yields DX=0, so flat data reads as
// "no trend" instead of poisoning downstream scoring. ADX needs 2*period
// bars of history; DIs are defined from period onward.
func DMI(highs, lows, closes []float64, period int) (adx, plusDI, minusDI []float64) {
	n := len(closes)
	adx, plusDI, minusDI = nanSlice(n), nanSlice(n), nanSlice(n)
	if period <= 0 || n < period+1 || len(highs) != n || len(lows) != n {
		return
	}

	tr := make([]float64, n)
	pdm := make([]float64, n)
	mdm := make([]float64, n)
	for i := 1; i < n; i++ {
		up := highs[i] - highs[i-1]
		down := lows[i-1] - lows[i]
		if up > down && up > 0 {
			pdm[i] = up
		}
		if down > up && down > 0 {
			mdm[i] = down
		}
		tr[i] = TrueRange(highs[i], lows[i], closes[i-1])
	}

	// Wilder-smoothed averages seeded with the plain average of the first
	// period bars.
	var aTR, aPDM, aMDM float64
	for i := 1; i <= period; i++ {
		aTR += tr[i]
		aPDM += pdm[i]
		aMDM += mdm[i]
	}
	aTR /= float64(period)
	aPDM /= float64(period)
	aMDM /= float64(period)

	dx := nanSlice(n)
	emit := func(i int) {
		var pdi, mdi float64
		if aTR > 0 {
			pdi = 100 * aPDM / aTR
			mdi = 100 * aMDM / aTR
		}
		plusDI[i] = pdi
		minusDI[i] = mdi
		if sum := pdi + mdi; sum > 0 {
			dx[i] = 100 * math.Abs(pdi-mdi) / sum
		} else {
			dx[i] = 0
		}
	}
	emit(period)
	for i := period + 1; i < n; i++ {
		aTR = (aTR*float64(period-1) + tr[i]) / float64(period)
		aPDM = (aPDM*float64(period-1) + pdm[i]) / float64(period)
		aMDM = (aMDM*float64(period-1) + mdm[i]) / float64(period)
		emit(i)
	}

	if n < 2*period {
		return
	}
	var sumDX float64
	for i := period; i < 2*period; i++ {
		sumDX += dx[i]
	}
	adx[2*period-1] = sumDX / float64(period)
	for i := 2 * period; i < n; i++ {
		adx[i] = (adx[i-1]*float64(period-1) + dx[i]) / float64(period)
	}
	return
}
