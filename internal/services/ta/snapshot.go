package ta

import "FinScan/internal/domain/models"

// Params are the battery periods. Standard settings are the defaults; the
// scanner uses one Params for every symbol so snapshots stay comparable.
type Params struct {
	RSIPeriod      int
	MACDFast       int
	MACDSlow       int
	MACDSignal     int
	StochK         int
	StochSmooth    int
	StochD         int
	ADXPeriod      int
	ATRPeriod      int
	CCIPeriod      int
	WilliamsPeriod int
	AOFast         int
	AOSlow         int
	MomentumPeriod int
	ROCPeriod      int
	BBPeriod       int
	BBMult         float64
	EMAFast        int
	EMAMid         int
	EMASlow        int
	EMALong        int
	SMAFast        int
	SMASlow        int
	VolumeSMA      int
	RecentWindow   int
}

// DefaultParams returns the standard battery settings.
func DefaultParams() Params {
	return Params{
		RSIPeriod:      14,
		MACDFast:       12,
		MACDSlow:       26,
		MACDSignal:     9,
		StochK:         14,
		StochSmooth:    3,
		StochD:         3,
		ADXPeriod:      14,
		ATRPeriod:      14,
		CCIPeriod:      20,
		WilliamsPeriod: 14,
		AOFast:         5,
		AOSlow:         34,
		MomentumPeriod: 10,
		ROCPeriod:      12,
		BBPeriod:       20,
		BBMult:         2,
		EMAFast:        9,
		EMAMid:         21,
		EMASlow:        50,
		EMALong:        200,
		SMAFast:        20,
		SMASlow:        50,
		VolumeSMA:      20,
		RecentWindow:   20,
	}
}

// BuildSnapshot computes the full battery over the series and extracts the
// latest value of each indicator. It never fails: whatever cannot be
// computed from the available history is left invalid and abstains
// downstream. Pivots are not derived here; the caller attaches them from a
// higher-period series when one is available.
func BuildSnapshot(series *models.CandleSeries, p Params) *models.IndicatorSnapshot {
	snap := &models.IndicatorSnapshot{
		Symbol:    series.Symbol,
		Timeframe: series.Timeframe,
	}
	if last, ok := series.Last(); ok {
		snap.Close = last.Close
	}

	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()
	volumes := series.Volumes()
	n := len(closes)

	snap.RSI = Last(RSI(closes, p.RSIPeriod))

	macd, sig, hist := MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	snap.MACD = Last(macd)
	snap.MACDSignal = Last(sig)
	snap.MACDHist = Last(hist)
	snap.PrevMACDHist = At(hist, n-2)

	k, d := Stochastic(highs, lows, closes, p.StochK, p.StochSmooth, p.StochD)
	snap.StochK = Last(k)
	snap.StochD = Last(d)

	adx, pdi, mdi := DMI(highs, lows, closes, p.ADXPeriod)
	snap.ADX = Last(adx)
	snap.PlusDI = Last(pdi)
	snap.MinusDI = Last(mdi)

	snap.ATR = Last(ATR(highs, lows, closes, p.ATRPeriod))

	snap.EMA9 = Last(EMA(closes, p.EMAFast))
	snap.EMA21 = Last(EMA(closes, p.EMAMid))
	snap.EMA50 = Last(EMA(closes, p.EMASlow))
	snap.EMA200 = Last(EMA(closes, p.EMALong))
	snap.SMA20 = Last(SMA(closes, p.SMAFast))
	snap.SMA50 = Last(SMA(closes, p.SMASlow))

	up, mid, low := Bollinger(closes, p.BBPeriod, p.BBMult)
	snap.BBUpper = Last(up)
	snap.BBMid = Last(mid)
	snap.BBLower = Last(low)

	snap.CCI = Last(CCI(highs, lows, closes, p.CCIPeriod))
	snap.WilliamsR = Last(WilliamsR(highs, lows, closes, p.WilliamsPeriod))
	snap.AO = Last(AO(highs, lows, p.AOFast, p.AOSlow))
	snap.Momentum = Last(Momentum(closes, p.MomentumPeriod))
	snap.ROC = Last(ROC(closes, p.ROCPeriod))

	if avg := Last(SMA(volumes, p.VolumeSMA)); avg.Valid && avg.V > 0 && n > 0 {
		snap.VolumeRatio = models.Val(volumes[n-1] / avg.V)
	}

	if last, ok := series.Last(); ok {
		snap.LastBar = last
	}
	// Extremes of the bars preceding the current one; the current bar is
	// excluded so breakout checks compare against prior structure.
	if w := p.RecentWindow; w > 0 && n > 1 {
		start := n - 1 - w
		if start < 0 {
			start = 0
		}
		hi, lo := highs[start], lows[start]
		for i := start + 1; i < n-1; i++ {
			if highs[i] > hi {
				hi = highs[i]
			}
			if lows[i] < lo {
				lo = lows[i]
			}
		}
		snap.RecentHigh = models.Val(hi)
		snap.RecentLow = models.Val(lo)
	}

	return snap
}
