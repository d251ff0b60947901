package ta

import (
	"math"
	"testing"
	"time"

	"FinScan/internal/domain/models"
)

func mkSeries(t *testing.T, n int, closeAt func(i int) float64) *models.CandleSeries {
	t.Helper()
	s := &models.CandleSeries{Symbol: "BTCUSDT", Timeframe: "5m"}
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		c := closeAt(i)
		s.Candles = append(s.Candles, models.Candle{
			OpenTime: base.Add(time.Duration(i) * 5 * time.Minute),
			Open:     c - 0.5,
			High:     c + 1,
			Low:      c - 1,
			Close:    c,
			Volume:   100,
		})
	}
	return s
}

func TestBuildSnapshotFullHistory(t *testing.T) {
	s := mkSeries(t, 250, func(i int) float64 { return 100 + 10*math.Sin(float64(i)/7) })
	snap := BuildSnapshot(s, DefaultParams())

	if snap.Symbol != "BTCUSDT" || snap.Timeframe != "5m" {
		t.Fatalf("identity not carried: %+v", snap)
	}
	vals := map[string]models.Value{
		"rsi": snap.RSI, "macd": snap.MACD, "macd_signal": snap.MACDSignal,
		"macd_hist": snap.MACDHist, "prev_hist": snap.PrevMACDHist,
		"stoch_k": snap.StochK, "stoch_d": snap.StochD,
		"adx": snap.ADX, "+di": snap.PlusDI, "-di": snap.MinusDI,
		"atr": snap.ATR, "ema9": snap.EMA9, "ema21": snap.EMA21,
		"ema50": snap.EMA50, "ema200": snap.EMA200,
		"sma20": snap.SMA20, "sma50": snap.SMA50,
		"bb_up": snap.BBUpper, "bb_mid": snap.BBMid, "bb_low": snap.BBLower,
		"cci": snap.CCI, "willr": snap.WilliamsR, "ao": snap.AO,
		"momentum": snap.Momentum, "roc": snap.ROC, "vol_ratio": snap.VolumeRatio,
	}
	for name, v := range vals {
		if !v.Valid {
			t.Fatalf("%s must be defined with 250 bars", name)
		}
	}
	if ap := snap.ATRPercent(); !ap.Valid || ap.V <= 0 {
		t.Fatalf("atr%% must be defined and positive, got %+v", ap)
	}
	if snap.VolumeRatio.V != 1 {
		t.Fatalf("constant volume ratio must be 1, got %v", snap.VolumeRatio.V)
	}
	if snap.LastBar.Close != snap.Close {
		t.Fatalf("last bar close = %v, want %v", snap.LastBar.Close, snap.Close)
	}
	if !snap.RecentHigh.Valid || !snap.RecentLow.Valid {
		t.Fatal("recent extremes must be defined with 250 bars")
	}
	if snap.RecentHigh.V <= snap.RecentLow.V {
		t.Fatalf("recent high %v must exceed recent low %v", snap.RecentHigh.V, snap.RecentLow.V)
	}
}

func TestBuildSnapshotRecentExtremesExcludeCurrentBar(t *testing.T) {
	// A final bar spiking far above prior structure must not raise the
	// recent high it is compared against.
	s := mkSeries(t, 30, func(i int) float64 {
		if i == 29 {
			return 200
		}
		return 100
	})
	snap := BuildSnapshot(s, DefaultParams())
	if !snap.RecentHigh.Valid {
		t.Fatal("recent high must be defined")
	}
	if snap.RecentHigh.V != 101 {
		t.Fatalf("recent high = %v, want 101 (prior bars only)", snap.RecentHigh.V)
	}
	if snap.RecentLow.V != 99 {
		t.Fatalf("recent low = %v, want 99", snap.RecentLow.V)
	}
}

func TestBuildSnapshotShortHistory(t *testing.T) {
	s := mkSeries(t, 12, func(i int) float64 { return 100 + float64(i) })
	snap := BuildSnapshot(s, DefaultParams())

	if snap.Close != 111 {
		t.Fatalf("close = %v, want 111", snap.Close)
	}
	if snap.RSI.Valid || snap.ADX.Valid || snap.EMA200.Valid || snap.MACD.Valid || snap.VolumeRatio.Valid {
		t.Fatalf("long-period fields must abstain on 12 bars")
	}
	if !snap.EMA9.Valid {
		t.Fatalf("ema9 is computable from 12 bars")
	}
	if snap.Pivots != nil {
		t.Fatalf("pivots are attached by the caller, not the builder")
	}
}

func TestBuildSnapshotEmpty(t *testing.T) {
	snap := BuildSnapshot(&models.CandleSeries{Symbol: "X", Timeframe: "5m"}, DefaultParams())
	if snap.Close != 0 || snap.RSI.Valid {
		t.Fatalf("empty series must produce a fully abstaining snapshot")
	}
}
