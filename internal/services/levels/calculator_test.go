package levels

import (
	"math"
	"testing"

	"FinScan/internal/domain/models"
	"FinScan/pkg/config"
)

func testCfg() config.LevelsConfig {
	return config.LevelsConfig{
		ATRStop:            0.6,
		ATRTP1:             0.8,
		ATRTP2:             1.5,
		ATRTP3:             2.5,
		VolatileMult:       1.5,
		PctStop:            0.5,
		PctTP1:             0.6,
		PctTP2:             1.2,
		PctTP3:             2.0,
		MinStopPct:         0.1,
		StructureBufferPct: 0.1,
	}
}

func regime(state models.TrendState, support, resistance float64) *models.RegimeContext {
	return &models.RegimeContext{TrendState: state, Support: support, Resistance: resistance}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestLongLevelsWithATR(t *testing.T) {
	rc := regime(models.StrongTrend, 90, 110)
	lv, err := New(testCfg()).Compute(100, models.Long, models.Val(2), rc)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !approx(lv.Stop, 98.8) {
		t.Fatalf("stop = %v, want 98.8", lv.Stop)
	}
	if !approx(lv.TP1, 101.6) || !approx(lv.TP2, 103) || !approx(lv.TP3, 105) {
		t.Fatalf("targets = %v/%v/%v, want 101.6/103/105", lv.TP1, lv.TP2, lv.TP3)
	}
	if !(lv.Stop < 100 && 100 < lv.TP1 && lv.TP1 < lv.TP2 && lv.TP2 < lv.TP3) {
		t.Fatalf("long ordering violated: %+v", lv)
	}
	if !approx(lv.RR1, 1.6/1.2) || !approx(lv.RR2, 3.0/1.2) || !approx(lv.RR3, 5.0/1.2) {
		t.Fatalf("risk/reward = %v/%v/%v", lv.RR1, lv.RR2, lv.RR3)
	}
	if lv.RR1 <= 1 {
		t.Fatalf("RR1 = %v, want > 1", lv.RR1)
	}
}

func TestShortLevelsWithATR(t *testing.T) {
	rc := regime(models.StrongTrend, 90, 110)
	lv, err := New(testCfg()).Compute(100, models.Short, models.Val(2), rc)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !approx(lv.Stop, 101.2) {
		t.Fatalf("stop = %v, want 101.2", lv.Stop)
	}
	if !(lv.Stop > 100 && 100 > lv.TP1 && lv.TP1 > lv.TP2 && lv.TP2 > lv.TP3) {
		t.Fatalf("short ordering violated: %+v", lv)
	}
	if !approx(lv.TP1, 98.4) || !approx(lv.TP2, 97) || !approx(lv.TP3, 95) {
		t.Fatalf("targets = %v/%v/%v, want 98.4/97/95", lv.TP1, lv.TP2, lv.TP3)
	}
}

func TestVolatileRegimeWidensDistances(t *testing.T) {
	rc := regime(models.VolatileTrend, 0, 0)
	lv, err := New(testCfg()).Compute(100, models.Long, models.Val(2), rc)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !approx(lv.Stop, 98.2) {
		t.Fatalf("volatile stop = %v, want 98.2", lv.Stop)
	}
	if !approx(lv.TP1, 102.4) {
		t.Fatalf("volatile tp1 = %v, want 102.4", lv.TP1)
	}
}

func TestPercentFallbackWhenATRUnavailable(t *testing.T) {
	for _, atr := range []models.Value{{}, models.Val(0)} {
		lv, err := New(testCfg()).Compute(100, models.Long, atr, regime(models.StrongTrend, 0, 0))
		if err != nil {
			t.Fatalf("Compute: %v", err)
		}
		if !approx(lv.Stop, 99.5) {
			t.Fatalf("fallback stop = %v, want 99.5", lv.Stop)
		}
		if !approx(lv.TP1, 100.6) || !approx(lv.TP2, 101.2) || !approx(lv.TP3, 102) {
			t.Fatalf("fallback targets = %v/%v/%v", lv.TP1, lv.TP2, lv.TP3)
		}
	}
}

func TestOversizedATRFallsBackToPercent(t *testing.T) {
	// A stop distance reaching past zero price means the ATR reading is
	// garbage relative to this instrument.
	lv, err := New(testCfg()).Compute(1, models.Long, models.Val(10), regime(models.StrongTrend, 0, 0))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !approx(lv.Stop, 0.995) {
		t.Fatalf("stop = %v, want 0.995", lv.Stop)
	}
	if lv.Stop <= 0 {
		t.Fatalf("stop must stay positive, got %v", lv.Stop)
	}
}

func TestStopTightensToNearbySupport(t *testing.T) {
	// Raw ATR stop at 97 sits beyond the 98 support; the stop moves to
	// just below the level instead.
	lv, err := New(testCfg()).Compute(100, models.Long, models.Val(5), regime(models.StrongTrend, 98, 110))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !approx(lv.Stop, 98*0.999) {
		t.Fatalf("stop = %v, want %v", lv.Stop, 98*0.999)
	}
	if lv.Stop >= 98 {
		t.Fatalf("stop %v must sit below support 98", lv.Stop)
	}
}

func TestTP1CappedAtResistance(t *testing.T) {
	// Raw TP1 at 104 overshoots the 103 resistance and is capped there;
	// the further targets are left alone.
	lv, err := New(testCfg()).Compute(100, models.Long, models.Val(5), regime(models.StrongTrend, 0, 103))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !approx(lv.TP1, 103) {
		t.Fatalf("tp1 = %v, want 103", lv.TP1)
	}
	if !approx(lv.TP2, 107.5) {
		t.Fatalf("tp2 = %v, want 107.5 untouched", lv.TP2)
	}
	if !(lv.TP1 < lv.TP2 && lv.TP2 < lv.TP3) {
		t.Fatalf("ordering violated after cap: %+v", lv)
	}
}

func TestShortSideClamps(t *testing.T) {
	// Raw stop 103 is beyond the 102 resistance, raw TP1 96 overshoots
	// the 97 support.
	lv, err := New(testCfg()).Compute(100, models.Short, models.Val(5), regime(models.StrongTrend, 97, 102))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !approx(lv.Stop, 102*1.001) {
		t.Fatalf("stop = %v, want %v", lv.Stop, 102*1.001)
	}
	if !approx(lv.TP1, 97) {
		t.Fatalf("tp1 = %v, want 97", lv.TP1)
	}
}

func TestRatiosAreFinitePositive(t *testing.T) {
	cases := []struct {
		entry float64
		atr   models.Value
		state models.TrendState
	}{
		{100, models.Val(2), models.StrongTrend},
		{0.0421, models.Val(0.0009), models.VolatileTrend},
		{64321, models.Value{}, models.WeakTrend},
	}
	for _, dir := range []models.Direction{models.Long, models.Short} {
		for _, tc := range cases {
			lv, err := New(testCfg()).Compute(tc.entry, dir, tc.atr, regime(tc.state, 0, 0))
			if err != nil {
				t.Fatalf("%s entry %v: %v", dir, tc.entry, err)
			}
			for i, rr := range []float64{lv.RR1, lv.RR2, lv.RR3} {
				if rr <= 0 || math.IsNaN(rr) || math.IsInf(rr, 0) {
					t.Fatalf("%s entry %v: RR%d = %v", dir, tc.entry, i+1, rr)
				}
			}
		}
	}
}

func TestDustStopFlooredToMinimumPercent(t *testing.T) {
	// A flat market can report an ATR of practically zero; the stop widens
	// to the minimum percentage distance instead of collapsing onto entry.
	lv, err := New(testCfg()).Compute(100, models.Long, models.Val(0.0001), regime(models.StrongTrend, 0, 0))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !approx(lv.Stop, 99.9) {
		t.Fatalf("stop = %v, want floored at 99.9", lv.Stop)
	}
	for i, rr := range []float64{lv.RR1, lv.RR2, lv.RR3} {
		if rr <= 0 || math.IsNaN(rr) || math.IsInf(rr, 0) {
			t.Fatalf("RR%d = %v after flooring", i+1, rr)
		}
	}
}

func TestComputeRejectsBadInputs(t *testing.T) {
	if _, err := New(testCfg()).Compute(0, models.Long, models.Val(2), nil); err == nil {
		t.Fatal("expected error for zero entry")
	}
	if _, err := New(testCfg()).Compute(-5, models.Long, models.Val(2), nil); err == nil {
		t.Fatal("expected error for negative entry")
	}
	if _, err := New(testCfg()).Compute(100, models.Direction("SIDEWAYS"), models.Val(2), nil); err == nil {
		t.Fatal("expected error for unknown direction")
	}
}

func TestNilRegimeSkipsClampsAndWidening(t *testing.T) {
	lv, err := New(testCfg()).Compute(100, models.Long, models.Val(2), nil)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !approx(lv.Stop, 98.8) {
		t.Fatalf("stop = %v, want plain ATR placement 98.8", lv.Stop)
	}
}
