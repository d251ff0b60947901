package ta

import (
	"math"
	"testing"
)

func ramp(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func TestRSIAllGainsSentinel(t *testing.T) {
	out := RSI(ramp(30, 1, 1), 14)
	v := Last(out)
	if !v.Valid || v.V != 100 {
		t.Fatalf("zero average loss must pin RSI to 100, got %+v", v)
	}
}

func TestRSIAllLosses(t *testing.T) {
	out := RSI(ramp(30, 30, -1), 14)
	v := Last(out)
	if !v.Valid || math.Abs(v.V) > 1e-9 {
		t.Fatalf("zero average gain must yield RSI 0, got %+v", v)
	}
}

func TestRSIBalanced(t *testing.T) {
	// Alternating +1/-1 moves: first smoothed point has equal averages.
	closes := make([]float64, 15)
	closes[0] = 100
	for i := 1; i < len(closes); i++ {
		if i%2 == 1 {
			closes[i] = closes[i-1] + 1
		} else {
			closes[i] = closes[i-1] - 1
		}
	}
	out := RSI(closes, 14)
	v := At(out, 14)
	if !v.Valid || math.Abs(v.V-50) > 1e-9 {
		t.Fatalf("balanced gains/losses must yield RSI 50, got %+v", v)
	}
	if At(out, 13).Valid {
		t.Fatalf("warmup region must be undefined")
	}
}

func TestMACDUptrend(t *testing.T) {
	line, sig, hist := MACD(ramp(80, 100, 1), 12, 26, 9)
	lv := Last(line)
	if !lv.Valid || lv.V <= 0 {
		t.Fatalf("macd line must be positive in a steady uptrend, got %+v", lv)
	}
	if !Last(sig).Valid || !Last(hist).Valid {
		t.Fatalf("signal/histogram must be defined with 80 bars")
	}
	if At(line, 24).Valid {
		t.Fatalf("line defined before slow period")
	}
}

func TestStochasticFlatWindow(t *testing.T) {
	n := 30
	h, l, c := ramp(n, 10, 0), ramp(n, 10, 0), ramp(n, 10, 0)
	k, d := Stochastic(h, l, c, 14, 3, 3)
	kv, dv := Last(k), Last(d)
	if !kv.Valid || math.Abs(kv.V-50) > 1e-9 {
		t.Fatalf("flat window %%K must be 50, got %+v", kv)
	}
	if !dv.Valid || math.Abs(dv.V-50) > 1e-9 {
		t.Fatalf("flat window %%D must be 50, got %+v", dv)
	}
}

func TestStochasticBounds(t *testing.T) {
	n := 60
	c := make([]float64, n)
	for i := range c {
		c[i] = 100 + 5*math.Sin(float64(i)/3)
	}
	h := make([]float64, n)
	l := make([]float64, n)
	for i := range c {
		h[i] = c[i] + 1
		l[i] = c[i] - 1
	}
	k, _ := Stochastic(h, l, c, 14, 3, 3)
	for i, v := range k {
		if math.IsNaN(v) {
			continue
		}
		if v < 0 || v > 100 {
			t.Fatalf("%%K out of bounds at %d: %v", i, v)
		}
	}
}

func TestCCIFlat(t *testing.T) {
	n := 30
	out := CCI(ramp(n, 11, 0), ramp(n, 9, 0), ramp(n, 10, 0), 20)
	v := Last(out)
	if !v.Valid || v.V != 0 {
		t.Fatalf("flat series CCI must be the 0 sentinel, got %+v", v)
	}
}

func TestWilliamsRAtExtremes(t *testing.T) {
	n := 30
	c := ramp(n, 1, 1)
	// close sits on the window high
	out := WilliamsR(c, ramp(n, 0, 1), c, 14)
	v := Last(out)
	if !v.Valid || math.Abs(v.V) > 1e-9 {
		t.Fatalf("close at window high must read 0, got %+v", v)
	}
	// flat window midpoint sentinel
	flat := ramp(n, 5, 0)
	v = Last(WilliamsR(flat, flat, flat, 14))
	if !v.Valid || math.Abs(v.V+50) > 1e-9 {
		t.Fatalf("flat window must read -50, got %+v", v)
	}
}

func TestAOSigns(t *testing.T) {
	n := 60
	if v := Last(AO(ramp(n, 10, 0), ramp(n, 8, 0), 5, 34)); !v.Valid || v.V != 0 {
		t.Fatalf("flat AO must be 0, got %+v", v)
	}
	if v := Last(AO(ramp(n, 10, 1), ramp(n, 8, 1), 5, 34)); !v.Valid || v.V <= 0 {
		t.Fatalf("uptrend AO must be positive, got %+v", v)
	}
}

func TestMomentumAndROC(t *testing.T) {
	c := ramp(20, 1, 1) // 1..20
	if v := Last(Momentum(c, 10)); !v.Valid || v.V != 10 {
		t.Fatalf("momentum = %+v, want 10", v)
	}
	if v := Last(ROC(c, 12)); !v.Valid || math.Abs(v.V-150) > 1e-9 {
		t.Fatalf("roc = %+v, want 150", v)
	}
	if Last(Momentum(c[:5], 10)).Valid {
		t.Fatalf("short input must be invalid")
	}
}
