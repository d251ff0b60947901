package ta

import (
	"math"
	"testing"
)

func TestDMISteadyUptrend(t *testing.T) {
	n := 60
	highs := ramp(n, 10, 1)
	lows := ramp(n, 9, 1)
	closes := ramp(n, 9.5, 1)
	adx, pdi, mdi := DMI(highs, lows, closes, 14)

	p, m := Last(pdi), Last(mdi)
	if !p.Valid || p.V <= 0 {
		t.Fatalf("+DI must be positive in an uptrend, got %+v", p)
	}
	if !m.Valid || m.V != 0 {
		t.Fatalf("-DI must be zero with no downward movement, got %+v", m)
	}
	a := Last(adx)
	if !a.Valid || math.Abs(a.V-100) > 1e-6 {
		t.Fatalf("one-sided trend must drive ADX to 100, got %+v", a)
	}
}

func TestDMIFlatIsZeroNotNaN(t *testing.T) {
	n := 60
	highs := ramp(n, 11, 0)
	lows := ramp(n, 10, 0)
	closes := ramp(n, 10.5, 0)
	adx, pdi, mdi := DMI(highs, lows, closes, 14)

	for name, v := range map[string][]float64{"adx": adx, "+di": pdi, "-di": mdi} {
		got := Last(v)
		if !got.Valid || got.V != 0 {
			t.Fatalf("flat market %s must be the 0 sentinel, got %+v", name, got)
		}
	}
}

func TestDMIWarmup(t *testing.T) {
	n := 40
	highs := ramp(n, 10, 1)
	lows := ramp(n, 9, 1)
	closes := ramp(n, 9.5, 1)
	adx, pdi, _ := DMI(highs, lows, closes, 14)

	if At(pdi, 13).Valid {
		t.Fatalf("DI defined before period bars")
	}
	if !At(pdi, 14).Valid {
		t.Fatalf("DI expected from period onward")
	}
	if At(adx, 26).Valid {
		t.Fatalf("ADX defined before 2*period-1")
	}
	if !At(adx, 27).Valid {
		t.Fatalf("ADX expected at 2*period-1")
	}
}

func TestDMITooShort(t *testing.T) {
	adx, pdi, mdi := DMI(ramp(10, 10, 1), ramp(10, 9, 1), ramp(10, 9.5, 1), 14)
	if Last(adx).Valid || Last(pdi).Valid || Last(mdi).Valid {
		t.Fatalf("short input must be fully undefined")
	}
}
