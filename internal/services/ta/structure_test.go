package ta

import (
	"math"
	"testing"

	"FinScan/internal/domain/models"
)

func TestSwingHighs(t *testing.T) {
	highs := []float64{1, 2, 5, 2, 1, 3, 7, 3, 1}
	swings := SwingHighs(highs, 2)
	if len(swings) != 2 {
		t.Fatalf("expected 2 swings, got %d", len(swings))
	}
	if swings[0].Index != 2 || swings[0].Price != 5 {
		t.Fatalf("unexpected first swing %+v", swings[0])
	}
	if swings[1].Index != 6 || swings[1].Price != 7 {
		t.Fatalf("unexpected second swing %+v", swings[1])
	}
}

func TestSwingTiesExcluded(t *testing.T) {
	if got := SwingHighs([]float64{1, 3, 3, 2, 1}, 1); len(got) != 0 {
		t.Fatalf("ties must not be swing points, got %+v", got)
	}
}

func TestSwingLows(t *testing.T) {
	lows := []float64{5, 4, 1, 4, 5}
	swings := SwingLows(lows, 2)
	if len(swings) != 1 || swings[0].Index != 2 || swings[0].Price != 1 {
		t.Fatalf("unexpected swings %+v", swings)
	}
}

func TestClassicPivots(t *testing.T) {
	p := ClassicPivots(110, 90, 100)
	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"PP", p.PP, 100},
		{"R1", p.R1, 110},
		{"S1", p.S1, 90},
		{"R2", p.R2, 120},
		{"S2", p.S2, 80},
		{"R3", p.R3, 130},
		{"S3", p.S3, 70},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-9 {
			t.Fatalf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestPrevPeriodPivots(t *testing.T) {
	candles := []models.Candle{
		{High: 10, Low: 5, Close: 7},
		{High: 12, Low: 6, Close: 8},
		{High: 9, Low: 7, Close: 8},
		{High: 9, Low: 7, Close: 8},
	}
	p := PrevPeriodPivots(candles, 2)
	if p == nil {
		t.Fatalf("expected pivots")
	}
	// previous window aggregates to H=12 L=5 C=8
	want := (12.0 + 5.0 + 8.0) / 3
	if math.Abs(p.PP-want) > 1e-9 {
		t.Fatalf("PP = %v, want %v", p.PP, want)
	}
	if PrevPeriodPivots(candles[:3], 2) != nil {
		t.Fatalf("short series must yield nil")
	}
}
