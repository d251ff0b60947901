package models

import "time"

// Candle represents one closed OHLCV bar. Immutable once fetched.
type Candle struct {
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// Body returns the absolute candle body size.
func (c Candle) Body() float64 {
	b := c.Close - c.Open
	if b < 0 {
		return -b
	}
	return b
}

// Range returns high-low. Zero for a flat bar.
func (c Candle) Range() float64 { return c.High - c.Low }

// CandleSeries is an ordered sequence of candles for one symbol/timeframe,
// oldest first, strictly increasing timestamps.
type CandleSeries struct {
	Symbol    string
	Timeframe string
	Candles   []Candle
}

func (s *CandleSeries) Len() int { return len(s.Candles) }

// Last returns the final (most recent closed) candle.
func (s *CandleSeries) Last() (Candle, bool) {
	if len(s.Candles) == 0 {
		return Candle{}, false
	}
	return s.Candles[len(s.Candles)-1], true
}

func (s *CandleSeries) Closes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Close
	}
	return out
}

func (s *CandleSeries) Highs() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.High
	}
	return out
}

func (s *CandleSeries) Lows() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Low
	}
	return out
}

func (s *CandleSeries) Volumes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Volume
	}
	return out
}
