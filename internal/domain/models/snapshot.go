package models

// Value is a derived indicator scalar. Valid is false when there was not
// enough history or the computation degenerated; downstream voters must treat
// an invalid value as an abstention, never as a number.
type Value struct {
	V     float64
	Valid bool
}

// Val wraps a concrete float into a valid Value.
func Val(v float64) Value { return Value{V: v, Valid: true} }

// Or returns the value, or def when invalid.
func (v Value) Or(def float64) float64 {
	if v.Valid {
		return v.V
	}
	return def
}

// PivotLevels are classic floor-trader pivots derived from one aggregated
// higher-period bar.
type PivotLevels struct {
	PP float64
	R1 float64
	R2 float64
	R3 float64
	S1 float64
	S2 float64
	S3 float64
}

// SwingPoint is a confirmed local extreme in a candle series.
type SwingPoint struct {
	Index int
	Price float64
}

// IndicatorSnapshot holds the latest derived indicator values for one
// symbol/timeframe. Built from the last element of a CandleSeries plus
// trailing history; individual fields are invalid when history is too short.
type IndicatorSnapshot struct {
	Symbol    string
	Timeframe string
	Close     float64

	RSI Value

	MACD         Value
	MACDSignal   Value
	MACDHist     Value
	PrevMACDHist Value

	StochK Value
	StochD Value

	ADX     Value
	PlusDI  Value
	MinusDI Value

	ATR Value

	EMA9   Value
	EMA21  Value
	EMA50  Value
	EMA200 Value
	SMA20  Value
	SMA50  Value

	BBUpper Value
	BBMid   Value
	BBLower Value

	CCI       Value
	WilliamsR Value
	AO        Value
	Momentum  Value
	ROC       Value

	// Current bar volume relative to its trailing SMA.
	VolumeRatio Value

	// Shape of the most recent bar and the extremes of the bars before it,
	// used by candle-pattern checks.
	LastBar    Candle
	RecentHigh Value
	RecentLow  Value

	Pivots *PivotLevels
}

// ATRPercent returns ATR as a percentage of the close, invalid when either
// input is unusable.
func (s *IndicatorSnapshot) ATRPercent() Value {
	if !s.ATR.Valid || s.Close <= 0 {
		return Value{}
	}
	return Val(s.ATR.V / s.Close * 100)
}
