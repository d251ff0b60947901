package models

import "time"

// Direction of a trade recommendation.
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// Opposite returns the other side.
func (d Direction) Opposite() Direction {
	if d == Long {
		return Short
	}
	return Long
}

// Trend is a qualitative directional reading.
type Trend string

const (
	TrendBullish Trend = "BULLISH"
	TrendBearish Trend = "BEARISH"
	TrendNeutral Trend = "NEUTRAL"
)

// Matches reports whether the trend agrees with a trade direction.
func (t Trend) Matches(d Direction) bool {
	return (t == TrendBullish && d == Long) || (t == TrendBearish && d == Short)
}

// TrendState classifies trend strength for the scanned timeframe.
type TrendState string

const (
	Ranging       TrendState = "RANGING"
	WeakTrend     TrendState = "WEAK_TREND"
	StrongTrend   TrendState = "STRONG_TREND"
	VolatileTrend TrendState = "VOLATILE_TREND"
)

// VolumeStatus buckets current volume against its trailing average.
type VolumeStatus string

const (
	VolumeNormal    VolumeStatus = "NORMAL"
	VolumeAboveAvg  VolumeStatus = "ABOVE_AVG"
	VolumeHigh      VolumeStatus = "HIGH"
	VolumeExplosive VolumeStatus = "EXPLOSIVE"
)

// RegimeContext is the qualitative market state for one symbol at scan time.
type RegimeContext struct {
	TrendState    TrendState
	TFTrends      map[string]Trend // trend per evaluated timeframe ("15m", "1h", "4h")
	Structure     Trend
	StructureConf float64
	Support       float64
	Resistance    float64
	VolumeStatus  VolumeStatus
}

// HigherAligned reports whether every listed timeframe agrees with d.
// Partial agreement does not count; a missing entry counts as disagreement.
func (r *RegimeContext) HigherAligned(tfs []string, d Direction) bool {
	for _, tf := range tfs {
		if !r.TFTrends[tf].Matches(d) {
			return false
		}
	}
	return true
}

// MarketContext is the broad-market reference trend fetched once per cycle
// and shared read-only across the sweep.
type MarketContext struct {
	Symbol    string
	Trend     Trend
	RSI       Value
	FetchedAt time.Time
}

// TradeLevels are the derived stop and take-profit prices with their
// risk/reward ratios.
type TradeLevels struct {
	Stop float64
	TP1  float64
	TP2  float64
	TP3  float64
	RR1  float64
	RR2  float64
	RR3  float64
}

// IndicatorDigest is the subset of indicator values attached to an emitted
// signal for display and post-hoc review.
type IndicatorDigest struct {
	RSI         float64
	ADX         float64
	ATR         float64
	MACDHist    float64
	StochK      float64
	VolumeRatio float64
}

// ScoredSignal is an accepted trade recommendation. Immutable after creation;
// a new signal replaces any prior one for the same symbol.
type ScoredSignal struct {
	ID         string
	Symbol     string
	Direction  Direction
	Score      int
	Confluence int
	Reasons    []string
	Entry      float64
	Levels     TradeLevels
	Leverage   int
	Session    string
	Category   string
	Regime     TrendState
	Indicators IndicatorDigest
	CreatedAt  time.Time
}

// ScoreResult is the terminal outcome of scoring one symbol. A rejection is a
// normal result, not an error; Reason names the veto or threshold that ended
// the evaluation.
type ScoreResult struct {
	Accepted   bool
	Reason     string
	Direction  Direction
	Score      int
	Confluence int
	Reasons    []string
	BullScore  float64
	BearScore  float64
}
