// Package scoring turns an indicator snapshot plus market context into a
// trade decision. Hard vetoes run first and short-circuit the symbol for
// the cycle; the surviving candidates are scored by a weighted set of named
// voters, then pattern and reference checks can still reject a score that
// is not high enough to override them.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"FinScan/internal/domain/models"
	domsvc "FinScan/internal/domain/service"
	"FinScan/pkg/config"
)

// Rejection reasons carried on ScoreResult and used as metric labels.
const (
	ReasonUnscorable     = "unscorable"
	ReasonDangerousHours = "dangerous_hours"
	ReasonRanging        = "ranging_regime"
	ReasonRSIExtreme     = "rsi_extreme"
	ReasonStochExtreme   = "stoch_extreme"
	ReasonOverextended   = "overextended"
	ReasonPairMismatch   = "tf_pair_mismatch"
	ReasonHTFNotAligned  = "htf_not_aligned"
	ReasonTie            = "tie"
	ReasonWeakDirection  = "weak_direction"
	ReasonLowConfluence  = "low_confluence"
	ReasonBelowMinScore  = "below_min_score"
	ReasonDoji           = "doji"
	ReasonFakeBreakout   = "fake_breakout"
	ReasonRefConflict    = "ref_trend_conflict"
	ReasonRefRSIWeak     = "ref_rsi_weak"
)

type input struct {
	snap   *models.IndicatorSnapshot
	regime *models.RegimeContext
	market *models.MarketContext
}

// vote is one voter's reading: a side (neutral means abstain) and a
// human-readable reason kept on the emitted signal.
type vote struct {
	side   models.Trend
	reason string
}

func abstain() vote { return vote{side: models.TrendNeutral} }

type voter struct {
	name string
	eval func(*Scorer, input) vote
}

// Scorer is a pure function of its inputs: identical snapshot, regime and
// market context always produce an identical result.
type Scorer struct {
	cfg            config.ScoringConfig
	dangerousHours map[int]bool
	voters         []voter
}

func New(cfg config.ScoringConfig, dangerousHours []int) *Scorer {
	hours := make(map[int]bool, len(dangerousHours))
	for _, h := range dangerousHours {
		hours[h] = true
	}
	return &Scorer{cfg: cfg, dangerousHours: hours, voters: standardVoters()}
}

func standardVoters() []voter {
	return []voter{
		{"rsi_momentum", (*Scorer).voteRSI},
		{"macd_cross", (*Scorer).voteMACD},
		{"stochastic", (*Scorer).voteStochastic},
		{"ema_cross", (*Scorer).voteEMAStack},
		{"momentum", (*Scorer).voteMomentum},
		{"tf_alignment", (*Scorer).voteTFAlignment},
		{"tf_15m_bonus", (*Scorer).voteIntermediateTF},
		{"adx_bonus", (*Scorer).voteADX},
		{"structure", (*Scorer).voteStructure},
		{"btc_alignment", (*Scorer).voteReference},
	}
}

// Score evaluates one symbol. A rejected result carries the reason that
// ended the evaluation; Direction and Score stay populated past the
// direction step so rejections remain diagnosable.
func (s *Scorer) Score(snap *models.IndicatorSnapshot, rc *models.RegimeContext, market *models.MarketContext, hourUTC int) *models.ScoreResult {
	if snap == nil || rc == nil {
		return &models.ScoreResult{Reason: ReasonUnscorable}
	}
	in := input{snap: snap, regime: rc, market: market}

	if reason := s.veto(in, hourUTC); reason != "" {
		return &models.ScoreResult{Reason: reason}
	}

	var bull, bear float64
	var bullN, bearN int
	var bullReasons, bearReasons []string
	for _, v := range s.voters {
		res := v.eval(s, in)
		w := s.cfg.Weights[v.name]
		switch res.side {
		case models.TrendBullish:
			bull += w
			bullN++
			bullReasons = append(bullReasons, res.reason)
		case models.TrendBearish:
			bear += w
			bearN++
			bearReasons = append(bearReasons, res.reason)
		}
	}

	out := &models.ScoreResult{BullScore: bull, BearScore: bear}

	var dir models.Direction
	var total float64
	var agree int
	var reasons []string
	switch {
	case bull > bear:
		dir, total, agree, reasons = models.Long, bull, bullN, bullReasons
	case bear > bull:
		dir, total, agree, reasons = models.Short, bear, bearN, bearReasons
	default:
		// Equal totals never default to a side.
		out.Reason = ReasonTie
		return out
	}
	if total < s.cfg.DirectionThreshold {
		out.Reason = ReasonWeakDirection
		return out
	}

	score := int(math.Round(total))
	if score > 100 {
		score = 100
	}
	out.Direction = dir
	out.Score = score
	out.Confluence = agree
	out.Reasons = reasons

	if agree < s.cfg.MinConfluence {
		out.Reason = ReasonLowConfluence
		return out
	}
	if score < s.cfg.MinScore {
		out.Reason = ReasonBelowMinScore
		return out
	}
	if reason := s.softVeto(in, dir, score); reason != "" {
		out.Reason = reason
		return out
	}

	out.Accepted = true
	return out
}

// veto runs the hard checks that end the evaluation before any voting.
func (s *Scorer) veto(in input, hourUTC int) string {
	if s.dangerousHours[hourUTC] {
		return ReasonDangerousHours
	}
	if in.regime.TrendState == models.Ranging {
		return ReasonRanging
	}
	if r := in.snap.RSI; r.Valid && (r.V > s.cfg.RSIOverbought || r.V < s.cfg.RSIOversold) {
		return ReasonRSIExtreme
	}
	if k := in.snap.StochK; k.Valid && (k.V > s.cfg.StochOverbought || k.V < s.cfg.StochOversold) {
		return ReasonStochExtreme
	}
	if e := in.snap.EMA21; e.Valid && e.V > 0 {
		if ext := math.Abs(in.snap.Close-e.V) / e.V * 100; ext > s.cfg.MaxExtensionPct {
			return ReasonOverextended
		}
	}
	side, ok := s.pairSide(in.regime)
	if !ok {
		return ReasonPairMismatch
	}
	for _, tf := range s.cfg.AlignedTimeframes {
		if in.regime.TFTrends[tf] != side {
			return ReasonHTFNotAligned
		}
	}
	return ""
}

// softVeto runs the pattern and reference checks that a sufficiently high
// score overrides.
func (s *Scorer) softVeto(in input, dir models.Direction, score int) string {
	bar := in.snap.LastBar
	if rng := bar.Range(); rng > 0 && score < s.cfg.OverrideScore {
		ratio := bar.Body() / rng
		if ratio < s.cfg.DojiBodyRatio {
			return ReasonDoji
		}
		if ratio < s.cfg.BreakoutBodyRatio && s.nearBreakout(in.snap, dir) {
			return ReasonFakeBreakout
		}
	}
	if m := in.market; m != nil && score < s.cfg.RefOverrideScore {
		if m.Trend.Matches(dir.Opposite()) {
			return ReasonRefConflict
		}
		if m.RSI.Valid {
			if dir == models.Long && m.RSI.V < s.cfg.RefRSILongMin {
				return ReasonRefRSIWeak
			}
			if dir == models.Short && m.RSI.V > s.cfg.RefRSIShortMax {
				return ReasonRefRSIWeak
			}
		}
	}
	return ""
}

// nearBreakout reports whether the close sits within the configured
// proximity band of the prior window's extreme in the trade direction.
func (s *Scorer) nearBreakout(snap *models.IndicatorSnapshot, dir models.Direction) bool {
	prox := s.cfg.BreakoutProximityPct / 100
	if dir == models.Long {
		return snap.RecentHigh.Valid && snap.Close >= snap.RecentHigh.V*(1-prox)
	}
	return snap.RecentLow.Valid && snap.Close <= snap.RecentLow.V*(1+prox)
}

// pairSide returns the side the required timeframe pair agrees on.
func (s *Scorer) pairSide(rc *models.RegimeContext) (models.Trend, bool) {
	if len(s.cfg.RequiredPair) == 0 {
		return models.TrendNeutral, false
	}
	side := rc.TFTrends[s.cfg.RequiredPair[0]]
	if side == models.TrendNeutral {
		return models.TrendNeutral, false
	}
	for _, tf := range s.cfg.RequiredPair[1:] {
		if rc.TFTrends[tf] != side {
			return models.TrendNeutral, false
		}
	}
	return side, true
}

func (s *Scorer) voteRSI(in input) vote {
	r := in.snap.RSI
	if !r.Valid {
		return abstain()
	}
	switch {
	case r.V > 50 && r.V < s.cfg.RSIOverbought:
		return vote{models.TrendBullish, fmt.Sprintf("RSI %.1f rising in neutral band", r.V)}
	case r.V < 50 && r.V > s.cfg.RSIOversold:
		return vote{models.TrendBearish, fmt.Sprintf("RSI %.1f falling in neutral band", r.V)}
	}
	return abstain()
}

func (s *Scorer) voteMACD(in input) vote {
	h := in.snap.MACDHist
	if !h.Valid || h.V == 0 {
		return abstain()
	}
	prev := in.snap.PrevMACDHist
	if h.V > 0 {
		if prev.Valid && prev.V <= 0 {
			return vote{models.TrendBullish, "MACD histogram crossed bullish"}
		}
		return vote{models.TrendBullish, "MACD histogram positive"}
	}
	if prev.Valid && prev.V >= 0 {
		return vote{models.TrendBearish, "MACD histogram crossed bearish"}
	}
	return vote{models.TrendBearish, "MACD histogram negative"}
}

func (s *Scorer) voteStochastic(in input) vote {
	k, d := in.snap.StochK, in.snap.StochD
	if !k.Valid || !d.Valid {
		return abstain()
	}
	switch {
	case k.V > d.V && k.V < s.cfg.StochOverbought:
		return vote{models.TrendBullish, fmt.Sprintf("stochastic %%K %.1f above %%D", k.V)}
	case k.V < d.V && k.V > s.cfg.StochOversold:
		return vote{models.TrendBearish, fmt.Sprintf("stochastic %%K %.1f below %%D", k.V)}
	}
	return abstain()
}

func (s *Scorer) voteEMAStack(in input) vote {
	fast, mid, slow := in.snap.EMA9, in.snap.EMA21, in.snap.EMA50
	if !fast.Valid || !mid.Valid || !slow.Valid {
		return abstain()
	}
	switch {
	case fast.V > mid.V && mid.V > slow.V:
		return vote{models.TrendBullish, "EMA stack bullish (9>21>50)"}
	case fast.V < mid.V && mid.V < slow.V:
		return vote{models.TrendBearish, "EMA stack bearish (9<21<50)"}
	}
	return abstain()
}

// voteMomentum reads the sign agreement of momentum and AO; with only one
// available it falls back to that one's sign.
func (s *Scorer) voteMomentum(in input) vote {
	mom, ao := in.snap.Momentum, in.snap.AO
	switch {
	case mom.Valid && ao.Valid:
		if mom.V > 0 && ao.V > 0 {
			return vote{models.TrendBullish, "momentum and AO positive"}
		}
		if mom.V < 0 && ao.V < 0 {
			return vote{models.TrendBearish, "momentum and AO negative"}
		}
	case mom.Valid && mom.V > 0:
		return vote{models.TrendBullish, "momentum positive"}
	case mom.Valid && mom.V < 0:
		return vote{models.TrendBearish, "momentum negative"}
	case ao.Valid && ao.V > 0:
		return vote{models.TrendBullish, "AO positive"}
	case ao.Valid && ao.V < 0:
		return vote{models.TrendBearish, "AO negative"}
	}
	return abstain()
}

func (s *Scorer) voteTFAlignment(in input) vote {
	side, ok := s.pairSide(in.regime)
	if !ok {
		return abstain()
	}
	pair := strings.Join(s.cfg.RequiredPair, "/")
	return vote{side, fmt.Sprintf("%s aligned %s", pair, strings.ToLower(string(side)))}
}

func (s *Scorer) voteIntermediateTF(in input) vote {
	if len(s.cfg.RequiredPair) == 0 {
		return abstain()
	}
	tf := s.cfg.RequiredPair[0]
	side := in.regime.TFTrends[tf]
	if side == models.TrendNeutral {
		return abstain()
	}
	return vote{side, fmt.Sprintf("%s trend confirms", tf)}
}

func (s *Scorer) voteADX(in input) vote {
	if st := in.regime.TrendState; st != models.StrongTrend && st != models.VolatileTrend {
		return abstain()
	}
	plus, minus := in.snap.PlusDI, in.snap.MinusDI
	if !plus.Valid || !minus.Valid {
		return abstain()
	}
	switch {
	case plus.V > minus.V:
		return vote{models.TrendBullish, fmt.Sprintf("ADX %.1f with +DI dominance", in.snap.ADX.Or(0))}
	case minus.V > plus.V:
		return vote{models.TrendBearish, fmt.Sprintf("ADX %.1f with -DI dominance", in.snap.ADX.Or(0))}
	}
	return abstain()
}

func (s *Scorer) voteStructure(in input) vote {
	if in.regime.StructureConf < 0.6 {
		return abstain()
	}
	switch in.regime.Structure {
	case models.TrendBullish:
		return vote{models.TrendBullish, "structure printing higher highs and lows"}
	case models.TrendBearish:
		return vote{models.TrendBearish, "structure printing lower highs and lows"}
	}
	return abstain()
}

func (s *Scorer) voteReference(in input) vote {
	m := in.market
	if m == nil {
		return abstain()
	}
	switch m.Trend {
	case models.TrendBullish:
		return vote{models.TrendBullish, fmt.Sprintf("%s trend bullish", m.Symbol)}
	case models.TrendBearish:
		return vote{models.TrendBearish, fmt.Sprintf("%s trend bearish", m.Symbol)}
	}
	return abstain()
}

var _ domsvc.ConfluenceScorer = (*Scorer)(nil)
