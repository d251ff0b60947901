package scoring

import (
	"reflect"
	"testing"

	"FinScan/internal/domain/models"
	"FinScan/pkg/config"
)

func testCfg() config.ScoringConfig {
	return config.ScoringConfig{
		MinScore:             75,
		DirectionThreshold:   65,
		MinConfluence:        4,
		Weights:              config.DefaultWeights(),
		RequiredPair:         []string{"15m", "1h"},
		AlignedTimeframes:    []string{"4h"},
		RSIOversold:          30,
		RSIOverbought:        70,
		StochOversold:        20,
		StochOverbought:      80,
		MaxExtensionPct:      2.5,
		OverrideScore:        85,
		RefOverrideScore:     90,
		RefRSILongMin:        45,
		RefRSIShortMax:       55,
		DojiBodyRatio:        0.3,
		BreakoutProximityPct: 0.2,
		BreakoutBodyRatio:    0.5,
	}
}

func newScorer() *Scorer { return New(testCfg(), []int{0, 8}) }

// bullSnapshot is the canonical healthy long setup: neutral-band RSI,
// fresh positive MACD histogram, %K over %D, bullish EMA stack, strong ADX
// with +DI dominance, price sitting on its mid EMA.
func bullSnapshot() *models.IndicatorSnapshot {
	return &models.IndicatorSnapshot{
		Symbol:       "SOLUSDT",
		Timeframe:    "5m",
		Close:        100,
		RSI:          models.Val(55),
		MACDHist:     models.Val(0.5),
		PrevMACDHist: models.Val(-0.2),
		StochK:       models.Val(60),
		StochD:       models.Val(55),
		ADX:          models.Val(30),
		PlusDI:       models.Val(25),
		MinusDI:      models.Val(15),
		ATR:          models.Val(2),
		EMA9:         models.Val(101),
		EMA21:        models.Val(100),
		EMA50:        models.Val(98),
		Momentum:     models.Val(1),
		AO:           models.Val(1),
		VolumeRatio:  models.Val(2),
		LastBar:      models.Candle{Open: 99, High: 100.5, Low: 98.5, Close: 100},
		RecentHigh:   models.Val(105),
		RecentLow:    models.Val(95),
	}
}

func bullRegime() *models.RegimeContext {
	return &models.RegimeContext{
		TrendState: models.StrongTrend,
		TFTrends: map[string]models.Trend{
			"15m": models.TrendBullish,
			"1h":  models.TrendBullish,
			"4h":  models.TrendBullish,
		},
		Structure:     models.TrendBullish,
		StructureConf: 0.9,
		Support:       95,
		Resistance:    105,
		VolumeStatus:  models.VolumeHigh,
	}
}

// modestSnapshot scores exactly 80: RSI, MACD, stochastic and the two
// timeframe voters fire, everything else abstains.
func modestSnapshot() *models.IndicatorSnapshot {
	return &models.IndicatorSnapshot{
		Symbol:       "SOLUSDT",
		Timeframe:    "5m",
		Close:        100,
		RSI:          models.Val(55),
		MACDHist:     models.Val(0.5),
		PrevMACDHist: models.Val(0.2),
		StochK:       models.Val(60),
		StochD:       models.Val(55),
		EMA21:        models.Val(100),
		LastBar:      models.Candle{Open: 99, High: 100.5, Low: 98.5, Close: 100},
		RecentHigh:   models.Val(110),
		RecentLow:    models.Val(90),
	}
}

func modestRegime() *models.RegimeContext {
	return &models.RegimeContext{
		TrendState: models.WeakTrend,
		TFTrends: map[string]models.Trend{
			"15m": models.TrendBullish,
			"1h":  models.TrendBullish,
			"4h":  models.TrendBullish,
		},
		Structure:     models.TrendNeutral,
		StructureConf: 0.3,
	}
}

func TestGoldenBullishSetupAcceptsLong(t *testing.T) {
	res := newScorer().Score(bullSnapshot(), bullRegime(), nil, 12)
	if !res.Accepted {
		t.Fatalf("golden setup rejected: %s", res.Reason)
	}
	if res.Direction != models.Long {
		t.Fatalf("direction = %s, want LONG", res.Direction)
	}
	if res.Score < 85 {
		t.Fatalf("score = %d, want >= 85", res.Score)
	}
	if res.Confluence < 5 {
		t.Fatalf("confluence = %d, want >= 5", res.Confluence)
	}
	if len(res.Reasons) != res.Confluence {
		t.Fatalf("reasons = %d entries, want %d", len(res.Reasons), res.Confluence)
	}
	if res.BullScore <= res.BearScore {
		t.Fatalf("bull total %v must exceed bear total %v", res.BullScore, res.BearScore)
	}
}

func TestScoreCapsAtHundred(t *testing.T) {
	res := newScorer().Score(bullSnapshot(), bullRegime(), nil, 12)
	if res.BullScore != 105 {
		t.Fatalf("raw bull total = %v, want 105", res.BullScore)
	}
	if res.Score != 100 {
		t.Fatalf("score = %d, want capped at 100", res.Score)
	}
}

func TestOverboughtVetoBlocksLongRegardlessOfSetup(t *testing.T) {
	for _, rsi := range []float64{72, 75, 99} {
		snap := bullSnapshot()
		snap.RSI = models.Val(rsi)
		res := newScorer().Score(snap, bullRegime(), nil, 12)
		if res.Accepted {
			t.Fatalf("RSI %v: overbought setup must never be accepted", rsi)
		}
		if res.Reason != ReasonRSIExtreme {
			t.Fatalf("RSI %v: reason = %q, want %q", rsi, res.Reason, ReasonRSIExtreme)
		}
		if res.Direction != "" {
			t.Fatalf("RSI %v: veto fired before direction, got %s", rsi, res.Direction)
		}
	}
}

func TestOversoldVeto(t *testing.T) {
	snap := bullSnapshot()
	snap.RSI = models.Val(25)
	res := newScorer().Score(snap, bullRegime(), nil, 12)
	if res.Reason != ReasonRSIExtreme {
		t.Fatalf("reason = %q, want %q", res.Reason, ReasonRSIExtreme)
	}
}

func TestStochasticExtremeVeto(t *testing.T) {
	snap := bullSnapshot()
	snap.StochK = models.Val(85)
	res := newScorer().Score(snap, bullRegime(), nil, 12)
	if res.Reason != ReasonStochExtreme {
		t.Fatalf("reason = %q, want %q", res.Reason, ReasonStochExtreme)
	}
}

func TestRangingRegimeVeto(t *testing.T) {
	rc := bullRegime()
	rc.TrendState = models.Ranging
	res := newScorer().Score(bullSnapshot(), rc, nil, 12)
	if res.Reason != ReasonRanging {
		t.Fatalf("reason = %q, want %q", res.Reason, ReasonRanging)
	}
}

func TestDangerousHoursVeto(t *testing.T) {
	for _, hour := range []int{0, 8} {
		res := newScorer().Score(bullSnapshot(), bullRegime(), nil, hour)
		if res.Reason != ReasonDangerousHours {
			t.Fatalf("hour %d: reason = %q, want %q", hour, res.Reason, ReasonDangerousHours)
		}
	}
}

func TestOverextendedVeto(t *testing.T) {
	snap := bullSnapshot()
	snap.Close = 103 // 3% above the mid EMA, past the 2.5% band
	res := newScorer().Score(snap, bullRegime(), nil, 12)
	if res.Reason != ReasonOverextended {
		t.Fatalf("reason = %q, want %q", res.Reason, ReasonOverextended)
	}
}

func TestTimeframePairMismatchVeto(t *testing.T) {
	for _, trend := range []models.Trend{models.TrendBearish, models.TrendNeutral} {
		rc := bullRegime()
		rc.TFTrends["1h"] = trend
		res := newScorer().Score(bullSnapshot(), rc, nil, 12)
		if res.Reason != ReasonPairMismatch {
			t.Fatalf("1h %s: reason = %q, want %q", trend, res.Reason, ReasonPairMismatch)
		}
	}
}

func TestHigherTimeframeAlignmentVeto(t *testing.T) {
	for _, trend := range []models.Trend{models.TrendBearish, models.TrendNeutral} {
		rc := bullRegime()
		rc.TFTrends["4h"] = trend
		res := newScorer().Score(bullSnapshot(), rc, nil, 12)
		if res.Reason != ReasonHTFNotAligned {
			t.Fatalf("4h %s: reason = %q, want %q", trend, res.Reason, ReasonHTFNotAligned)
		}
	}
}

func TestMirroredBearishSetupAcceptsShort(t *testing.T) {
	snap := &models.IndicatorSnapshot{
		Symbol:       "SOLUSDT",
		Timeframe:    "5m",
		Close:        98.5,
		RSI:          models.Val(45),
		MACDHist:     models.Val(-0.5),
		PrevMACDHist: models.Val(0.2),
		StochK:       models.Val(40),
		StochD:       models.Val(45),
		ADX:          models.Val(30),
		PlusDI:       models.Val(15),
		MinusDI:      models.Val(25),
		ATR:          models.Val(2),
		EMA9:         models.Val(97),
		EMA21:        models.Val(98.5),
		EMA50:        models.Val(100),
		Momentum:     models.Val(-1),
		AO:           models.Val(-1),
		LastBar:      models.Candle{Open: 99.5, High: 100, Low: 98, Close: 98.5},
		RecentHigh:   models.Val(105),
		RecentLow:    models.Val(95),
	}
	rc := &models.RegimeContext{
		TrendState: models.StrongTrend,
		TFTrends: map[string]models.Trend{
			"15m": models.TrendBearish,
			"1h":  models.TrendBearish,
			"4h":  models.TrendBearish,
		},
		Structure:     models.TrendBearish,
		StructureConf: 0.9,
	}
	res := newScorer().Score(snap, rc, nil, 12)
	if !res.Accepted {
		t.Fatalf("bearish setup rejected: %s", res.Reason)
	}
	if res.Direction != models.Short {
		t.Fatalf("direction = %s, want SHORT", res.Direction)
	}
	if res.Score < 85 {
		t.Fatalf("score = %d, want >= 85", res.Score)
	}
}

func TestTieYieldsNoSignal(t *testing.T) {
	// Timeframe voters contribute 25 bullish; RSI below 50 and negative
	// momentum contribute 25 bearish. Every other voter abstains.
	snap := &models.IndicatorSnapshot{
		Symbol:    "SOLUSDT",
		Timeframe: "5m",
		Close:     100,
		RSI:       models.Val(45),
		EMA21:     models.Val(100),
		Momentum:  models.Val(-1),
		AO:        models.Val(-1),
		LastBar:   models.Candle{Open: 99, High: 100.5, Low: 98.5, Close: 100},
	}
	res := newScorer().Score(snap, modestRegime(), nil, 12)
	if res.Accepted {
		t.Fatal("tie must never be accepted")
	}
	if res.BullScore != res.BearScore {
		t.Fatalf("engineered totals differ: bull %v bear %v", res.BullScore, res.BearScore)
	}
	if res.Reason != ReasonTie {
		t.Fatalf("reason = %q, want %q", res.Reason, ReasonTie)
	}
	if res.Direction != "" {
		t.Fatalf("tie must not pick a side, got %s", res.Direction)
	}
}

func TestWeakDirectionRejected(t *testing.T) {
	// Only RSI and the timeframe voters fire: 45 total, below 65.
	snap := &models.IndicatorSnapshot{
		Symbol:    "SOLUSDT",
		Timeframe: "5m",
		Close:     100,
		RSI:       models.Val(55),
		EMA21:     models.Val(100),
		LastBar:   models.Candle{Open: 99, High: 100.5, Low: 98.5, Close: 100},
	}
	res := newScorer().Score(snap, modestRegime(), nil, 12)
	if res.Reason != ReasonWeakDirection {
		t.Fatalf("reason = %q, want %q", res.Reason, ReasonWeakDirection)
	}
}

func TestLowConfluenceRejected(t *testing.T) {
	cfg := testCfg()
	cfg.MinConfluence = 10
	res := New(cfg, nil).Score(bullSnapshot(), bullRegime(), nil, 12)
	if res.Reason != ReasonLowConfluence {
		t.Fatalf("reason = %q, want %q", res.Reason, ReasonLowConfluence)
	}
	if res.Score < 85 {
		t.Fatalf("confluence gate must apply even at score %d", res.Score)
	}
}

func TestBelowMinScoreRejected(t *testing.T) {
	cfg := testCfg()
	cfg.MinScore = 90
	res := New(cfg, nil).Score(modestSnapshot(), modestRegime(), nil, 12)
	if res.Reason != ReasonBelowMinScore {
		t.Fatalf("reason = %q, want %q", res.Reason, ReasonBelowMinScore)
	}
	if res.Score != 80 {
		t.Fatalf("score = %d, want 80", res.Score)
	}
}

func TestDojiVetoAndOverride(t *testing.T) {
	doji := models.Candle{Open: 100, High: 105, Low: 95, Close: 100.4}

	snap := modestSnapshot() // scores 80, below the 85 override
	snap.LastBar = doji
	res := newScorer().Score(snap, modestRegime(), nil, 12)
	if res.Reason != ReasonDoji {
		t.Fatalf("reason = %q, want %q", res.Reason, ReasonDoji)
	}

	strong := bullSnapshot() // scores 100, overrides the pattern
	strong.LastBar = doji
	if res := newScorer().Score(strong, bullRegime(), nil, 12); !res.Accepted {
		t.Fatalf("high score must override the doji veto, got %s", res.Reason)
	}
}

func TestFakeBreakoutVetoAndOverride(t *testing.T) {
	// Body ratio 0.4: not a doji, but too weak for a breakout candle.
	weakBreakout := models.Candle{Open: 99.6, High: 100.5, Low: 98.5, Close: 100.4}

	snap := modestSnapshot()
	snap.Close = 100.4
	snap.LastBar = weakBreakout
	snap.RecentHigh = models.Val(100.2) // close pokes just above prior structure
	res := newScorer().Score(snap, modestRegime(), nil, 12)
	if res.Reason != ReasonFakeBreakout {
		t.Fatalf("reason = %q, want %q", res.Reason, ReasonFakeBreakout)
	}

	strong := bullSnapshot()
	strong.Close = 100.4
	strong.LastBar = weakBreakout
	strong.RecentHigh = models.Val(100.2)
	if res := newScorer().Score(strong, bullRegime(), nil, 12); !res.Accepted {
		t.Fatalf("high score must override the fake-breakout veto, got %s", res.Reason)
	}
}

func TestReferenceTrendConflictAndOverride(t *testing.T) {
	against := &models.MarketContext{Symbol: "BTCUSDT", Trend: models.TrendBearish, RSI: models.Val(50)}

	res := newScorer().Score(modestSnapshot(), modestRegime(), against, 12)
	if res.Reason != ReasonRefConflict {
		t.Fatalf("reason = %q, want %q", res.Reason, ReasonRefConflict)
	}

	// The golden setup scores past the reference override.
	if res := newScorer().Score(bullSnapshot(), bullRegime(), against, 12); !res.Accepted {
		t.Fatalf("score past ref override must be accepted, got %s", res.Reason)
	}
}

func TestReferenceRSIGate(t *testing.T) {
	weakRef := &models.MarketContext{Symbol: "BTCUSDT", Trend: models.TrendBullish, RSI: models.Val(40)}
	res := newScorer().Score(modestSnapshot(), modestRegime(), weakRef, 12)
	if res.Reason != ReasonRefRSIWeak {
		t.Fatalf("reason = %q, want %q", res.Reason, ReasonRefRSIWeak)
	}

	okRef := &models.MarketContext{Symbol: "BTCUSDT", Trend: models.TrendBullish, RSI: models.Val(50)}
	if res := newScorer().Score(modestSnapshot(), modestRegime(), okRef, 12); !res.Accepted {
		t.Fatalf("supportive reference must pass, got %s", res.Reason)
	}
}

func TestScoringIsIdempotent(t *testing.T) {
	snap, rc := bullSnapshot(), bullRegime()
	market := &models.MarketContext{Symbol: "BTCUSDT", Trend: models.TrendBullish, RSI: models.Val(55)}

	first := newScorer().Score(snap, rc, market, 12)
	second := newScorer().Score(snap, rc, market, 12)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("identical inputs produced different results:\n%+v\n%+v", first, second)
	}
}

func TestAbstainingVotersCountNowhere(t *testing.T) {
	res := newScorer().Score(modestSnapshot(), modestRegime(), nil, 12)
	if !res.Accepted {
		t.Fatalf("modest setup should pass, got %s", res.Reason)
	}
	if res.Confluence != 5 {
		t.Fatalf("confluence = %d, want 5 firing voters", res.Confluence)
	}
	if res.Score != 80 {
		t.Fatalf("score = %d, want 80 from five voters", res.Score)
	}
	if res.BearScore != 0 {
		t.Fatalf("bear total = %v, want 0", res.BearScore)
	}
}

func TestNilInputsAreUnscorable(t *testing.T) {
	if res := newScorer().Score(nil, bullRegime(), nil, 12); res.Reason != ReasonUnscorable {
		t.Fatalf("nil snapshot reason = %q, want %q", res.Reason, ReasonUnscorable)
	}
	if res := newScorer().Score(bullSnapshot(), nil, nil, 12); res.Reason != ReasonUnscorable {
		t.Fatalf("nil regime reason = %q, want %q", res.Reason, ReasonUnscorable)
	}
}
