package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"FinScan/internal/domain/models"
)

// signalPayload is the wire form of an accepted signal on the message bus.
// Field names follow the stored schema so downstream consumers share one
// vocabulary with the database.
type signalPayload struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Direction   string    `json:"direction"`
	Score       int       `json:"score"`
	Confluence  int       `json:"confluence"`
	Reasons     []string  `json:"reasons,omitempty"`
	Entry       float64   `json:"entry"`
	Stop        float64   `json:"sl"`
	TP1         float64   `json:"tp1"`
	TP2         float64   `json:"tp2"`
	TP3         float64   `json:"tp3"`
	RR1         float64   `json:"rr1"`
	RR2         float64   `json:"rr2"`
	RR3         float64   `json:"rr3"`
	Leverage    int       `json:"leverage"`
	Session     string    `json:"session"`
	Category    string    `json:"category,omitempty"`
	Regime      string    `json:"regime"`
	RSI         float64   `json:"rsi"`
	ADX         float64   `json:"adx"`
	ATR         float64   `json:"atr"`
	MACDHist    float64   `json:"macd_hist"`
	StochK      float64   `json:"stoch_k"`
	VolumeRatio float64   `json:"volume_ratio"`
	CreatedAt   time.Time `json:"created_at"`
}

func toPayload(sig *models.ScoredSignal) signalPayload {
	return signalPayload{
		ID:          sig.ID,
		Symbol:      sig.Symbol,
		Direction:   string(sig.Direction),
		Score:       sig.Score,
		Confluence:  sig.Confluence,
		Reasons:     sig.Reasons,
		Entry:       sig.Entry,
		Stop:        sig.Levels.Stop,
		TP1:         sig.Levels.TP1,
		TP2:         sig.Levels.TP2,
		TP3:         sig.Levels.TP3,
		RR1:         sig.Levels.RR1,
		RR2:         sig.Levels.RR2,
		RR3:         sig.Levels.RR3,
		Leverage:    sig.Leverage,
		Session:     sig.Session,
		Category:    sig.Category,
		Regime:      string(sig.Regime),
		RSI:         sig.Indicators.RSI,
		ADX:         sig.Indicators.ADX,
		ATR:         sig.Indicators.ATR,
		MACDHist:    sig.Indicators.MACDHist,
		StochK:      sig.Indicators.StochK,
		VolumeRatio: sig.Indicators.VolumeRatio,
		CreatedAt:   sig.CreatedAt,
	}
}

func fromPayload(p signalPayload) *models.ScoredSignal {
	return &models.ScoredSignal{
		ID:         p.ID,
		Symbol:     p.Symbol,
		Direction:  models.Direction(p.Direction),
		Score:      p.Score,
		Confluence: p.Confluence,
		Reasons:    p.Reasons,
		Entry:      p.Entry,
		Levels: models.TradeLevels{
			Stop: p.Stop,
			TP1:  p.TP1,
			TP2:  p.TP2,
			TP3:  p.TP3,
			RR1:  p.RR1,
			RR2:  p.RR2,
			RR3:  p.RR3,
		},
		Leverage: p.Leverage,
		Session:  p.Session,
		Category: p.Category,
		Regime:   models.TrendState(p.Regime),
		Indicators: models.IndicatorDigest{
			RSI:         p.RSI,
			ADX:         p.ADX,
			ATR:         p.ATR,
			MACDHist:    p.MACDHist,
			StochK:      p.StochK,
			VolumeRatio: p.VolumeRatio,
		},
		CreatedAt: p.CreatedAt,
	}
}

// EncodeSignal marshals a signal into its bus representation.
func EncodeSignal(sig *models.ScoredSignal) ([]byte, error) {
	b, err := json.Marshal(toPayload(sig))
	if err != nil {
		return nil, fmt.Errorf("encode signal: %w", err)
	}
	return b, nil
}

// DecodeSignal unmarshals a bus message back into a signal.
func DecodeSignal(data []byte) (*models.ScoredSignal, error) {
	var p signalPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode signal: %w", err)
	}
	if p.Symbol == "" {
		return nil, fmt.Errorf("decode signal: empty symbol")
	}
	return fromPayload(p), nil
}
