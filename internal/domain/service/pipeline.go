package service

import (
	"FinScan/internal/domain/models"
)

// RegimeClassifier derives the qualitative market state from indicator output
// and raw history.
type RegimeClassifier interface {
	Classify(snap *models.IndicatorSnapshot, series *models.CandleSeries, higher map[string]*models.CandleSeries) (*models.RegimeContext, error)
}

// ConfluenceScorer combines indicator votes into a direction decision and a
// 0-100 quality score. Pure: identical inputs yield identical results.
type ConfluenceScorer interface {
	Score(snap *models.IndicatorSnapshot, regime *models.RegimeContext, market *models.MarketContext, hourUTC int) *models.ScoreResult
}

// LevelCalculator derives stop/target prices for an accepted direction.
type LevelCalculator interface {
	Compute(entry float64, dir models.Direction, atr models.Value, regime *models.RegimeContext) (*models.TradeLevels, error)
}
