package repository

import (
	"context"
	"time"

	"FinScan/internal/domain/models"
)

// CandleSource fetches the most recent `limit` closed candles for a symbol.
// Implementations must honor ctx cancellation/deadline and return
// models.ErrDataUnavailable (wrapped) for provider failures so the caller can
// skip the symbol without aborting the cycle.
type CandleSource interface {
	Fetch(ctx context.Context, symbol string, tf Timeframe, limit int) (*models.CandleSeries, error)
}

// SignalSink receives an accepted signal. Best effort: a sink error is logged
// by the dispatcher and never rolls back scan bookkeeping.
type SignalSink interface {
	Name() string
	Deliver(ctx context.Context, sig *models.ScoredSignal) error
}

// SignalPublisher pushes accepted signals onto the message bus.
type SignalPublisher interface {
	Publish(ctx context.Context, sig *models.ScoredSignal) error
	Close() error
}

// SignalStore persists scored signals and their outcomes.
type SignalStore interface {
	Init(ctx context.Context) error // ensure tables
	Store(ctx context.Context, sig *models.ScoredSignal) error
	History(ctx context.Context, symbol string, limit int) ([]models.ScoredSignal, error)
	OpenSignals(ctx context.Context, maxAge time.Duration) ([]models.ScoredSignal, error)
	StoreOutcome(ctx context.Context, out *models.SignalOutcome) error
	Stats(ctx context.Context, days int) (*models.PerformanceStats, error)
	Health(ctx context.Context) error
	Close() error
}

// Metrics records scanner observability counters.
type Metrics interface {
	RecordCycle(trigger string, seconds float64)
	RecordEvaluation(symbol string)
	RecordSignal(symbol, direction string, score int)
	RecordSuppression(reason string)
	RecordFetchError(source string)
	RecordDelivery(sink string, ok bool)
}
