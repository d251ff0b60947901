package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cycles       *prometheus.HistogramVec
	evaluations  *prometheus.CounterVec
	signals      *prometheus.CounterVec
	lastScore    *prometheus.GaugeVec
	suppressions *prometheus.CounterVec
	fetchErrors  *prometheus.CounterVec
	deliveries   *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		cycles: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finscan_cycle_duration_seconds",
				Help:    "Duration of scan cycles in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"trigger"},
		),
		evaluations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finscan_evaluations_total",
				Help: "Total number of symbol evaluations",
			},
			[]string{"symbol"},
		),
		signals: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finscan_signals_total",
				Help: "Total number of accepted signals",
			},
			[]string{"symbol", "direction"},
		),
		lastScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "finscan_last_signal_score",
				Help: "Score of the most recent accepted signal per symbol",
			},
			[]string{"symbol"},
		),
		suppressions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finscan_suppressions_total",
				Help: "Signals rejected or suppressed, by reason",
			},
			[]string{"reason"},
		),
		fetchErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finscan_fetch_errors_total",
				Help: "Candle fetch failures by source",
			},
			[]string{"source"},
		),
		deliveries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finscan_deliveries_total",
				Help: "Signal deliveries by sink and result",
			},
			[]string{"sink", "result"},
		),
	}
}

// RecordCycle records one finished scan cycle.
func (r *Recorder) RecordCycle(trigger string, seconds float64) {
	r.cycles.WithLabelValues(trigger).Observe(seconds)
}

// RecordEvaluation counts one scored symbol.
func (r *Recorder) RecordEvaluation(symbol string) {
	r.evaluations.WithLabelValues(symbol).Inc()
}

// RecordSignal counts an accepted signal and tracks its score.
func (r *Recorder) RecordSignal(symbol, direction string, score int) {
	r.signals.WithLabelValues(symbol, direction).Inc()
	r.lastScore.WithLabelValues(symbol).Set(float64(score))
}

// RecordSuppression counts a rejection or suppression by reason.
func (r *Recorder) RecordSuppression(reason string) {
	r.suppressions.WithLabelValues(reason).Inc()
}

// RecordFetchError counts a candle fetch failure for a source.
func (r *Recorder) RecordFetchError(source string) {
	r.fetchErrors.WithLabelValues(source).Inc()
}

// RecordDelivery counts a sink delivery attempt.
func (r *Recorder) RecordDelivery(sink string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	r.deliveries.WithLabelValues(sink, result).Inc()
}
