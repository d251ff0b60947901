package middleware

import (
	"strconv"
	"sync"
	"time"

	applogger "FinScan/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsOnce     sync.Once
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        *prometheus.GaugeVec
)

func initHTTPMetrics() {
	metricsOnce.Do(func() {
		requestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finscan_http_requests_total",
				Help: "HTTP requests served",
			},
			[]string{"route", "method", "status"},
		)
		requestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finscan_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"route", "method"},
		)
		inFlight = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "finscan_http_in_flight_requests",
				Help: "Requests currently being handled",
			},
			[]string{"route"},
		)
	})
}

// Metrics records request counts, latency and in-flight gauges. Labels
// use the echo route template, not the raw URL, so cardinality stays at
// the number of registered routes. Requests slower than slowThreshold
// and 5xx responses also produce a structured log line when a logger
// is set.
func Metrics(l *applogger.Logger, slowThreshold time.Duration) echo.MiddlewareFunc {
	initHTTPMetrics()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := c.Path()
			if route == "" {
				route = c.Request().URL.Path
			}
			method := c.Request().Method

			inFlight.WithLabelValues(route).Inc()
			start := time.Now()
			err := next(c)
			elapsed := time.Since(start)
			inFlight.WithLabelValues(route).Dec()

			status := c.Response().Status
			requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
			requestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())

			if l != nil {
				switch {
				case status >= 500:
					l.Error("http request failed",
						applogger.String("route", route),
						applogger.String("method", method),
						applogger.Int("status", status),
						applogger.Duration("latency_ms", elapsed))
				case slowThreshold > 0 && elapsed >= slowThreshold:
					l.Warn("http request slow",
						applogger.String("route", route),
						applogger.String("method", method),
						applogger.Int("status", status),
						applogger.Duration("latency_ms", elapsed))
				}
			}
			return err
		}
	}
}
