// Package exchange implements the REST candle source. It walks the
// configured providers in fallback order, throttles each one through a
// token bucket, and normalizes kline payloads into candle series.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"FinScan/internal/domain/models"
	"FinScan/internal/domain/repository"
	"FinScan/internal/service/ratelimit"
	"FinScan/pkg/config"
	xhttp "FinScan/pkg/http"
	"FinScan/pkg/logger"
)

// Client fetches OHLCV candles over REST with per-source rate limiting.
type Client struct {
	sources []config.SourceConfig
	http    *xhttp.Client
	limiter *ratelimit.Limiter
	rate    float64
	burst   float64
	log     *logger.Logger
	metrics repository.Metrics
}

var _ repository.CandleSource = (*Client)(nil)

func New(cfg config.ExchangeConfig, limiter *ratelimit.Limiter, log *logger.Logger, metrics repository.Metrics) *Client {
	return &Client{
		sources: cfg.Sources,
		http:    xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout)),
		limiter: limiter,
		rate:    cfg.RateLimit,
		burst:   float64(cfg.RateBurst),
		log:     log,
		metrics: metrics,
	}
}

// Fetch returns the most recent limit closed candles for symbol. Sources are
// tried in configured order; only when every source fails does the fetch
// report a data error, so one flaky provider never stalls a scan cycle.
func (c *Client) Fetch(ctx context.Context, symbol string, tf repository.Timeframe, limit int) (*models.CandleSeries, error) {
	if len(c.sources) == 0 {
		return nil, fmt.Errorf("%w: no candle sources configured", models.ErrDataUnavailable)
	}

	var lastErr error
	for _, src := range c.sources {
		if err := c.limiter.Wait(ctx, src.Name, c.burst, c.rate); err != nil {
			return nil, err
		}
		series, err := c.fetchFrom(ctx, src, symbol, string(tf), limit)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			c.metrics.RecordFetchError(src.Name)
			c.log.Warn("candle fetch failed",
				logger.String("source", src.Name),
				logger.String("symbol", symbol),
				logger.String("timeframe", string(tf)),
				logger.Error(err))
			continue
		}
		return series, nil
	}
	return nil, fmt.Errorf("%w: %s %s: %v", models.ErrDataUnavailable, symbol, tf, lastErr)
}

func (c *Client) fetchFrom(ctx context.Context, src config.SourceConfig, symbol, interval string, limit int) (*models.CandleSeries, error) {
	var raw []byte
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    src.BaseURL + src.KlinesPath,
		QueryParams: map[string][]string{
			"symbol":   {symbol},
			"interval": {interval},
			// One extra row so the series still holds limit closed
			// candles after the in-progress bar is dropped.
			"limit": {strconv.Itoa(limit + 1)},
		},
	}, &raw)
	if err != nil {
		return nil, err
	}

	series, err := parseKlines(raw, symbol, interval, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if len(series.Candles) > limit {
		series.Candles = series.Candles[len(series.Candles)-limit:]
	}
	return series, nil
}

// parseKlines decodes a kline array-of-arrays payload. Rows carry the open
// time in milliseconds followed by OHLCV fields encoded as strings. A final
// row whose close time is still in the future is the in-progress bar and is
// skipped.
func parseKlines(raw []byte, symbol, interval string, now time.Time) (*models.CandleSeries, error) {
	var rows [][]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("parse klines: %w", err)
	}

	series := &models.CandleSeries{
		Symbol:    symbol,
		Timeframe: interval,
		Candles:   make([]models.Candle, 0, len(rows)),
	}
	var prev time.Time
	for i, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("kline row %d: want at least 6 fields, got %d", i, len(row))
		}
		fields := make([]float64, 6)
		for j := 0; j < 6; j++ {
			v, err := asFloat(row[j])
			if err != nil {
				return nil, fmt.Errorf("kline row %d field %d: %w", i, j, err)
			}
			fields[j] = v
		}
		if len(row) > 6 {
			closeMs, err := asFloat(row[6])
			if err != nil {
				return nil, fmt.Errorf("kline row %d close time: %w", i, err)
			}
			if time.UnixMilli(int64(closeMs)).After(now) {
				continue
			}
		}
		openTime := time.UnixMilli(int64(fields[0])).UTC()
		if !prev.IsZero() && !openTime.After(prev) {
			return nil, fmt.Errorf("kline row %d: open time not increasing", i)
		}
		prev = openTime
		series.Candles = append(series.Candles, models.Candle{
			OpenTime: openTime,
			Open:     fields[1],
			High:     fields[2],
			Low:      fields[3],
			Close:    fields[4],
			Volume:   fields[5],
		})
	}
	return series, nil
}

func asFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case string:
		return strconv.ParseFloat(x, 64)
	case json.Number:
		return x.Float64()
	}
	return 0, fmt.Errorf("unexpected field type %T", v)
}
