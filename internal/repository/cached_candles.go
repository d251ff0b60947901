package repository

import (
	"context"
	"errors"
	"time"

	"FinScan/internal/domain/models"
	domrepo "FinScan/internal/domain/repository"
	"FinScan/pkg/cache"
	applogger "FinScan/pkg/logger"
	"FinScan/pkg/util"
)

// CachedCandleSource decorates a candle source with a short-lived cache.
// Keys are bucketed to the timeframe, so entries age out on their own the
// moment a new bar opens and repeated evaluations inside one cycle reuse
// the same fetch.
type CachedCandleSource struct {
	inner domrepo.CandleSource
	cache cache.Service
	ttl   time.Duration
	l     *applogger.Logger
}

var _ domrepo.CandleSource = (*CachedCandleSource)(nil)

func NewCachedCandleSource(inner domrepo.CandleSource, c cache.Service, ttl time.Duration, l *applogger.Logger) *CachedCandleSource {
	return &CachedCandleSource{inner: inner, cache: c, ttl: ttl, l: l}
}

func (c *CachedCandleSource) Fetch(ctx context.Context, symbol string, tf domrepo.Timeframe, limit int) (*models.CandleSeries, error) {
	key := candleKey(symbol, tf, limit, time.Now().UTC())

	var cached models.CandleSeries
	err := c.cache.Get(ctx, key, &cached)
	switch {
	case err == nil && cached.Len() > 0:
		return &cached, nil
	case err != nil && !errors.Is(err, cache.ErrCacheMiss):
		c.l.Warn("candle cache read failed",
			applogger.String("key", key),
			applogger.Error(err))
	}

	series, err := c.inner.Fetch(ctx, symbol, tf, limit)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, series, c.ttl); err != nil {
		c.l.Warn("candle cache write failed",
			applogger.String("key", key),
			applogger.Error(err))
	}
	return series, nil
}

func candleKey(symbol string, tf domrepo.Timeframe, limit int, now time.Time) string {
	bucket := util.TruncateToFrame(now, tf.Duration())
	return cache.Key("candles", symbol, tf, limit, bucket.Unix())
}
