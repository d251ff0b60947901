// Package cache provides the short-lived series cache behind the candle
// source: an in-process LRU for single-node runs, redis when several
// scanner instances share one market-data budget, or both layered.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache: key not found")

// Service is the operation set the candle source needs from a backend.
// Values round-trip through JSON unless the backend can hand the stored
// value back directly.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Key joins a prefix and its parts into a colon-separated cache key,
// e.g. Key("candles", "BTCUSDT", "5m", 200) -> "candles:BTCUSDT:5m:200".
func Key(prefix string, parts ...interface{}) string {
	if len(parts) == 0 {
		return prefix
	}
	var b strings.Builder
	b.WriteString(prefix)
	for _, p := range parts {
		fmt.Fprintf(&b, ":%v", p)
	}
	return b.String()
}
