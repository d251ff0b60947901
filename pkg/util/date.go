package util

import "time"

// TruncateToFrame floors t to the start of its timeframe bucket.
func TruncateToFrame(t time.Time, frame time.Duration) time.Time {
	if frame <= 0 {
		return t
	}
	return t.Truncate(frame)
}

// SameUTCDay reports whether both times fall on the same UTC calendar day.
func SameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// SessionAt names the market session active at t (UTC hours).
func SessionAt(t time.Time) string {
	switch hour := t.UTC().Hour(); {
	case hour < 8:
		return "ASIA"
	case hour < 13:
		return "LONDON"
	case hour < 21:
		return "NY"
	default:
		return "ASIA"
	}
}
