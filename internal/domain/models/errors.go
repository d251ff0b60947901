package models

import "errors"

// Per-symbol failure classes. Both lead to the same per-cycle handling (skip
// the symbol, log, continue); they are kept distinct for logging clarity.
var (
	ErrDataUnavailable     = errors.New("market data unavailable")
	ErrInsufficientHistory = errors.New("insufficient candle history")
)

// IsDataError reports whether err is one of the expected per-symbol data
// failures rather than a programming error.
func IsDataError(err error) bool {
	return errors.Is(err, ErrDataUnavailable) || errors.Is(err, ErrInsufficientHistory)
}
