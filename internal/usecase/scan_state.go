package usecase

import (
	"sync"
	"time"

	"FinScan/pkg/util"
)

// ScanState is the orchestrator's suppression bookkeeping: per-symbol
// cooldowns plus daily and category budgets. Counters reset when the UTC
// date changes, cooldowns expire on their own. Shared by the interval loop
// and manual scans, so every access is mutex-guarded.
type ScanState struct {
	mu            sync.Mutex
	cooldownUntil map[string]time.Time
	signalsToday  int
	categoryCount map[string]int
	lastReset     time.Time
}

func NewScanState() *ScanState {
	return &ScanState{
		cooldownUntil: make(map[string]time.Time),
		categoryCount: make(map[string]int),
		lastReset:     time.Now().UTC(),
	}
}

// ResetIfNewDay zeroes the daily counters when the UTC date moved on.
func (s *ScanState) ResetIfNewDay(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if util.SameUTCDay(s.lastReset, now) {
		return
	}
	s.signalsToday = 0
	s.categoryCount = make(map[string]int)
	s.lastReset = now.UTC()
}

// OnCooldown reports whether the symbol is still inside its cooldown window.
func (s *ScanState) OnCooldown(symbol string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.cooldownUntil[symbol]
	return ok && now.Before(until)
}

// DailyBudgetLeft reports whether another signal fits under the daily cap.
func (s *ScanState) DailyBudgetLeft(maxPerDay int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signalsToday < maxPerDay
}

// CategoryBudgetLeft reports whether another signal fits under the
// category's daily cap.
func (s *ScanState) CategoryBudgetLeft(category string, limit int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.categoryCount[category] < limit
}

// MarkEmitted records an accepted signal: starts the symbol's cooldown and
// consumes budget.
func (s *ScanState) MarkEmitted(symbol, category string, now time.Time, cooldown time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cooldownUntil[symbol] = now.Add(cooldown)
	s.signalsToday++
	s.categoryCount[category]++
}

// SignalsToday returns the number of signals emitted since the last reset.
func (s *ScanState) SignalsToday() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signalsToday
}

// CategoryCounts returns a copy of the per-category counters.
func (s *ScanState) CategoryCounts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.categoryCount))
	for k, v := range s.categoryCount {
		out[k] = v
	}
	return out
}

// ActiveCooldowns counts symbols still cooling down, dropping expired
// entries as a side effect.
func (s *ScanState) ActiveCooldowns(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for sym, until := range s.cooldownUntil {
		if now.Before(until) {
			n++
		} else {
			delete(s.cooldownUntil, sym)
		}
	}
	return n
}
