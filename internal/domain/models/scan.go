package models

import "time"

// ScanTrigger names what started a cycle.
type ScanTrigger string

const (
	TriggerInterval ScanTrigger = "interval"
	TriggerManual   ScanTrigger = "manual"
)

// ScanReport summarizes one completed scan cycle.
type ScanReport struct {
	Trigger    ScanTrigger
	StartedAt  time.Time
	FinishedAt time.Time
	Symbols    int
	Evaluated  int
	Failures   int
	Accepted   []ScoredSignal
	// Rejections per terminal reason, for status/debugging only.
	Suppressed map[string]int
}

func (r *ScanReport) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// ScanStatus is the operational snapshot served by the status endpoint.
type ScanStatus struct {
	Running         bool
	StartedAt       time.Time
	CyclesRun       int64
	LastCycleAt     time.Time
	LastCycleTook   time.Duration
	LastAccepted    int
	SignalsToday    int
	DailyRemaining  int
	CategoryCounts  map[string]int
	ActiveCooldowns int
	Session         string
}

// SignalOutcome records how a stored signal resolved.
type SignalOutcome struct {
	SignalID string
	Status   OutcomeStatus
	HitLevel string // "TP1", "TP2", "TP3", "SL" or empty while open
	PnlPct   float64
	ClosedAt time.Time
}

// OutcomeStatus of a tracked signal.
type OutcomeStatus string

const (
	OutcomeOpen    OutcomeStatus = "OPEN"
	OutcomeWin     OutcomeStatus = "WIN"
	OutcomeLoss    OutcomeStatus = "LOSS"
	OutcomeExpired OutcomeStatus = "EXPIRED"
)

// PerformanceStats aggregates stored signal outcomes over a window.
type PerformanceStats struct {
	Days     int
	Total    int
	Wins     int
	Losses   int
	Open     int
	Expired  int
	WinRate  float64 // wins / (wins+losses), 0 when unresolved
	AvgScore float64
	SumPnl   float64
}
