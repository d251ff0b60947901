package models

// Requests for the scanner HTTP endpoints. Defined in domain for consistency
// and reuse.

type ScanRequest struct {
	// Optional subset of the configured universe; empty means full sweep.
	Symbols []string `json:"symbols" validate:"omitempty,dive,required"`
}

type HistoryRequest struct {
	Symbol string `query:"symbol" json:"symbol"`
	Limit  int    `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=500"`
}

type StatsRequest struct {
	Days int `query:"days" json:"days" default:"7" validate:"gte=1,lte=90"`
}
