package logger

import (
	"sync"
	"time"
)

// CollectedEntry is one remembered warn or error event.
type CollectedEntry struct {
	Time    time.Time              `json:"time"`
	Level   string                 `json:"level"`
	Message string                 `json:"message"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
	Count   int                    `json:"count"`
}

// Collector keeps a bounded tail of warn and error entries in memory so
// the HTTP surface can show recent problems without access to the log
// stream. Consecutive repeats of the same message collapse into one
// entry with a count, so a flapping sink cannot flood the buffer.
type Collector struct {
	mu      sync.Mutex
	max     int
	entries []CollectedEntry // oldest first
}

func NewCollector(max int) *Collector {
	if max <= 0 {
		max = 100
	}
	return &Collector{max: max}
}

func (c *Collector) record(level, msg string, fields []Field) {
	var fm map[string]interface{}
	if len(fields) > 0 {
		fm = make(map[string]interface{}, len(fields))
		for _, f := range fields {
			k, v := f.GetKeyValue()
			fm[k] = v
		}
	}
	now := time.Now().UTC()

	c.mu.Lock()
	defer c.mu.Unlock()
	if n := len(c.entries); n > 0 {
		last := &c.entries[n-1]
		if last.Level == level && last.Message == msg {
			last.Count++
			last.Time = now
			last.Fields = fm
			return
		}
	}
	c.entries = append(c.entries, CollectedEntry{
		Time:    now,
		Level:   level,
		Message: msg,
		Fields:  fm,
		Count:   1,
	})
	if len(c.entries) > c.max {
		c.entries = c.entries[len(c.entries)-c.max:]
	}
}

// Recent returns up to limit entries, newest first.
func (c *Collector) Recent(limit int) []CollectedEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]CollectedEntry, limit)
	for i := 0; i < limit; i++ {
		out[i] = c.entries[n-1-i]
	}
	return out
}
