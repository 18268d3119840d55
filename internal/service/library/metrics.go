package library

import (
	"encoding/json"
	"sync"
	"time"
)

// Source identifies which datasource served a request.
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// metricsCapacity bounds the ring buffer; only the most recent calls are kept.
const metricsCapacity = 100

// CallMetric is one recorded datasource call.
type CallMetric struct {
	Source     Source
	Endpoint   string
	Duration   time.Duration
	Success    bool
	IsFallback bool
}

// MarshalJSON reports the duration in whole milliseconds, matching the
// durationMs field name on the wire.
func (c CallMetric) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Source     Source `json:"source"`
		Endpoint   string `json:"endpoint"`
		DurationMs int64  `json:"durationMs"`
		Success    bool   `json:"success"`
		IsFallback bool   `json:"isFallback"`
	}{c.Source, c.Endpoint, c.Duration.Milliseconds(), c.Success, c.IsFallback})
}

// SourceStats aggregates calls per source.
type SourceStats struct {
	Calls        int   `json:"calls"`
	Failures     int   `json:"failures"`
	AvgLatencyMs int64 `json:"avgLatencyMs"`
}

// Stats is the aggregate view over the retained window.
type Stats struct {
	Window       int                    `json:"window"`
	BySource     map[Source]SourceStats `json:"bySource"`
	FallbackRate float64                `json:"fallbackRate"`
}

// Metrics keeps the last metricsCapacity datasource calls in a ring buffer.
// Safe for concurrent use.
type Metrics struct {
	mu    sync.Mutex
	calls [metricsCapacity]CallMetric
	next  int
	size  int
}

// NewMetrics creates an empty metrics recorder.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Record appends one call, evicting the oldest when full.
func (m *Metrics) Record(c CallMetric) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls[m.next] = c
	m.next = (m.next + 1) % metricsCapacity
	if m.size < metricsCapacity {
		m.size++
	}
}

// Recent returns the retained calls ordered oldest first.
func (m *Metrics) Recent() []CallMetric {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]CallMetric, 0, m.size)
	start := m.next - m.size
	if start < 0 {
		start += metricsCapacity
	}
	for i := 0; i < m.size; i++ {
		out = append(out, m.calls[(start+i)%metricsCapacity])
	}
	return out
}

// Stats aggregates the retained window: per-source call counts, failures, and
// average latency, plus the share of calls that were fallbacks.
func (m *Metrics) Stats() Stats {
	calls := m.Recent()

	stats := Stats{
		Window:   len(calls),
		BySource: map[Source]SourceStats{},
	}

	totals := map[Source]time.Duration{}
	fallbacks := 0
	for _, c := range calls {
		s := stats.BySource[c.Source]
		s.Calls++
		if !c.Success {
			s.Failures++
		}
		stats.BySource[c.Source] = s
		totals[c.Source] += c.Duration
		if c.IsFallback {
			fallbacks++
		}
	}

	for src, s := range stats.BySource {
		if s.Calls > 0 {
			s.AvgLatencyMs = (totals[src] / time.Duration(s.Calls)).Milliseconds()
			stats.BySource[src] = s
		}
	}
	if len(calls) > 0 {
		stats.FallbackRate = float64(fallbacks) / float64(len(calls))
	}

	return stats
}
