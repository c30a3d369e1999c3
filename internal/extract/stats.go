package extract

import (
	"sort"
	"sync"
	"time"
)

// Usage is the token accounting reported by the backend for one call.
type Usage struct {
	PromptTokens int64 `json:"prompt_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

type call struct {
	at        time.Time
	latencyMs int64
	usage     Usage
	failed    bool
}

// StatsSnapshot aggregates the backend calls inside the rolling window.
type StatsSnapshot struct {
	Calls        int     `json:"calls"`
	Failures     int     `json:"failures"`
	PromptTokens int64   `json:"prompt_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	MinMs        int64   `json:"min_ms"`
	MaxMs        int64   `json:"max_ms"`
	AvgMs        float64 `json:"avg_ms"`
	P50Ms        float64 `json:"p50_ms"`
	P95Ms        float64 `json:"p95_ms"`
	P99Ms        float64 `json:"p99_ms"`
}

// LLMStats tracks latency and token usage of recent backend calls.
type LLMStats struct {
	mu     sync.Mutex
	calls  []call
	window time.Duration
}

func NewLLMStats(window time.Duration) *LLMStats {
	if window <= 0 {
		window = time.Hour
	}
	return &LLMStats{
		calls:  make([]call, 0, 256),
		window: window,
	}
}

// Record adds a successful call.
func (s *LLMStats) Record(latency time.Duration, usage Usage) {
	s.add(call{latencyMs: latency.Milliseconds(), usage: usage})
}

// RecordFailure adds a call that returned an error.
func (s *LLMStats) RecordFailure(latency time.Duration) {
	s.add(call{latencyMs: latency.Milliseconds(), failed: true})
}

func (s *LLMStats) add(c call) {
	if c.latencyMs < 0 {
		c.latencyMs = 0
	}
	c.at = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(c.at)
	s.calls = append(s.calls, c)
}

func (s *LLMStats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	if len(s.calls) == 0 {
		return StatsSnapshot{}
	}

	snap := StatsSnapshot{Calls: len(s.calls)}
	latencies := make([]int64, 0, len(s.calls))
	var sum int64
	for _, c := range s.calls {
		latencies = append(latencies, c.latencyMs)
		sum += c.latencyMs
		snap.PromptTokens += c.usage.PromptTokens
		snap.OutputTokens += c.usage.OutputTokens
		if c.failed {
			snap.Failures++
		}
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	snap.MinMs = latencies[0]
	snap.MaxMs = latencies[len(latencies)-1]
	snap.AvgMs = float64(sum) / float64(len(latencies))
	snap.P50Ms = percentile(latencies, 50)
	snap.P95Ms = percentile(latencies, 95)
	snap.P99Ms = percentile(latencies, 99)
	return snap
}

func (s *LLMStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	kept := s.calls[:0]
	for _, c := range s.calls {
		if !c.at.Before(cutoff) {
			kept = append(kept, c)
		}
	}
	s.calls = kept
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}

	rank := float64(len(sorted)-1) * pct / 100
	lower := int(rank)
	if lower+1 >= len(sorted) {
		return float64(sorted[lower])
	}
	lo, hi := float64(sorted[lower]), float64(sorted[lower+1])
	return lo + (hi-lo)*(rank-float64(lower))
}
