package extract

import (
	"testing"
	"time"
)

func TestLLMStatsSnapshotPercentiles(t *testing.T) {
	stats := NewLLMStats(time.Hour)
	for _, ms := range []int64{100, 200, 300, 400, 500} {
		stats.Record(time.Duration(ms)*time.Millisecond, Usage{PromptTokens: 10, OutputTokens: 5})
	}

	snap := stats.Snapshot()
	if snap.Calls != 5 {
		t.Fatalf("expected calls=5, got %d", snap.Calls)
	}
	if snap.MinMs != 100 {
		t.Fatalf("expected min=100, got %d", snap.MinMs)
	}
	if snap.MaxMs != 500 {
		t.Fatalf("expected max=500, got %d", snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
	if snap.PromptTokens != 50 || snap.OutputTokens != 25 {
		t.Fatalf("expected tokens 50/25, got %d/%d", snap.PromptTokens, snap.OutputTokens)
	}
}

func TestLLMStatsCountsFailures(t *testing.T) {
	stats := NewLLMStats(time.Hour)
	stats.Record(time.Second, Usage{})
	stats.RecordFailure(2 * time.Second)

	snap := stats.Snapshot()
	if snap.Calls != 2 || snap.Failures != 1 {
		t.Fatalf("expected calls=2 failures=1, got calls=%d failures=%d", snap.Calls, snap.Failures)
	}
	if snap.MaxMs != 2000 {
		t.Fatalf("expected max=2000, got %d", snap.MaxMs)
	}
}

func TestLLMStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewLLMStats(10 * time.Millisecond)
	stats.Record(100*time.Millisecond, Usage{})
	time.Sleep(25 * time.Millisecond)

	snap := stats.Snapshot()
	if snap.Calls != 0 {
		t.Fatalf("expected calls=0 after prune, got %d", snap.Calls)
	}

	stats.Record(200*time.Millisecond, Usage{})
	snap = stats.Snapshot()
	if snap.Calls != 1 {
		t.Fatalf("expected calls=1 for fresh sample, got %d", snap.Calls)
	}
	if snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected min=max=200, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
}

func TestLLMStatsClampsNegativeLatency(t *testing.T) {
	stats := NewLLMStats(time.Hour)
	stats.Record(-10*time.Millisecond, Usage{})
	snap := stats.Snapshot()
	if snap.Calls != 1 {
		t.Fatalf("expected calls=1, got %d", snap.Calls)
	}
	if snap.MinMs != 0 || snap.MaxMs != 0 {
		t.Fatalf("expected clamped latency=0, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
}
