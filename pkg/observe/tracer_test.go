package observe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fillTracer(t *Tracer, name string, n int) {
	for i := 0; i < n; i++ {
		t.record(Event{Syscall: name})
	}
}

func TestSyscallNameFallsBackToSynthetic(t *testing.T) {
	assert.Equal(t, "read", syscallName(0))
	assert.Equal(t, "syscall_99999", syscallName(99999))
}

func TestAnomaliesRequireMinimumSamples(t *testing.T) {
	tr := NewTracer(1)
	fillTracer(tr, "read", 5)
	assert.Nil(t, tr.Anomalies(), "expected no anomalies below minimum sample count")
}

func TestAnomaliesDetectSpike(t *testing.T) {
	tr := NewTracer(1)
	fillTracer(tr, "read", 5)
	fillTracer(tr, "write", 5)
	fillTracer(tr, "futex", 5)
	fillTracer(tr, "open", 5)
	fillTracer(tr, "close", 5)
	fillTracer(tr, "poll", 200)

	anomalies := tr.Anomalies()
	found := false
	for _, a := range anomalies {
		if a.Syscall == "poll" && a.Direction == "positive" {
			found = true
		}
	}
	assert.True(t, found, "expected a positive anomaly for poll, got %v", anomalies)
}

func TestCriticalPathTopFive(t *testing.T) {
	tr := NewTracer(1)
	fillTracer(tr, "read", 10)
	fillTracer(tr, "write", 9)
	fillTracer(tr, "open", 8)
	fillTracer(tr, "close", 7)
	fillTracer(tr, "futex", 6)
	fillTracer(tr, "poll", 1)

	path := tr.CriticalPath()
	want := []string{"read", "write", "open", "close", "futex"}
	require.Len(t, path, len(want))
	assert.Equal(t, want, path)
}

func TestAntiPatternBusyPolling(t *testing.T) {
	tr := NewTracer(1)
	fillTracer(tr, "poll", 120)
	fillTracer(tr, "read", 20)

	patterns := tr.AntiPatterns()
	assert.True(t, containsPattern(patterns, AntiPatternBusyPolling), "expected busy-polling pattern, got %v", patterns)
}

func TestAntiPatternLockContention(t *testing.T) {
	tr := NewTracer(1)
	fillTracer(tr, "futex", 150)
	fillTracer(tr, "read", 200)

	patterns := tr.AntiPatterns()
	assert.True(t, containsPattern(patterns, AntiPatternLockContention), "expected lock-contention pattern, got %v", patterns)
}

func TestAntiPatternMemoryChurn(t *testing.T) {
	tr := NewTracer(1)
	fillTracer(tr, "mmap", 30)
	fillTracer(tr, "munmap", 30)
	fillTracer(tr, "read", 100)

	patterns := tr.AntiPatterns()
	assert.True(t, containsPattern(patterns, AntiPatternMemoryChurn), "expected memory-churn pattern, got %v", patterns)
}

func TestAntiPatternsBelowThresholdAreSilent(t *testing.T) {
	tr := NewTracer(1)
	fillTracer(tr, "futex", 10)
	fillTracer(tr, "read", 200)

	assert.Empty(t, tr.AntiPatterns(), "expected no anti-patterns below threshold")
}

func TestReportIncludesAllSections(t *testing.T) {
	tr := NewTracer(1)
	fillTracer(tr, "poll", 120)
	fillTracer(tr, "read", 20)

	report := tr.Report()
	assert.Len(t, report.Events, 140)
	assert.NotEmpty(t, report.CriticalPath, "expected a non-empty critical path")
	assert.True(t, containsPattern(report.AntiPatterns, AntiPatternBusyPolling), "expected busy-polling in report, got %v", report.AntiPatterns)
}

func containsPattern(patterns []AntiPattern, want AntiPattern) bool {
	for _, p := range patterns {
		if p == want {
			return true
		}
	}
	return false
}
