package observe

import (
	"math"
	"sort"
	"sync"
)

// Event is one observed syscall sample.
type Event struct {
	Syscall string
	WChan   string
}

// Anomaly flags a syscall whose frequency deviates from the mean by at
// least the configured z-score threshold.
type Anomaly struct {
	Syscall   string
	ZScore    float64
	Direction string // "positive" (spike) or "negative" (underuse)
}

// AntiPattern names one of the fixed, threshold-triggered behavioral
// signatures the tracer recognizes.
type AntiPattern string

const (
	AntiPatternBusyPolling    AntiPattern = "busy-polling"
	AntiPatternLockContention AntiPattern = "lock-contention"
	AntiPatternMemoryChurn    AntiPattern = "memory-churn"
)

// Report is the tracer's accumulated findings over its lifetime.
type Report struct {
	Events       []Event
	Anomalies    []Anomaly
	CriticalPath []string // top 5 syscalls by frequency
	AntiPatterns []AntiPattern
}

// ZScoreThreshold is the default |z| cutoff for anomaly emission.
const ZScoreThreshold = 2.0

const minSamplesForAnomaly = 10

var busyPollingSyscalls = map[string]bool{
	"poll": true, "select": true, "epoll_wait": true, "epoll_pwait": true, "pselect6": true,
}

var memoryChurnSyscalls = map[string]bool{
	"brk": true, "mmap": true, "munmap": true,
}

// Tracer accumulates syscall samples for one traced pid without ever
// performing an actual ptrace attach itself — collection reads
// /proc/<pid>/syscall and /proc/<pid>/wchan, which require no tracer
// privilege beyond read access.
type Tracer struct {
	pid int

	mu       sync.Mutex
	events   []Event
	counts   map[string]int
	total    int
	zThresh  float64
}

// NewTracer constructs a tracer for pid using the default z-score threshold.
func NewTracer(pid int) *Tracer {
	return &Tracer{pid: pid, counts: make(map[string]int), zThresh: ZScoreThreshold}
}

// SetZScoreThreshold overrides the default anomaly cutoff.
func (t *Tracer) SetZScoreThreshold(threshold float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.zThresh = threshold
}

// record folds one sample into the accumulated counts. Exposed for the
// platform-specific Collect to call after reading /proc.
func (t *Tracer) record(e Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, e)
	t.counts[e.Syscall]++
	t.total++
}

// Anomalies computes a z-score over per-syscall frequencies against the
// mean across all observed syscalls. Fewer than minSamplesForAnomaly
// total samples, or zero variance, yields no anomalies.
func (t *Tracer) Anomalies() []Anomaly {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.total < minSamplesForAnomaly || len(t.counts) == 0 {
		return nil
	}

	freqs := make([]float64, 0, len(t.counts))
	for _, c := range t.counts {
		freqs = append(freqs, float64(c))
	}
	mean := 0.0
	for _, f := range freqs {
		mean += f
	}
	mean /= float64(len(freqs))

	variance := 0.0
	for _, f := range freqs {
		variance += (f - mean) * (f - mean)
	}
	variance /= float64(len(freqs))
	stddev := math.Sqrt(variance)
	if stddev == 0 {
		return nil
	}

	names := make([]string, 0, len(t.counts))
	for name := range t.counts {
		names = append(names, name)
	}
	sort.Strings(names)

	var anomalies []Anomaly
	for _, name := range names {
		z := (float64(t.counts[name]) - mean) / stddev
		if math.Abs(z) < t.zThresh {
			continue
		}
		direction := "positive"
		if z < 0 {
			direction = "negative"
		}
		anomalies = append(anomalies, Anomaly{Syscall: name, ZScore: z, Direction: direction})
	}
	return anomalies
}

// CriticalPath returns the top five syscalls by frequency, most frequent
// first.
func (t *Tracer) CriticalPath() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	type pair struct {
		name  string
		count int
	}
	pairs := make([]pair, 0, len(t.counts))
	for name, count := range t.counts {
		pairs = append(pairs, pair{name, count})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count != pairs[j].count {
			return pairs[i].count > pairs[j].count
		}
		return pairs[i].name < pairs[j].name
	})
	limit := 5
	if len(pairs) < limit {
		limit = len(pairs)
	}
	out := make([]string, limit)
	for i := 0; i < limit; i++ {
		out[i] = pairs[i].name
	}
	return out
}

// AntiPatterns evaluates the fixed threshold rules against the
// accumulated counts.
func (t *Tracer) AntiPatterns() []AntiPattern {
	t.mu.Lock()
	total := t.total
	counts := make(map[string]int, len(t.counts))
	for k, v := range t.counts {
		counts[k] = v
	}
	t.mu.Unlock()
	if total == 0 {
		return nil
	}

	var patterns []AntiPattern

	busyPolling := 0
	for name := range busyPollingSyscalls {
		busyPolling += counts[name]
	}
	if busyPolling >= 100 && float64(busyPolling)/float64(total) >= 0.5 {
		patterns = append(patterns, AntiPatternBusyPolling)
	}

	futex := counts["futex"]
	if futex >= 100 && float64(futex)/float64(total) >= 0.3 {
		patterns = append(patterns, AntiPatternLockContention)
	}

	churn := 0
	for name := range memoryChurnSyscalls {
		churn += counts[name]
	}
	if churn >= 50 && float64(churn)/float64(total) >= 0.2 {
		patterns = append(patterns, AntiPatternMemoryChurn)
	}

	return patterns
}

// Report assembles the tracer's accumulated findings.
func (t *Tracer) Report() Report {
	t.mu.Lock()
	events := make([]Event, len(t.events))
	copy(events, t.events)
	t.mu.Unlock()

	return Report{
		Events:       events,
		Anomalies:    t.Anomalies(),
		CriticalPath: t.CriticalPath(),
		AntiPatterns: t.AntiPatterns(),
	}
}
