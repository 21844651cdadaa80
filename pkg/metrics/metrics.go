// Package metrics implements the lock-free metrics core shared by every
// daemon: atomic counters for requests, errors, and duration statistics,
// plus a point-in-time snapshot suitable for serialization.
package metrics

import (
	"sync/atomic"
	"time"
)

// core holds the shared atomic state. Metrics wraps a pointer to core so
// that Clone produces an alias rather than an independent copy.
type core struct {
	requestsTotal   atomic.Uint64
	errorsTotal     atomic.Uint64
	durationSum     atomic.Uint64 // nanoseconds
	durationCount   atomic.Uint64
	durationMax     atomic.Int64 // nanoseconds, CAS loop
	circuitTrips    atomic.Uint64
	circuitRecovers atomic.Uint64

	cpuPercentX10 atomic.Int64
	memoryBytes   atomic.Uint64
	openFDs       atomic.Int64
	threadCount   atomic.Int64

	createdAt time.Time
}

// Metrics is the shared-by-value handle to a daemon's metrics core.
// Cloning it via Clone produces an alias: updates through either handle
// are visible through the other.
type Metrics struct {
	c *core
}

// New constructs a fresh metrics core stamped with the current time as
// its creation instant.
func New() *Metrics {
	return &Metrics{c: &core{createdAt: time.Now()}}
}

// Clone returns an alias sharing the same underlying atomics.
func (m *Metrics) Clone() *Metrics {
	return &Metrics{c: m.c}
}

// RecordRequest increments the request counter.
func (m *Metrics) RecordRequest() {
	m.c.requestsTotal.Add(1)
}

// RecordError increments the error counter.
func (m *Metrics) RecordError() {
	m.c.errorsTotal.Add(1)
}

// RecordDuration folds d into the running sum/count and updates the
// maximum via a CAS loop.
func (m *Metrics) RecordDuration(d time.Duration) {
	m.c.durationSum.Add(uint64(d))
	m.c.durationCount.Add(1)
	ns := int64(d)
	for {
		cur := m.c.durationMax.Load()
		if ns <= cur {
			return
		}
		if m.c.durationMax.CompareAndSwap(cur, ns) {
			return
		}
	}
}

// RecordCircuitTrip increments the circuit-breaker trip counter.
func (m *Metrics) RecordCircuitTrip() {
	m.c.circuitTrips.Add(1)
}

// RecordRecovery increments the circuit-breaker recovery counter.
func (m *Metrics) RecordRecovery() {
	m.c.circuitRecovers.Add(1)
}

// SetCPUPercent stores pct ×10 to preserve one fractional digit.
func (m *Metrics) SetCPUPercent(pct float64) {
	m.c.cpuPercentX10.Store(int64(pct * 10))
}

// SetMemoryBytes stores the current resident memory usage.
func (m *Metrics) SetMemoryBytes(bytes uint64) {
	m.c.memoryBytes.Store(bytes)
}

// SetOpenFDs stores the current open file descriptor count.
func (m *Metrics) SetOpenFDs(n int) {
	m.c.openFDs.Store(int64(n))
}

// SetThreadCount stores the current OS thread count.
func (m *Metrics) SetThreadCount(n int) {
	m.c.threadCount.Store(int64(n))
}

// ErrorRate returns errors/requests, or 0 when no requests were recorded.
func (m *Metrics) ErrorRate() float64 {
	requests := m.c.requestsTotal.Load()
	if requests == 0 {
		return 0
	}
	return float64(m.c.errorsTotal.Load()) / float64(requests)
}

// AverageDuration returns sum/count, or 0 when count is 0.
func (m *Metrics) AverageDuration() time.Duration {
	count := m.c.durationCount.Load()
	if count == 0 {
		return 0
	}
	return time.Duration(m.c.durationSum.Load() / count)
}

// MaxDuration returns the largest duration recorded so far.
func (m *Metrics) MaxDuration() time.Duration {
	return time.Duration(m.c.durationMax.Load())
}

// RequestsPerSecond returns total requests divided by uptime in seconds,
// or 0 when uptime is not positive.
func (m *Metrics) RequestsPerSecond() float64 {
	uptime := m.Uptime().Seconds()
	if uptime <= 0 {
		return 0
	}
	return float64(m.c.requestsTotal.Load()) / uptime
}

// Uptime returns the time elapsed since the metrics core was created.
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.c.createdAt)
}

// Snapshot is an immutable, serializable capture of a Metrics instance at
// a point in time.
type Snapshot struct {
	RequestsTotal      uint64        `json:"requests_total"`
	ErrorsTotal        uint64        `json:"errors_total"`
	ErrorRate          float64       `json:"error_rate"`
	AverageDurationMs  float64       `json:"average_duration_ms"`
	MaxDurationMs      float64       `json:"max_duration_ms"`
	RequestsPerSecond  float64       `json:"requests_per_second"`
	CircuitTrips       uint64        `json:"circuit_trips"`
	CircuitRecoveries  uint64        `json:"circuit_recoveries"`
	CPUPercent         float64       `json:"cpu_percent"`
	MemoryBytes        uint64        `json:"memory_bytes"`
	OpenFDs            int64         `json:"open_fds"`
	ThreadCount        int64         `json:"thread_count"`
	Uptime             time.Duration `json:"uptime_ns"`
}

// Snapshot captures every field of the metrics core as an immutable value.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		RequestsTotal:     m.c.requestsTotal.Load(),
		ErrorsTotal:       m.c.errorsTotal.Load(),
		ErrorRate:         m.ErrorRate(),
		AverageDurationMs: float64(m.AverageDuration()) / float64(time.Millisecond),
		MaxDurationMs:     float64(m.MaxDuration()) / float64(time.Millisecond),
		RequestsPerSecond: m.RequestsPerSecond(),
		CircuitTrips:      m.c.circuitTrips.Load(),
		CircuitRecoveries: m.c.circuitRecovers.Load(),
		CPUPercent:        float64(m.c.cpuPercentX10.Load()) / 10,
		MemoryBytes:       m.c.memoryBytes.Load(),
		OpenFDs:           m.c.openFDs.Load(),
		ThreadCount:       m.c.threadCount.Load(),
		Uptime:            m.Uptime(),
	}
}
