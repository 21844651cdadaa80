package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConcurrentRecordRequest(t *testing.T) {
	m := New()
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				m.RecordRequest()
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 400, m.Snapshot().RequestsTotal)
}

func TestCloneIsAlias(t *testing.T) {
	m := New()
	alias := m.Clone()
	alias.RecordRequest()
	assert.EqualValues(t, 1, m.Snapshot().RequestsTotal, "expected clone writes visible on original")
}

func TestErrorRateZeroWhenNoRequests(t *testing.T) {
	m := New()
	assert.Zero(t, m.ErrorRate())
}

func TestErrorRateComputation(t *testing.T) {
	m := New()
	for i := 0; i < 10; i++ {
		m.RecordRequest()
	}
	for i := 0; i < 3; i++ {
		m.RecordError()
	}
	assert.Equal(t, 0.3, m.ErrorRate())
}

func TestDurationMaxUnderConcurrency(t *testing.T) {
	m := New()
	durations := []time.Duration{10 * time.Millisecond, 50 * time.Millisecond, 5 * time.Millisecond, 100 * time.Millisecond}
	var wg sync.WaitGroup
	for _, d := range durations {
		wg.Add(1)
		go func(d time.Duration) {
			defer wg.Done()
			m.RecordDuration(d)
		}(d)
	}
	wg.Wait()
	assert.Equal(t, 100*time.Millisecond, m.MaxDuration())

	snap := m.Snapshot()
	assert.Greater(t, snap.AverageDurationMs, 0.0, "expected positive average duration")
}

func TestCPUPercentStoredWithOneFractionalDigit(t *testing.T) {
	m := New()
	m.SetCPUPercent(42.7)
	assert.Equal(t, 42.7, m.Snapshot().CPUPercent)
}

func TestRequestsPerSecondZeroImmediatelyAfterCreation(t *testing.T) {
	m := New()
	assert.Zero(t, m.RequestsPerSecond(), "expected 0 rps with no elapsed time/requests")
}
