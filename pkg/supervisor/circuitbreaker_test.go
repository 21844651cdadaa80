package supervisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreakerTripsAfterThreshold(t *testing.T) {
	b := newCircuitBreaker()
	for i := 0; i < failureThreshold-1; i++ {
		b.recordFailure()
		assert.True(t, b.allow(), "breaker tripped early at failure %d", i)
	}
	b.recordFailure()
	assert.False(t, b.allow(), "expected breaker to veto immediately after tripping")
	// Half-open now: next allow call probes through.
	assert.True(t, b.allow(), "expected half-open breaker to allow one probe")
}

func TestCircuitBreakerRecoversOnSuccess(t *testing.T) {
	b := newCircuitBreaker()
	for i := 0; i < failureThreshold; i++ {
		b.recordFailure()
	}
	b.recordSuccess()
	assert.True(t, b.allow(), "expected a recovered breaker to allow restarts")
}
