package supervisor

import "sync"

// breakerState is the closed/open/half-open cycle a circuit breaker
// moves through as restarts repeatedly fail.
type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

// failureThreshold is the number of consecutive restart failures that
// trips the breaker open.
const failureThreshold = 5

// circuitBreaker is additive safety layered on top of RestartPolicy: a
// policy may allow unlimited restarts, but a daemon that fails
// immediately on every attempt should stop consuming supervisor cycles
// in a tight loop. One breaker is held per registry entry.
type circuitBreaker struct {
	mu              sync.Mutex
	state           breakerState
	consecutiveFail int
}

func newCircuitBreaker() *circuitBreaker {
	return &circuitBreaker{state: breakerClosed}
}

// allow reports whether a restart attempt may proceed. An open breaker
// vetoes the first attempt after tripping, then moves to half-open, where
// every attempt is allowed until the next recorded outcome closes the
// breaker (success) or reopens it (failure).
func (b *circuitBreaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case breakerOpen:
		b.state = breakerHalfOpen
		return false
	default:
		return true
	}
}

// recordFailure counts a failed restart attempt, tripping the breaker
// open once consecutive failures reach failureThreshold.
func (b *circuitBreaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFail++
	if b.state == breakerHalfOpen || b.consecutiveFail >= failureThreshold {
		b.state = breakerOpen
	}
}

// recordSuccess resets the failure streak and closes the breaker.
func (b *circuitBreaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFail = 0
	b.state = breakerClosed
}
