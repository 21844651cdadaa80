// Package escalation implements the timeout-triggered forced-kill
// escalation applied when a daemon fails to honor a graceful shutdown
// request within its configured timeout.
package escalation

import (
	"context"
	"time"

	"github.com/jrepp/duende/pkg/daemontypes"
)

// Signaler is the minimal capability escalation needs: deliver a signal
// to a daemon by id. Both supervisor.Registry and a platform.Adapter
// (via a handle-closing adapter) satisfy a shape like this.
type Signaler interface {
	Signal(id daemontypes.DaemonId, sig daemontypes.Signal) error
}

// StatusGetter reports a daemon's current status, used to detect that it
// has already stopped before escalating.
type StatusGetter interface {
	Status(id daemontypes.DaemonId) (daemontypes.DaemonStatus, error)
}

// Watch waits up to timeout for id to reach a terminal status after a
// graceful shutdown request. If it has not, it escalates to SIGKILL.
// Watch blocks; callers that must not block the caller's own shutdown
// path should run it in a goroutine.
func Watch(ctx context.Context, signals Signaler, statuses StatusGetter, id daemontypes.DaemonId, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	poll := time.NewTicker(pollInterval(timeout))
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-deadline.C:
			return signals.Signal(id, daemontypes.SignalKill)
		case <-poll.C:
			status, err := statuses.Status(id)
			if err != nil {
				continue
			}
			if status.IsTerminal() {
				return nil
			}
		}
	}
}

// pollInterval picks a poll cadence proportional to the timeout, never
// faster than 10ms nor slower than 1s.
func pollInterval(timeout time.Duration) time.Duration {
	interval := timeout / 20
	if interval < 10*time.Millisecond {
		return 10 * time.Millisecond
	}
	if interval > time.Second {
		return time.Second
	}
	return interval
}
