// Package daemon defines the lifecycle contract a daemon author implements
// and the runtime context handed to it while running.
package daemon

import (
	"context"
	"time"

	"github.com/jrepp/duende/pkg/daemontypes"
	"github.com/jrepp/duende/pkg/metrics"
)

// Daemon is the polymorphic contract every managed process implements.
// Init is called exactly once before Run; Run is the hot path; Shutdown
// is called exactly once after Run returns. HealthCheck is polled
// periodically by the supervisor and must be side-effect free.
type Daemon interface {
	ID() daemontypes.DaemonId
	Name() string

	// Init validates config and acquires resources. A failed Init
	// prevents Run from ever being called.
	Init(ctx context.Context, config daemontypes.DaemonConfig) error

	// Run is the hot path. It must periodically check ctx.ShouldShutdown
	// and may drain the signal inbox. It returns the reason the daemon
	// stopped running.
	Run(ctx *Context) daemontypes.ExitReason

	// Shutdown is given timeout to release resources. Exceeding timeout
	// is treated as a failed shutdown by the caller.
	Shutdown(timeout time.Duration) error

	// HealthCheck is polled by the supervisor; target latency <1s.
	HealthCheck() daemontypes.HealthRecord

	// Metrics returns the daemon's metrics core, shared by reference.
	Metrics() *metrics.Metrics
}
