// Package platform abstracts over the six execution substrates a daemon
// may run under, behind one uniform Adapter contract, plus the
// auto-detection logic that picks the right one for the current host.
package platform

import (
	"context"

	"github.com/jrepp/duende/pkg/daemon"
	"github.com/jrepp/duende/pkg/daemontypes"
)

// Adapter is the uniform capability surface every substrate implements.
type Adapter interface {
	// Spawn creates substrate-specific state for d under config and
	// returns an opaque handle. Preflight checks fail fast with
	// actionable diagnostics.
	Spawn(ctx context.Context, d daemon.Daemon, config daemontypes.DaemonConfig) (daemontypes.DaemonHandle, error)

	// Signal translates sig to the substrate's native mechanism.
	// Delivering Kill to a native handle additionally records the tracked
	// child as terminal within the same call.
	Signal(ctx context.Context, handle daemontypes.DaemonHandle, sig daemontypes.Signal) error

	// Status observes the substrate and maps its state to DaemonStatus.
	// An unknown handle is never an error; it reports Stopped.
	Status(ctx context.Context, handle daemontypes.DaemonHandle) (daemontypes.DaemonStatus, error)

	// AttachTracer verifies the target process is alive and returns a
	// tracer handle keyed to the daemon id. It never performs the actual
	// ptrace attach; that is deferred to the observability core.
	AttachTracer(ctx context.Context, handle daemontypes.DaemonHandle) (daemontypes.TracerHandle, error)

	// Platform reports which substrate this adapter drives.
	Platform() daemontypes.Platform
}
