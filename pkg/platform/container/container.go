// Package container drives daemons as OCI-style containers via whichever
// runtime CLI is first found on PATH: docker, podman, nerdctl, or ctr.
package container

import (
	"context"
	"os/exec"

	"github.com/jrepp/duende/pkg/daemon"
	"github.com/jrepp/duende/pkg/daemontypes"
	"github.com/jrepp/duende/pkg/errs"
	"github.com/jrepp/duende/pkg/platform"
	"github.com/jrepp/duende/pkg/platform/cliparse"
)

var runtimeCandidates = []string{"docker", "podman", "nerdctl", "ctr"}

// Adapter drives daemons as containers under the first detected runtime.
type Adapter struct {
	runtime string
}

// New detects the available runtime binary and constructs an adapter
// for it. Detection failure is returned, not panicked.
func New() (*Adapter, error) {
	for _, candidate := range runtimeCandidates {
		if _, err := exec.LookPath(candidate); err == nil {
			return &Adapter{runtime: candidate}, nil
		}
	}
	return nil, errs.New(errs.Platform, "no container runtime found on PATH").
		WithSuggestion("install one of: docker, podman, nerdctl, ctr")
}

// Platform reports PlatformContainer.
func (a *Adapter) Platform() daemontypes.Platform {
	return daemontypes.PlatformContainer
}

// Spawn runs config.BinaryPath as the container's image reference, using
// config.Name as the container name.
func (a *Adapter) Spawn(ctx context.Context, d daemon.Daemon, config daemontypes.DaemonConfig) (daemontypes.DaemonHandle, error) {
	args := append([]string{"run", "-d", "--name", config.Name, config.BinaryPath}, config.Argv...)
	out, err := exec.CommandContext(ctx, a.runtime, args...).Output()
	if err != nil {
		return daemontypes.DaemonHandle{}, errs.New(errs.Platform, a.runtime+" run failed").WithCause(err)
	}
	return daemontypes.DaemonHandle{
		ID:               d.ID(),
		Platform:         daemontypes.PlatformContainer,
		ContainerID:      trimTrailingNewline(out),
		ContainerRuntime: a.runtime,
	}, nil
}

// Signal maps to `<runtime> kill --signal SIG container`.
func (a *Adapter) Signal(ctx context.Context, handle daemontypes.DaemonHandle, sig daemontypes.Signal) error {
	if out, err := exec.CommandContext(ctx, a.runtime, "kill", "--signal", sig.String(), handle.ContainerID).CombinedOutput(); err != nil {
		return errs.New(errs.Signal, a.runtime+" kill failed").WithCause(err).WithContext("output", string(out))
	}
	return nil
}

// Status parses `<runtime> inspect` state JSON.
func (a *Adapter) Status(ctx context.Context, handle daemontypes.DaemonHandle) (daemontypes.DaemonStatus, error) {
	if handle.ContainerID == "" {
		return daemontypes.StatusStopped, nil
	}
	out, err := exec.CommandContext(ctx, a.runtime, "inspect", "--format", "{{json .State}}", handle.ContainerID).Output()
	if err != nil {
		return daemontypes.StatusStopped, nil
	}
	state, err := cliparse.ParseContainerState(out)
	if err != nil {
		return daemontypes.StatusStopped, nil
	}
	return cliparse.ContainerStatus(state), nil
}

// AttachTracer verifies the container is running before returning a
// tracer handle.
func (a *Adapter) AttachTracer(ctx context.Context, handle daemontypes.DaemonHandle) (daemontypes.TracerHandle, error) {
	status, err := a.Status(ctx, handle)
	if err != nil {
		return daemontypes.TracerHandle{}, err
	}
	if !status.IsActive() {
		return daemontypes.TracerHandle{}, errs.New(errs.Platform, "container is not running").WithContext("container_id", handle.ContainerID)
	}
	return daemontypes.TracerHandle{DaemonId: handle.ID, Kind: daemontypes.TracerPtrace}, nil
}

func trimTrailingNewline(b []byte) string {
	s := string(b)
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

var _ platform.Adapter = (*Adapter)(nil)
