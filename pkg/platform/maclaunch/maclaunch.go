// Package maclaunch drives daemons through macOS's launchd via the
// launchctl command-line tool.
package maclaunch

import (
	"context"
	"os/exec"
	"strings"

	"github.com/jrepp/duende/pkg/daemon"
	"github.com/jrepp/duende/pkg/daemontypes"
	"github.com/jrepp/duende/pkg/errs"
	"github.com/jrepp/duende/pkg/platform"
	"github.com/jrepp/duende/pkg/platform/cliparse"
)

// Adapter drives daemons as launchd jobs, addressed by service label.
type Adapter struct{}

// New constructs a mac-launch adapter.
func New() *Adapter {
	return &Adapter{}
}

// Platform reports PlatformMacLaunch.
func (a *Adapter) Platform() daemontypes.Platform {
	return daemontypes.PlatformMacLaunch
}

func label(config daemontypes.DaemonConfig) string {
	return "com.duende." + config.Name
}

// Spawn starts the job with launchctl start, assuming its plist has already been
// installed out of band under ~/Library/LaunchAgents or /Library/LaunchDaemons.
func (a *Adapter) Spawn(ctx context.Context, d daemon.Daemon, config daemontypes.DaemonConfig) (daemontypes.DaemonHandle, error) {
	l := label(config)
	if out, err := exec.CommandContext(ctx, "launchctl", "start", l).CombinedOutput(); err != nil {
		return daemontypes.DaemonHandle{}, errs.New(errs.Platform, "launchctl start failed").
			WithCause(err).WithContext("label", l).WithContext("output", string(out))
	}
	return daemontypes.DaemonHandle{ID: d.ID(), Platform: daemontypes.PlatformMacLaunch, MacServiceLabel: l}, nil
}

// Signal maps to `launchctl kill NAME label`.
func (a *Adapter) Signal(ctx context.Context, handle daemontypes.DaemonHandle, sig daemontypes.Signal) error {
	if out, err := exec.CommandContext(ctx, "launchctl", "kill", sig.String(), handle.MacServiceLabel).CombinedOutput(); err != nil {
		return errs.New(errs.Signal, "launchctl kill failed").WithCause(err).WithContext("output", string(out))
	}
	return nil
}

// Status parses `launchctl list` tab-delimited output for the job label.
func (a *Adapter) Status(ctx context.Context, handle daemontypes.DaemonHandle) (daemontypes.DaemonStatus, error) {
	if handle.MacServiceLabel == "" {
		return daemontypes.StatusStopped, nil
	}
	out, err := exec.CommandContext(ctx, "launchctl", "list").Output()
	if err != nil {
		return daemontypes.StatusStopped, nil
	}
	for _, line := range strings.Split(string(out), "\n") {
		entry, ok := cliparse.ParseLaunchctlList(line, handle.MacServiceLabel)
		if ok {
			return cliparse.LaunchctlStatus(entry), nil
		}
	}
	return daemontypes.StatusStopped, nil
}

// AttachTracer verifies the job is running before returning a tracer handle.
func (a *Adapter) AttachTracer(ctx context.Context, handle daemontypes.DaemonHandle) (daemontypes.TracerHandle, error) {
	status, err := a.Status(ctx, handle)
	if err != nil {
		return daemontypes.TracerHandle{}, err
	}
	if !status.IsActive() {
		return daemontypes.TracerHandle{}, errs.New(errs.Platform, "launchd job is not running").WithContext("label", handle.MacServiceLabel)
	}
	return daemontypes.TracerHandle{DaemonId: handle.ID, Kind: daemontypes.TracerPtrace}, nil
}

var _ platform.Adapter = (*Adapter)(nil)
