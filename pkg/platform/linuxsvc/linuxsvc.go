// Package linuxsvc drives daemons as systemd units. Spawn and Signal shell
// out to systemctl; Status queries the systemd manager over D-Bus and
// falls back to systemctl when D-Bus is unreachable.
package linuxsvc

import (
	"context"
	"fmt"
	"os/exec"

	systemdDbus "github.com/coreos/go-systemd/v22/dbus"

	"github.com/jrepp/duende/pkg/daemon"
	"github.com/jrepp/duende/pkg/daemontypes"
	"github.com/jrepp/duende/pkg/errs"
	"github.com/jrepp/duende/pkg/platform"
	"github.com/jrepp/duende/pkg/platform/cliparse"
)

// Adapter drives daemons as systemd units.
type Adapter struct {
	// dialDbus opens the D-Bus connection Status uses; New sets it to the
	// real system bus.
	dialDbus func(ctx context.Context) (*systemdDbus.Conn, error)
}

// New constructs a linux-service adapter using the real system D-Bus.
func New() *Adapter {
	return &Adapter{dialDbus: systemdDbus.NewSystemConnectionContext}
}

// Platform reports PlatformLinuxService.
func (a *Adapter) Platform() daemontypes.Platform {
	return daemontypes.PlatformLinuxService
}

func unitName(config daemontypes.DaemonConfig) string {
	return config.Name + ".service"
}

// Spawn starts the unit named after config.Name via systemctl start,
// assuming the unit file has already been installed out of band.
func (a *Adapter) Spawn(ctx context.Context, d daemon.Daemon, config daemontypes.DaemonConfig) (daemontypes.DaemonHandle, error) {
	unit := unitName(config)
	if err := runSystemctl(ctx, "start", unit); err != nil {
		return daemontypes.DaemonHandle{}, errs.New(errs.Platform, "systemctl start failed").
			WithCause(err).
			WithContext("unit", unit)
	}
	return daemontypes.DaemonHandle{ID: d.ID(), Platform: daemontypes.PlatformLinuxService, LinuxUnitName: unit}, nil
}

// Signal maps to systemctl kill --signal NAME.
func (a *Adapter) Signal(ctx context.Context, handle daemontypes.DaemonHandle, sig daemontypes.Signal) error {
	if err := runSystemctl(ctx, "kill", "--signal", sig.String(), handle.LinuxUnitName); err != nil {
		return errs.New(errs.Signal, "systemctl kill failed").WithCause(err).WithContext("unit", handle.LinuxUnitName)
	}
	return nil
}

// Status queries the unit's ActiveState, preferring D-Bus and falling
// back to `systemctl show`.
func (a *Adapter) Status(ctx context.Context, handle daemontypes.DaemonHandle) (daemontypes.DaemonStatus, error) {
	if handle.LinuxUnitName == "" {
		return daemontypes.StatusStopped, nil
	}
	if conn, err := a.dialDbus(ctx); err == nil {
		defer conn.Close()
		props, err := conn.GetUnitPropertiesContext(ctx, handle.LinuxUnitName)
		if err == nil {
			if activeState, ok := props["ActiveState"].(string); ok {
				return cliparse.SystemdActiveState("ActiveState=" + activeState), nil
			}
		}
	}

	out, err := exec.CommandContext(ctx, "systemctl", "show", handle.LinuxUnitName, "--property=ActiveState").Output()
	if err != nil {
		return daemontypes.StatusStopped, nil
	}
	return cliparse.SystemdActiveState(string(out)), nil
}

// AttachTracer verifies the unit is active before returning a tracer
// handle; actual ptrace attachment happens in the observability core.
func (a *Adapter) AttachTracer(ctx context.Context, handle daemontypes.DaemonHandle) (daemontypes.TracerHandle, error) {
	status, err := a.Status(ctx, handle)
	if err != nil {
		return daemontypes.TracerHandle{}, err
	}
	if !status.IsActive() {
		return daemontypes.TracerHandle{}, errs.New(errs.Platform, "unit is not active").WithContext("unit", handle.LinuxUnitName)
	}
	return daemontypes.TracerHandle{DaemonId: handle.ID, Kind: daemontypes.TracerPtrace}, nil
}

func runSystemctl(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "systemctl", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("systemctl %v: %w: %s", args, err, out)
	}
	return nil
}

var _ platform.Adapter = (*Adapter)(nil)
