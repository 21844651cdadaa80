// Package microvm drives daemons as guest microVMs via the pepita VMM
// control binary, communicating guest signals over vsock.
package microvm

import (
	"context"
	"os"
	"os/exec"

	"github.com/jrepp/duende/pkg/daemon"
	"github.com/jrepp/duende/pkg/daemontypes"
	"github.com/jrepp/duende/pkg/errs"
	"github.com/jrepp/duende/pkg/platform"
	"github.com/jrepp/duende/pkg/platform/cliparse"
	"github.com/jrepp/duende/pkg/platform/idalloc"
)

// Adapter drives daemons as pepita microVMs.
type Adapter struct{}

// New requires /dev/kvm to be present and the pepita binary on PATH,
// per the preflight contract for this substrate.
func New() (*Adapter, error) {
	if _, err := os.Stat("/dev/kvm"); err != nil {
		return nil, errs.New(errs.Platform, "/dev/kvm not present").WithCause(err).
			WithSuggestion("enable KVM on this host or choose a different platform")
	}
	if _, err := exec.LookPath("pepita"); err != nil {
		return nil, errs.New(errs.Platform, "pepita binary not found on PATH").WithCause(err)
	}
	return &Adapter{}, nil
}

// Platform reports PlatformMicroVM.
func (a *Adapter) Platform() daemontypes.Platform {
	return daemontypes.PlatformMicroVM
}

// Spawn boots a microVM running config.BinaryPath as the guest init,
// allocating a vsock context id from the process-wide counter.
func (a *Adapter) Spawn(ctx context.Context, d daemon.Daemon, config daemontypes.DaemonConfig) (daemontypes.DaemonHandle, error) {
	cid := idalloc.NextVsockCID()
	out, err := exec.CommandContext(ctx, "pepita", "run", "--cid", itoa(cid), "--init", config.BinaryPath).Output()
	if err != nil {
		return daemontypes.DaemonHandle{}, errs.New(errs.Platform, "pepita run failed").WithCause(err)
	}
	return daemontypes.DaemonHandle{
		ID:              d.ID(),
		Platform:        daemontypes.PlatformMicroVM,
		MicroVMID:       trimTrailingNewline(out),
		MicroVMVsockCID: cid,
	}, nil
}

// Signal sends sig through pepita's control plane.
func (a *Adapter) Signal(ctx context.Context, handle daemontypes.DaemonHandle, sig daemontypes.Signal) error {
	if out, err := exec.CommandContext(ctx, "pepita", "signal", "--vm", handle.MicroVMID, "--signal", sig.String()).CombinedOutput(); err != nil {
		return errs.New(errs.Signal, "pepita signal failed").WithCause(err).WithContext("output", string(out))
	}
	return nil
}

// Status parses pepita's state string.
func (a *Adapter) Status(ctx context.Context, handle daemontypes.DaemonHandle) (daemontypes.DaemonStatus, error) {
	if handle.MicroVMID == "" {
		return daemontypes.StatusStopped, nil
	}
	out, err := exec.CommandContext(ctx, "pepita", "status", "--vm", handle.MicroVMID).Output()
	if err != nil {
		return daemontypes.StatusStopped, nil
	}
	return cliparse.MicroVMStatus(string(out)), nil
}

// AttachTracer verifies the microVM is running before returning a
// remote-vsock tracer handle: ptrace cannot cross the guest boundary.
func (a *Adapter) AttachTracer(ctx context.Context, handle daemontypes.DaemonHandle) (daemontypes.TracerHandle, error) {
	status, err := a.Status(ctx, handle)
	if err != nil {
		return daemontypes.TracerHandle{}, err
	}
	if !status.IsActive() {
		return daemontypes.TracerHandle{}, errs.New(errs.Platform, "microVM is not running").WithContext("vm_id", handle.MicroVMID)
	}
	return daemontypes.TracerHandle{DaemonId: handle.ID, Kind: daemontypes.TracerRemoteVsock}, nil
}

func itoa(n uint32) string {
	if n == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

func trimTrailingNewline(b []byte) string {
	s := string(b)
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

var _ platform.Adapter = (*Adapter)(nil)
