// Package wasmos drives daemons running atop a WebAssembly OS kernel via
// the wos-ctl control binary.
package wasmos

import (
	"context"
	"os/exec"
	"runtime"

	"github.com/jrepp/duende/pkg/daemon"
	"github.com/jrepp/duende/pkg/daemontypes"
	"github.com/jrepp/duende/pkg/errs"
	"github.com/jrepp/duende/pkg/platform"
	"github.com/jrepp/duende/pkg/platform/cliparse"
	"github.com/jrepp/duende/pkg/platform/idalloc"
)

// Adapter drives daemons as wasm-OS processes.
type Adapter struct{}

// New requires either a wasm-target build or the wos-ctl control binary
// on PATH.
func New() (*Adapter, error) {
	if runtime.GOARCH == "wasm" {
		return &Adapter{}, nil
	}
	if _, err := exec.LookPath("wos-ctl"); err != nil {
		return nil, errs.New(errs.Platform, "wos-ctl binary not found on PATH").WithCause(err).
			WithSuggestion("install a wasm-OS control tool or build this daemon for a wasm target")
	}
	return &Adapter{}, nil
}

// Platform reports PlatformWasmOS.
func (a *Adapter) Platform() daemontypes.Platform {
	return daemontypes.PlatformWasmOS
}

// Spawn loads config.BinaryPath (a wasm module) into the kernel's
// process table, allocating a process id from the process-wide counter.
func (a *Adapter) Spawn(ctx context.Context, d daemon.Daemon, config daemontypes.DaemonConfig) (daemontypes.DaemonHandle, error) {
	pid := idalloc.NextWasmPID()
	if out, err := exec.CommandContext(ctx, "wos-ctl", "spawn", "--module", config.BinaryPath).CombinedOutput(); err != nil {
		return daemontypes.DaemonHandle{}, errs.New(errs.Platform, "wos-ctl spawn failed").WithCause(err).WithContext("output", string(out))
	}
	return daemontypes.DaemonHandle{ID: d.ID(), Platform: daemontypes.PlatformWasmOS, WasmProcessID: pid}, nil
}

// Signal delivers sig over wos-ctl's signal RPC.
func (a *Adapter) Signal(ctx context.Context, handle daemontypes.DaemonHandle, sig daemontypes.Signal) error {
	if out, err := exec.CommandContext(ctx, "wos-ctl", "signal", "--pid", itoa(handle.WasmProcessID), "--signal", sig.String()).CombinedOutput(); err != nil {
		return errs.New(errs.Signal, "wos-ctl signal failed").WithCause(err).WithContext("output", string(out))
	}
	return nil
}

// Status queries the kernel's process table via wos-ctl's JSON output.
func (a *Adapter) Status(ctx context.Context, handle daemontypes.DaemonHandle) (daemontypes.DaemonStatus, error) {
	out, err := exec.CommandContext(ctx, "wos-ctl", "status", "--pid", itoa(handle.WasmProcessID), "--json").Output()
	if err != nil {
		return daemontypes.StatusStopped, nil
	}
	state, err := cliparse.ParseWasmCtlState(out)
	if err != nil {
		return daemontypes.StatusStopped, nil
	}
	return cliparse.WasmCtlStatus(state), nil
}

// AttachTracer verifies the process is running; wasm-OS tracing is
// simulated rather than ptrace-based since the guest has no native syscalls.
func (a *Adapter) AttachTracer(ctx context.Context, handle daemontypes.DaemonHandle) (daemontypes.TracerHandle, error) {
	status, err := a.Status(ctx, handle)
	if err != nil {
		return daemontypes.TracerHandle{}, err
	}
	if !status.IsActive() {
		return daemontypes.TracerHandle{}, errs.New(errs.Platform, "wasm-OS process is not running")
	}
	return daemontypes.TracerHandle{DaemonId: handle.ID, Kind: daemontypes.TracerSimulated}, nil
}

func itoa(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

var _ platform.Adapter = (*Adapter)(nil)
