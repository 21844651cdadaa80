// Package native implements the Adapter contract over plain OS processes,
// using os/exec for spawn/signal and a PID-file lock to protect against
// a second supervisor racing to manage the same daemon.
package native

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/hashicorp/go-hclog"

	"github.com/jrepp/duende/pkg/daemon"
	"github.com/jrepp/duende/pkg/daemontypes"
	"github.com/jrepp/duende/pkg/errs"
	"github.com/jrepp/duende/pkg/platform"
)

// procEntry tracks one spawned child: the exec.Cmd used to start it, the
// pid-file lock held for its lifetime, and the status last observed by
// the reaper goroutine started in Spawn. cmd.Wait is called exactly once,
// by that goroutine; Status reads the cached status instead of racing
// cmd.ProcessState.
type procEntry struct {
	cmd  *exec.Cmd
	lock *flock.Flock

	mu     sync.Mutex
	status daemontypes.DaemonStatus
}

func (e *procEntry) get() daemontypes.DaemonStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *procEntry) set(s daemontypes.DaemonStatus) {
	e.mu.Lock()
	e.status = s
	e.mu.Unlock()
}

// Adapter drives daemons as directly-forked child processes of the
// supervisor.
type Adapter struct {
	mu      sync.Mutex
	procs   map[daemontypes.DaemonId]*procEntry
	lockDir string
	logger  hclog.Logger
}

// New constructs a native adapter. lockDir holds one PID-lock file per
// spawned daemon, defaulting to os.TempDir if empty.
func New(lockDir string) *Adapter {
	if lockDir == "" {
		lockDir = os.TempDir()
	}
	return &Adapter{
		procs:   make(map[daemontypes.DaemonId]*procEntry),
		lockDir: lockDir,
		logger:  hclog.L().Named("native"),
	}
}

// Platform reports PlatformNative.
func (a *Adapter) Platform() daemontypes.Platform {
	return daemontypes.PlatformNative
}

// Spawn forks config.BinaryPath, holding a PID-file lock for the
// lifetime of the child to prevent a second supervisor from racing to
// manage the same daemon id (TOCTOU between "is it running" and "start it").
// A background goroutine reaps the child so natural exit and crashes are
// observable through Status without requiring an explicit Kill first.
func (a *Adapter) Spawn(ctx context.Context, d daemon.Daemon, config daemontypes.DaemonConfig) (daemontypes.DaemonHandle, error) {
	if config.BinaryPath == "" {
		return daemontypes.DaemonHandle{}, errs.New(errs.Platform, "native spawn requires a binary path")
	}

	lockPath := filepath.Join(a.lockDir, fmt.Sprintf("duende-%s.lock", d.ID().String()))
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return daemontypes.DaemonHandle{}, errs.New(errs.Platform, "acquire native pid lock").WithCause(err)
	}
	if !locked {
		return daemontypes.DaemonHandle{}, errs.New(errs.Platform, "daemon already managed by another supervisor").
			WithContext("lock_path", lockPath)
	}

	cmd := exec.CommandContext(ctx, config.BinaryPath, config.Argv...)
	cmd.Dir = config.WorkingDir
	cmd.Env = envSlice(config.Environment)
	if err := cmd.Start(); err != nil {
		_ = lock.Unlock()
		a.logger.Error("start native process failed", "id", d.ID().String(), "error", err)
		return daemontypes.DaemonHandle{}, errs.New(errs.Platform, "start native process").WithCause(err)
	}

	entry := &procEntry{cmd: cmd, lock: lock, status: daemontypes.StatusRunning}
	a.mu.Lock()
	a.procs[d.ID()] = entry
	a.mu.Unlock()

	go a.reap(d.ID(), entry)

	return daemontypes.DaemonHandle{ID: d.ID(), Platform: daemontypes.PlatformNative, NativePID: cmd.Process.Pid}, nil
}

// reap blocks on cmd.Wait, which is the only call in the adapter
// permitted to wait on this child's exit status, and records the
// terminal status the exit implies. It always releases the pid lock,
// whether the child exited on its own or was signaled.
func (a *Adapter) reap(id daemontypes.DaemonId, e *procEntry) {
	err := e.cmd.Wait()
	e.set(exitStatus(err))
	_ = e.lock.Unlock()
	if err != nil {
		a.logger.Warn("native process exited", "id", id.String(), "error", err)
	} else {
		a.logger.Debug("native process exited cleanly", "id", id.String())
	}
}

// exitStatus maps the error returned by exec.Cmd.Wait to a terminal
// DaemonStatus: nil means exit 0, *exec.ExitError distinguishes a
// nonzero exit code from death by signal.
func exitStatus(err error) daemontypes.DaemonStatus {
	if err == nil {
		return daemontypes.StatusStopped
	}
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return daemontypes.StatusFailed(daemontypes.FailureInternal)
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return daemontypes.StatusFailed(daemontypes.FailureSignal(int(ws.Signal())))
	}
	return daemontypes.StatusFailed(daemontypes.FailureExitCode(exitErr.ExitCode()))
}

// Signal sends sig via POSIX kill. After a delivered Kill it records the
// tracked child as failed by signal 9 before returning, so Status reports
// a terminal state at once; the reaper goroutine started in Spawn still
// collects the exit on its own, and Signal never waits on the child.
func (a *Adapter) Signal(ctx context.Context, handle daemontypes.DaemonHandle, sig daemontypes.Signal) error {
	if handle.NativePID <= 0 {
		return errs.New(errs.Platform, "native signal requires a positive pid")
	}
	proc, err := os.FindProcess(handle.NativePID)
	if err != nil {
		return errs.New(errs.Platform, "find native process").WithCause(err)
	}
	if err := proc.Signal(syscall.Signal(sig.AsInteger())); err != nil {
		a.logger.Error("deliver signal to native process failed", "id", handle.ID.String(), "signal", sig.String(), "error", err)
		return errs.New(errs.Signal, "deliver signal to native process").WithCause(err)
	}
	if sig == daemontypes.SignalKill {
		a.mu.Lock()
		entry, ok := a.procs[handle.ID]
		a.mu.Unlock()
		if ok {
			entry.set(daemontypes.StatusFailed(daemontypes.FailureSignal(sig.AsInteger())))
		}
	}
	return nil
}

// Status reports the status last recorded by the reaper goroutine, or
// Stopped for an id Spawn never tracked.
func (a *Adapter) Status(ctx context.Context, handle daemontypes.DaemonHandle) (daemontypes.DaemonStatus, error) {
	a.mu.Lock()
	entry, ok := a.procs[handle.ID]
	a.mu.Unlock()
	if !ok {
		return daemontypes.StatusStopped, nil
	}
	return entry.get(), nil
}

// AttachTracer verifies the process exists via signal 0 and returns a
// ptrace-kind tracer handle; actual attachment happens in the
// observability core.
func (a *Adapter) AttachTracer(ctx context.Context, handle daemontypes.DaemonHandle) (daemontypes.TracerHandle, error) {
	if handle.NativePID <= 0 {
		return daemontypes.TracerHandle{}, errs.New(errs.Platform, "attach tracer requires a positive pid")
	}
	proc, err := os.FindProcess(handle.NativePID)
	if err != nil {
		return daemontypes.TracerHandle{}, errs.New(errs.Platform, "find native process").WithCause(err)
	}
	if err := proc.Signal(syscall.Signal(0)); err != nil {
		return daemontypes.TracerHandle{}, errs.New(errs.Platform, "native process is not alive").WithCause(err)
	}
	return daemontypes.TracerHandle{DaemonId: handle.ID, Kind: daemontypes.TracerPtrace}, nil
}

func envSlice(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}

var _ platform.Adapter = (*Adapter)(nil)
