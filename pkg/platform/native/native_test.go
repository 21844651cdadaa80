package native

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrepp/duende/pkg/daemon"
	"github.com/jrepp/duende/pkg/daemontypes"
	"github.com/jrepp/duende/pkg/metrics"
)

type fakeDaemon struct {
	id daemontypes.DaemonId
}

func (f fakeDaemon) ID() daemontypes.DaemonId                            { return f.id }
func (f fakeDaemon) Name() string                                        { return "fake" }
func (f fakeDaemon) Init(context.Context, daemontypes.DaemonConfig) error { return nil }
func (f fakeDaemon) Run(*daemon.Context) daemontypes.ExitReason          { return daemontypes.ExitGraceful }
func (f fakeDaemon) Shutdown(time.Duration) error                        { return nil }
func (f fakeDaemon) HealthCheck() daemontypes.HealthRecord {
	return daemontypes.Healthy(0)
}
func (f fakeDaemon) Metrics() *metrics.Metrics { return metrics.New() }

func requireSh(t *testing.T) string {
	t.Helper()
	shPath, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available in test environment")
	}
	return shPath
}

func TestSpawnSignalStatusLifecycle(t *testing.T) {
	shPath := requireSh(t)

	a := New(t.TempDir())
	d := fakeDaemon{id: daemontypes.NewDaemonId()}
	config := daemontypes.DaemonConfig{
		BinaryPath: shPath,
		Argv:       []string{"-c", "sleep 30"},
	}

	handle, err := a.Spawn(context.Background(), d, config)
	require.NoError(t, err)
	require.Greater(t, handle.NativePID, 0)

	status, err := a.Status(context.Background(), handle)
	require.NoError(t, err)
	assert.True(t, status.Equal(daemontypes.StatusRunning), "expected running, got %v", status)

	_, err = a.AttachTracer(context.Background(), handle)
	require.NoError(t, err)

	require.NoError(t, a.Signal(context.Background(), handle, daemontypes.SignalKill))

	require.Eventually(t, func() bool {
		s, err := a.Status(context.Background(), handle)
		return err == nil && s.IsTerminal()
	}, time.Second, 10*time.Millisecond, "expected reaper to observe the kill")
}

func TestStatusUnknownHandleIsStoppedNotError(t *testing.T) {
	a := New(t.TempDir())
	status, err := a.Status(context.Background(), daemontypes.DaemonHandle{ID: daemontypes.NewDaemonId()})
	require.NoError(t, err)
	assert.True(t, status.Equal(daemontypes.StatusStopped), "expected stopped, got %v", status)
}

func TestPlatformReportsNative(t *testing.T) {
	a := New(t.TempDir())
	assert.Equal(t, daemontypes.PlatformNative, a.Platform())
}

func TestStatusReflectsCleanExit(t *testing.T) {
	shPath := requireSh(t)

	a := New(t.TempDir())
	d := fakeDaemon{id: daemontypes.NewDaemonId()}
	config := daemontypes.DaemonConfig{
		BinaryPath: shPath,
		Argv:       []string{"-c", "exit 0"},
	}

	handle, err := a.Spawn(context.Background(), d, config)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		s, err := a.Status(context.Background(), handle)
		return err == nil && s.Equal(daemontypes.StatusStopped)
	}, time.Second, 10*time.Millisecond, "expected clean exit to be reaped into Stopped")
}

func TestStatusReflectsNonzeroExit(t *testing.T) {
	shPath := requireSh(t)

	a := New(t.TempDir())
	d := fakeDaemon{id: daemontypes.NewDaemonId()}
	config := daemontypes.DaemonConfig{
		BinaryPath: shPath,
		Argv:       []string{"-c", "exit 7"},
	}

	handle, err := a.Spawn(context.Background(), d, config)
	require.NoError(t, err)

	var status daemontypes.DaemonStatus
	require.Eventually(t, func() bool {
		var err error
		status, err = a.Status(context.Background(), handle)
		return err == nil && status.IsTerminal()
	}, time.Second, 10*time.Millisecond, "expected nonzero exit to be reaped into Failed")

	reason, ok := status.FailureReason()
	require.True(t, ok, "expected a failure reason")
	assert.Equal(t, "exit_code(7)", reason.String())
}

func TestStatusReflectsDeathBySignal(t *testing.T) {
	shPath := requireSh(t)

	a := New(t.TempDir())
	d := fakeDaemon{id: daemontypes.NewDaemonId()}
	config := daemontypes.DaemonConfig{
		BinaryPath: shPath,
		Argv:       []string{"-c", "kill -TERM $$; sleep 30"},
	}

	handle, err := a.Spawn(context.Background(), d, config)
	require.NoError(t, err)

	var status daemontypes.DaemonStatus
	require.Eventually(t, func() bool {
		var err error
		status, err = a.Status(context.Background(), handle)
		return err == nil && status.IsTerminal()
	}, time.Second, 10*time.Millisecond, "expected death by signal to be reaped into Failed")

	reason, ok := status.FailureReason()
	require.True(t, ok, "expected a failure reason")
	assert.Equal(t, "signal(15)", reason.String())
}
