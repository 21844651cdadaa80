package supervisor

import (
	"context"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrepp/duende/pkg/daemon"
	"github.com/jrepp/duende/pkg/daemontypes"
	"github.com/jrepp/duende/pkg/metrics"
)

type fakeDaemon struct {
	id daemontypes.DaemonId
	m  *metrics.Metrics
}

func newFakeDaemon() *fakeDaemon {
	return &fakeDaemon{id: daemontypes.NewDaemonId(), m: metrics.New()}
}

func (f *fakeDaemon) ID() daemontypes.DaemonId                             { return f.id }
func (f *fakeDaemon) Name() string                                         { return "fake" }
func (f *fakeDaemon) Init(context.Context, daemontypes.DaemonConfig) error { return nil }
func (f *fakeDaemon) Run(*daemon.Context) daemontypes.ExitReason           { return daemontypes.ExitGraceful }
func (f *fakeDaemon) Shutdown(time.Duration) error                        { return nil }
func (f *fakeDaemon) HealthCheck() daemontypes.HealthRecord                { return daemontypes.Healthy(0) }
func (f *fakeDaemon) Metrics() *metrics.Metrics                            { return f.m }

func validConfig() daemontypes.DaemonConfig {
	return daemontypes.DaemonConfig{
		Name:       "test-daemon",
		BinaryPath: "/usr/bin/test-daemon",
		Resources:  daemontypes.ResourceLimits{MemoryBytes: 1, CPUQuotaPercent: 1, MaxPIDs: 1},
	}
}

func TestRegisterDuplicateIDFails(t *testing.T) {
	r := NewRegistry()
	d := newFakeDaemon()
	policy := daemontypes.RestartPolicy{Kind: daemontypes.RestartNever}
	backoff := daemontypes.BackoffConfig{InitialDelay: time.Second, Multiplier: 2, MaxDelay: time.Minute}

	require.NoError(t, r.Register(d, validConfig(), policy, backoff))
	assert.Error(t, r.Register(d, validConfig(), policy, backoff), "expected duplicate registration to fail")
}

func TestUnregisterActiveDaemonFails(t *testing.T) {
	r := NewRegistry()
	d := newFakeDaemon()
	policy := daemontypes.RestartPolicy{Kind: daemontypes.RestartNever}
	backoff := daemontypes.BackoffConfig{InitialDelay: time.Second, Multiplier: 2, MaxDelay: time.Minute}
	require.NoError(t, r.Register(d, validConfig(), policy, backoff))
	require.NoError(t, r.UpdateStatus(d.ID(), daemontypes.StatusStarting))
	require.NoError(t, r.UpdateStatus(d.ID(), daemontypes.StatusRunning))
	assert.Error(t, r.Unregister(d.ID()), "expected unregister of a running daemon to fail")
}

func TestUpdateStatusEnforcesStateMachine(t *testing.T) {
	r := NewRegistry()
	d := newFakeDaemon()
	policy := daemontypes.RestartPolicy{Kind: daemontypes.RestartNever}
	backoff := daemontypes.BackoffConfig{InitialDelay: time.Second, Multiplier: 2, MaxDelay: time.Minute}
	require.NoError(t, r.Register(d, validConfig(), policy, backoff))
	assert.Error(t, r.UpdateStatus(d.ID(), daemontypes.StatusRunning), "expected created->running to be illegal")
}

func TestSignalUnknownIDIsNotFound(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Signal(daemontypes.NewDaemonId(), daemontypes.SignalTerminate), "expected not-found error for unknown id")
}

func TestSignalTerminalDaemonIsInvalidState(t *testing.T) {
	r := NewRegistry()
	d := newFakeDaemon()
	policy := daemontypes.RestartPolicy{Kind: daemontypes.RestartNever}
	backoff := daemontypes.BackoffConfig{InitialDelay: time.Second, Multiplier: 2, MaxDelay: time.Minute}
	require.NoError(t, r.Register(d, validConfig(), policy, backoff))
	require.NoError(t, r.UpdateStatus(d.ID(), daemontypes.StatusFailed(daemontypes.FailureInternal)))
	assert.Error(t, r.Signal(d.ID(), daemontypes.SignalTerminate), "expected signal on a terminal (Failed) daemon to fail")
}

func TestSignalFanOutDeliversToSender(t *testing.T) {
	r := NewRegistry()
	d := newFakeDaemon()
	policy := daemontypes.RestartPolicy{Kind: daemontypes.RestartNever}
	backoff := daemontypes.BackoffConfig{InitialDelay: time.Second, Multiplier: 2, MaxDelay: time.Minute}
	require.NoError(t, r.Register(d, validConfig(), policy, backoff))
	require.NoError(t, r.UpdateStatus(d.ID(), daemontypes.StatusStarting))
	require.NoError(t, r.UpdateStatus(d.ID(), daemontypes.StatusRunning))
	ctx := daemon.NewContext(validConfig())
	require.NoError(t, r.SetSender(d.ID(), ctx.Sender()))
	require.NoError(t, r.Signal(d.ID(), daemontypes.SignalUser1))

	sig, ok := ctx.TryReceiveSignal()
	require.True(t, ok)
	assert.Equal(t, daemontypes.SignalUser1, sig)
}

func TestGetHealthBeforeUpdateIsNoRecordNotError(t *testing.T) {
	r := NewRegistry()
	d := newFakeDaemon()
	policy := daemontypes.RestartPolicy{Kind: daemontypes.RestartNever}
	backoff := daemontypes.BackoffConfig{InitialDelay: time.Second, Multiplier: 2, MaxDelay: time.Minute}
	require.NoError(t, r.Register(d, validConfig(), policy, backoff))
	_, ok, err := r.GetHealth(d.ID())
	require.NoError(t, err)
	assert.False(t, ok, "expected ok=false before any health update")
}

func TestIncrementRestartCountIsAtomic(t *testing.T) {
	r := NewRegistry()
	d := newFakeDaemon()
	policy := daemontypes.RestartPolicy{Kind: daemontypes.RestartNever}
	backoff := daemontypes.BackoffConfig{InitialDelay: time.Second, Multiplier: 2, MaxDelay: time.Minute}
	require.NoError(t, r.Register(d, validConfig(), policy, backoff))
	for i := 1; i <= 3; i++ {
		got, err := r.IncrementRestartCount(d.ID())
		require.NoError(t, err)
		assert.Equal(t, i, got)
	}
}

func TestShouldRestartVetoedByOpenBreaker(t *testing.T) {
	r := NewRegistry()
	d := newFakeDaemon()
	policy := daemontypes.RestartPolicy{Kind: daemontypes.RestartAlways}
	backoff := daemontypes.BackoffConfig{InitialDelay: time.Second, Multiplier: 2, MaxDelay: time.Minute}
	require.NoError(t, r.Register(d, validConfig(), policy, backoff))
	for i := 0; i < failureThreshold; i++ {
		require.NoError(t, r.RecordRestartOutcome(d.ID(), false))
	}
	should, err := r.ShouldRestart(d.ID(), daemontypes.ExitError("boom"))
	require.NoError(t, err)
	assert.False(t, should, "expected an open breaker to veto the restart despite an always policy")
}

func TestShutdownAllCollectsWithoutAborting(t *testing.T) {
	r := NewRegistry()
	assert.NoError(t, r.ShutdownAll(), "expected no error with no registered senders")

	policy := daemontypes.RestartPolicy{Kind: daemontypes.RestartNever}
	backoff := daemontypes.BackoffConfig{InitialDelay: time.Second, Multiplier: 2, MaxDelay: time.Minute}
	closed, open := newFakeDaemon(), newFakeDaemon()
	require.NoError(t, r.Register(closed, validConfig(), policy, backoff))
	require.NoError(t, r.Register(open, validConfig(), policy, backoff))
	closedCtx := daemon.NewContext(validConfig())
	closedCtx.Close()
	openCtx := daemon.NewContext(validConfig())
	require.NoError(t, r.SetSender(closed.ID(), closedCtx.Sender()))
	require.NoError(t, r.SetSender(open.ID(), openCtx.Sender()))

	assert.Error(t, r.ShutdownAll(), "expected the closed inbox's delivery failure to be returned")
	sig, ok := openCtx.TryReceiveSignal()
	require.True(t, ok, "expected the open inbox to still receive the broadcast")
	assert.Equal(t, daemontypes.SignalTerminate, sig)
}

func TestNewRegistryAcceptsLoggerOption(t *testing.T) {
	logger := hclog.NewNullLogger()
	r := NewRegistry(WithLogger(logger))
	assert.Same(t, logger, r.logger)
}
