package daemontypes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffDelayForMonotoneAndClamped(t *testing.T) {
	b := BackoffConfig{InitialDelay: time.Second, Multiplier: 2.0, MaxDelay: 60 * time.Second}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}
	for n, w := range want {
		assert.Equal(t, w, b.DelayFor(n), "DelayFor(%d)", n)
	}

	prev := time.Duration(0)
	for n := 0; n < 20; n++ {
		d := b.DelayFor(n)
		assert.LessOrEqual(t, d, b.MaxDelay, "DelayFor(%d) exceeds max", n)
		assert.GreaterOrEqual(t, d, prev, "DelayFor(%d) decreased", n)
		prev = d
	}
}

func TestShouldRestartMaxRetries(t *testing.T) {
	p := RestartPolicy{Kind: RestartMaxRetries, MaxRetries: 3}
	for n := 0; n < 3; n++ {
		assert.True(t, p.ShouldRestart(ExitError("boom"), n), "expected restart at count %d", n)
	}
	assert.False(t, p.ShouldRestart(ExitError("boom"), 3), "expected no restart at count 3")
}

func TestShouldRestartOnFailure(t *testing.T) {
	p := RestartPolicy{Kind: RestartOnFailure}
	assert.False(t, p.ShouldRestart(ExitGraceful, 0), "graceful exit must not restart")
	assert.False(t, p.ShouldRestart(ExitBySignal(SignalTerminate), 0), "signal exit must not restart under onFailure")
	assert.True(t, p.ShouldRestart(ExitError("x"), 0), "error exit must restart under onFailure")
	assert.True(t, p.ShouldRestart(ExitResourceExhausted("x"), 0), "resourceExhausted exit must restart under onFailure")
}

func TestShouldRestartNeverAndAlways(t *testing.T) {
	never := RestartPolicy{Kind: RestartNever}
	always := RestartPolicy{Kind: RestartAlways}
	for n := 0; n < 5; n++ {
		assert.False(t, never.ShouldRestart(ExitError("x"), n), "never policy must never restart")
		assert.True(t, always.ShouldRestart(ExitGraceful, n), "always policy must always restart")
	}
}

func TestResourceLimitsValidate(t *testing.T) {
	valid := ResourceLimits{MemoryBytes: 1, CPUQuotaPercent: 1, MaxPIDs: 1}
	require.NoError(t, valid.Validate())

	cases := []ResourceLimits{
		{MemoryBytes: 0, CPUQuotaPercent: 1, MaxPIDs: 1},
		{MemoryBytes: 1, CPUQuotaPercent: 0, MaxPIDs: 1},
		{MemoryBytes: 1, CPUQuotaPercent: 1, MaxPIDs: 0},
	}
	for _, c := range cases {
		assert.Error(t, c.Validate(), "expected validation error for %+v", c)
	}
}

func TestDaemonConfigValidate(t *testing.T) {
	base := DaemonConfig{
		Name:       "my-daemon_1",
		BinaryPath: "/usr/bin/my-daemon",
		Resources:  ResourceLimits{MemoryBytes: 1, CPUQuotaPercent: 1, MaxPIDs: 1},
	}
	require.NoError(t, base.Validate())

	t.Run("empty name", func(t *testing.T) {
		cfg := base
		cfg.Name = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad name characters", func(t *testing.T) {
		cfg := base
		cfg.Name = "bad name!"
		assert.Error(t, cfg.Validate())
	})

	t.Run("empty binary path", func(t *testing.T) {
		cfg := base
		cfg.BinaryPath = ""
		assert.Error(t, cfg.Validate())
	})
}
