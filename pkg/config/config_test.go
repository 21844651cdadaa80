package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrepp/duende/pkg/daemontypes"
)

const validTOML = `
name = "web-worker"
version = "1.0.0"
binary_path = "/usr/local/bin/web-worker"
argv = ["--port", "8080"]
graceful_shutdown_timeout = "15s"

[environment]
LOG_LEVEL = "info"

[resources]
memory_bytes = 536870912
cpu_quota_percent = 50.0
max_pids = 64

[health_check]
interval = "10s"
timeout = "2s"

[restart]
kind = "on-failure"
max_retries = 5

[backoff]
initial_delay = "1s"
multiplier = 2.0
max_delay = "30s"
`

func TestLoadStringParsesDurationsAndRestartKind(t *testing.T) {
	cfg, err := LoadString(validTOML)
	require.NoError(t, err)
	assert.Equal(t, "web-worker", cfg.Name)
	assert.Equal(t, 10*time.Second, cfg.HealthCheck.Interval)
	assert.Equal(t, 30*time.Second, cfg.Backoff.MaxDelay)
	assert.Equal(t, 15*time.Second, cfg.GracefulShutdownTimeout)
	assert.Equal(t, daemontypes.RestartOnFailure, cfg.Restart.Kind)
	assert.Equal(t, "info", cfg.Environment["LOG_LEVEL"])
}

func TestLoadStringIgnoresUnknownKeys(t *testing.T) {
	cfg, err := LoadString(validTOML + "\nbogus_field = true\n")
	require.NoError(t, err, "LoadString with an unrecognized key")
	assert.Equal(t, "web-worker", cfg.Name)
}

func TestLoadStringRejectsUnknownRestartKind(t *testing.T) {
	bad := `
name = "x"
binary_path = "/bin/x"
[resources]
memory_bytes = 1
cpu_quota_percent = 1
max_pids = 1
[restart]
kind = "sometimes"
`
	_, err := LoadString(bad)
	assert.Error(t, err, "expected an error for an unrecognized restart.kind")
}

func TestLoadStringRejectsInvalidDuration(t *testing.T) {
	bad := `
name = "x"
binary_path = "/bin/x"
[resources]
memory_bytes = 1
cpu_quota_percent = 1
max_pids = 1
[health_check]
interval = "not-a-duration"
`
	_, err := LoadString(bad)
	assert.Error(t, err, "expected an error for a malformed duration string")
}

func TestLoadStringPropagatesValidationFailure(t *testing.T) {
	bad := `
name = "x"
binary_path = "/bin/x"
[resources]
memory_bytes = 0
cpu_quota_percent = 1
max_pids = 1
`
	_, err := LoadString(bad)
	assert.Error(t, err, "expected Validate's memory_bytes error to propagate")
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load("/nonexistent/path/to/duende.toml")
	assert.Error(t, err, "expected an error for a missing file")
}
