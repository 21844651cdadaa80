// Package config loads daemon configuration from TOML files into
// daemontypes.DaemonConfig.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jrepp/duende/pkg/daemontypes"
)

// Duration wraps time.Duration so TOML files can write human-readable
// strings ("30s", "5m") instead of raw nanosecond integers. BurntSushi/toml
// calls UnmarshalText for any table value written as a TOML string.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) asTime() time.Duration { return time.Duration(d) }

type resourceLimitsFile struct {
	MemoryBytes        uint64  `toml:"memory_bytes"`
	MemorySwapBytes    uint64  `toml:"memory_swap_bytes"`
	CPUQuotaPercent    float64 `toml:"cpu_quota_percent"`
	CPUPeriodMicros    uint64  `toml:"cpu_period_micros"`
	CPUShares          uint64  `toml:"cpu_shares"`
	IOReadBytesPerSec  uint64  `toml:"io_read_bps"`
	IOWriteBytesPerSec uint64  `toml:"io_write_bps"`
	MaxPIDs            uint64  `toml:"max_pids"`
	MaxOpenFiles       uint64  `toml:"max_open_files"`
	LockMemory         bool    `toml:"lock_memory"`
	LockMemoryRequired bool    `toml:"lock_memory_required"`
}

type restartPolicyFile struct {
	Kind       string `toml:"kind"`
	MaxRetries int    `toml:"max_retries"`
}

var restartKinds = map[string]daemontypes.RestartPolicyKind{
	"never":          daemontypes.RestartNever,
	"on-failure":     daemontypes.RestartOnFailure,
	"always":         daemontypes.RestartAlways,
	"max-retries":    daemontypes.RestartMaxRetries,
	"unless-stopped": daemontypes.RestartUnlessStopped,
}

type backoffFile struct {
	InitialDelay Duration `toml:"initial_delay"`
	Multiplier   float64  `toml:"multiplier"`
	MaxDelay     Duration `toml:"max_delay"`
}

type healthCheckFile struct {
	Interval Duration `toml:"interval"`
	Timeout  Duration `toml:"timeout"`
}

// daemonConfigFile mirrors daemontypes.DaemonConfig but accepts
// human-readable duration strings and a named restart-policy kind in
// place of the wire-level closed-sum-type fields.
type daemonConfigFile struct {
	Name                    string              `toml:"name"`
	Version                 string              `toml:"version"`
	BinaryPath              string              `toml:"binary_path"`
	Argv                    []string            `toml:"argv"`
	Environment             map[string]string   `toml:"environment"`
	User                    string              `toml:"user"`
	Group                   string              `toml:"group"`
	WorkingDir              string              `toml:"working_dir"`
	Resources               resourceLimitsFile  `toml:"resources"`
	HealthCheck             healthCheckFile     `toml:"health_check"`
	Restart                 restartPolicyFile   `toml:"restart"`
	Backoff                 backoffFile         `toml:"backoff"`
	GracefulShutdownTimeout Duration            `toml:"graceful_shutdown_timeout"`
	PlatformOptions         map[string]string   `toml:"platform_options"`
}

func (f daemonConfigFile) toDaemonConfig() (daemontypes.DaemonConfig, error) {
	kind, ok := restartKinds[f.Restart.Kind]
	if !ok && f.Restart.Kind != "" {
		return daemontypes.DaemonConfig{}, fmt.Errorf("config: unknown restart.kind %q", f.Restart.Kind)
	}

	return daemontypes.DaemonConfig{
		Name:        f.Name,
		Version:     f.Version,
		BinaryPath:  f.BinaryPath,
		Argv:        f.Argv,
		Environment: f.Environment,
		User:        f.User,
		Group:       f.Group,
		WorkingDir:  f.WorkingDir,
		Resources: daemontypes.ResourceLimits{
			MemoryBytes:        f.Resources.MemoryBytes,
			MemorySwapBytes:    f.Resources.MemorySwapBytes,
			CPUQuotaPercent:    f.Resources.CPUQuotaPercent,
			CPUPeriodMicros:    f.Resources.CPUPeriodMicros,
			CPUShares:          f.Resources.CPUShares,
			IOReadBytesPerSec:  f.Resources.IOReadBytesPerSec,
			IOWriteBytesPerSec: f.Resources.IOWriteBytesPerSec,
			MaxPIDs:            f.Resources.MaxPIDs,
			MaxOpenFiles:       f.Resources.MaxOpenFiles,
			LockMemory:         f.Resources.LockMemory,
			LockMemoryRequired: f.Resources.LockMemoryRequired,
		},
		HealthCheck: daemontypes.HealthCheckPolicy{
			Interval: f.HealthCheck.Interval.asTime(),
			Timeout:  f.HealthCheck.Timeout.asTime(),
		},
		Restart: daemontypes.RestartPolicy{
			Kind:       kind,
			MaxRetries: f.Restart.MaxRetries,
		},
		Backoff: daemontypes.BackoffConfig{
			InitialDelay: f.Backoff.InitialDelay.asTime(),
			Multiplier:   f.Backoff.Multiplier,
			MaxDelay:     f.Backoff.MaxDelay.asTime(),
		},
		GracefulShutdownTimeout: f.GracefulShutdownTimeout.asTime(),
		PlatformOptions:         f.PlatformOptions,
	}, nil
}

// Load parses path as TOML and validates the resulting DaemonConfig.
// Unrecognized keys (a newer config file read by an older binary) are
// ignored rather than rejected.
func Load(path string) (daemontypes.DaemonConfig, error) {
	var file daemonConfigFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return daemontypes.DaemonConfig{}, fmt.Errorf("config: decode %s: %w", path, err)
	}

	cfg, err := file.toDaemonConfig()
	if err != nil {
		return daemontypes.DaemonConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return daemontypes.DaemonConfig{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// LoadString is Load's in-memory counterpart, used by tests and by
// callers that already hold TOML text rather than a path.
func LoadString(data string) (daemontypes.DaemonConfig, error) {
	var file daemonConfigFile
	if _, err := toml.Decode(data, &file); err != nil {
		return daemontypes.DaemonConfig{}, fmt.Errorf("config: decode: %w", err)
	}

	cfg, err := file.toDaemonConfig()
	if err != nil {
		return daemontypes.DaemonConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return daemontypes.DaemonConfig{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
