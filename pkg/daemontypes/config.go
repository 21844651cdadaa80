package daemontypes

import (
	"fmt"
	"regexp"
	"time"
)

var nameRE = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ResourceLimits bounds the memory, CPU, IO, and process resources a
// daemon may consume. Zero IO values mean unlimited.
type ResourceLimits struct {
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

// Validate rejects zero memory, non-positive CPU quota, and zero PID limits.
func (r ResourceLimits) Validate() error {
	if r.MemoryBytes == 0 {
		return fmt.Errorf("resource limits: memory_bytes must be > 0")
	}
	if r.CPUQuotaPercent <= 0 {
		return fmt.Errorf("resource limits: cpu_quota_percent must be > 0")
	}
	if r.MaxPIDs == 0 {
		return fmt.Errorf("resource limits: max_pids must be > 0")
	}
	return nil
}

// RestartPolicyKind is the closed enum of restart policies.
type RestartPolicyKind int

const (
	RestartNever RestartPolicyKind = iota
	RestartOnFailure
	RestartAlways
	RestartMaxRetries
	RestartUnlessStopped
)

// RestartPolicy decides whether an exited daemon should be restarted.
type RestartPolicy struct {
	Kind       RestartPolicyKind `toml:"kind"`
	MaxRetries int               `toml:"max_retries"`
}

// ShouldRestart is the pure decision function from spec §4.6.
func (p RestartPolicy) ShouldRestart(exitReason ExitReason, priorRestartCount int) bool {
	switch p.Kind {
	case RestartNever:
		return false
	case RestartAlways:
		return true
	case RestartOnFailure:
		return exitReason.IsFailure()
	case RestartMaxRetries:
		return priorRestartCount < p.MaxRetries
	case RestartUnlessStopped:
		if exitReason.IsGraceful() {
			return false
		}
		if _, isSignal := exitReason.Signal(); isSignal {
			return false
		}
		return true
	default:
		return false
	}
}

// BackoffConfig parameterizes the exponential backoff applied between
// restart attempts.
type BackoffConfig struct {
	InitialDelay time.Duration `toml:"initial_delay"`
	Multiplier   float64       `toml:"multiplier"`
	MaxDelay     time.Duration `toml:"max_delay"`
}

// DelayFor returns min(initialDelay * multiplier^n, maxDelay), monotone
// non-decreasing in n, clamped to maxDelay.
func (b BackoffConfig) DelayFor(n int) time.Duration {
	if n < 0 {
		n = 0
	}
	mult := b.Multiplier
	if mult < 1 {
		mult = 1
	}
	delay := float64(b.InitialDelay)
	for i := 0; i < n; i++ {
		delay *= mult
		if time.Duration(delay) >= b.MaxDelay {
			return b.MaxDelay
		}
	}
	d := time.Duration(delay)
	if d > b.MaxDelay {
		return b.MaxDelay
	}
	return d
}

// HealthCheckPolicy configures periodic health probing.
type HealthCheckPolicy struct {
	Interval time.Duration `toml:"interval"`
	Timeout  time.Duration `toml:"timeout"`
}

// DaemonConfig is immutable once Validate succeeds.
type DaemonConfig struct {
	Name                    string            `toml:"name"`
	Version                 string            `toml:"version"`
	BinaryPath              string            `toml:"binary_path"`
	Argv                    []string          `toml:"argv"`
	Environment             map[string]string `toml:"environment"`
	User                    string            `toml:"user"`
	Group                   string            `toml:"group"`
	WorkingDir              string            `toml:"working_dir"`
	Resources               ResourceLimits    `toml:"resources"`
	HealthCheck             HealthCheckPolicy `toml:"health_check"`
	Restart                 RestartPolicy     `toml:"restart"`
	Backoff                 BackoffConfig     `toml:"backoff"`
	GracefulShutdownTimeout time.Duration     `toml:"graceful_shutdown_timeout"`
	PlatformOptions         map[string]string `toml:"platform_options"`
}

// Validate is total and pure: it never performs I/O.
func (c DaemonConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("daemon config: name must not be empty")
	}
	if !nameRE.MatchString(c.Name) {
		return fmt.Errorf("daemon config: name %q must be alphanumeric/-/_", c.Name)
	}
	if c.BinaryPath == "" {
		return fmt.Errorf("daemon config: binary_path must not be empty")
	}
	if err := c.Resources.Validate(); err != nil {
		return err
	}
	return nil
}
