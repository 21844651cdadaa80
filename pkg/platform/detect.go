package platform

import (
	"os"
	"runtime"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/jrepp/duende/pkg/daemontypes"
)

// DetectOption configures a single Detect call.
type DetectOption func(*detectConfig)

type detectConfig struct {
	logger hclog.Logger
}

// WithDetectLogger logs the platform-selection decision to logger
// instead of discarding it.
func WithDetectLogger(logger hclog.Logger) DetectOption {
	return func(c *detectConfig) {
		c.logger = logger
	}
}

// Detect is a total function picking the best-fit platform for the
// current host, in priority order (Poka-Yoke: fail to the safest, most
// universally-applicable substrate last).
func Detect(opts ...DetectOption) daemontypes.Platform {
	cfg := detectConfig{logger: hclog.NewNullLogger()}
	for _, opt := range opts {
		opt(&cfg)
	}

	p, reason := detect()
	cfg.logger.Debug("platform detected", "platform", p.String(), "reason", reason)
	return p
}

// detect carries out the actual priority-ordered substrate selection and
// reports, alongside the chosen platform, which signal picked it.
func detect() (daemontypes.Platform, string) {
	if runtime.GOARCH == "wasm" || os.Getenv("WOS_KERNEL") != "" || os.Getenv("WOS_VERSION") != "" {
		return daemontypes.PlatformWasmOS, "wasm runtime markers present"
	}
	if os.Getenv("PEPITA_VM") != "" || exists("/dev/virtio-ports") {
		return daemontypes.PlatformMicroVM, "microVM markers present"
	}
	if exists("/.dockerenv") || cgroupMentionsContainer() || os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return daemontypes.PlatformContainer, "container markers present"
	}
	if runtime.GOOS == "linux" && exists("/run/systemd/system") {
		return daemontypes.PlatformLinuxService, "systemd detected on linux"
	}
	if runtime.GOOS == "darwin" {
		return daemontypes.PlatformMacLaunch, "darwin host"
	}
	return daemontypes.PlatformNative, "no substrate markers matched, falling back to native"
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func cgroupMentionsContainer() bool {
	data, err := os.ReadFile("/proc/1/cgroup")
	if err != nil {
		return false
	}
	s := string(data)
	for _, marker := range []string{"docker", "containerd", "kubepods", "lxc"} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}
