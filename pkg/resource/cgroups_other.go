//go:build !linux

package resource

import (
	"github.com/hashicorp/go-hclog"

	"github.com/jrepp/duende/pkg/daemontypes"
)

// DefaultCgroupBase is unused outside Linux; kept so callers can reference
// it uniformly across platforms.
const DefaultCgroupBase = "/sys/fs/cgroup"

// CgroupsAvailable always reports false on non-Linux hosts.
func CgroupsAvailable(base string) bool {
	return false
}

// CgroupWriter is a no-op stand-in on non-Linux hosts: limits only ever
// affect the calling process via setrlimit, never a cgroup.
type CgroupWriter struct {
	Base   string
	Prefix string
	Logger hclog.Logger
}

// NewCgroupWriter constructs a no-op writer.
func NewCgroupWriter(base, prefix string) *CgroupWriter {
	return &CgroupWriter{Base: base, Prefix: prefix, Logger: hclog.L()}
}

// Apply logs that cgroup enforcement is unavailable and returns nil.
func (w *CgroupWriter) Apply(pid int, limits daemontypes.ResourceLimits) error {
	w.Logger.Debug("cgroups unavailable on this platform, limits affect only the calling process", "pid", pid)
	return nil
}

// Remove is a no-op on non-Linux hosts.
func (w *CgroupWriter) Remove(pid int) error {
	return nil
}
