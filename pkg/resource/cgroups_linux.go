//go:build linux

package resource

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jrepp/duende/pkg/daemontypes"
	"github.com/jrepp/duende/pkg/errs"
)

// DefaultCgroupBase is the standard cgroups v2 unified hierarchy mount
// point on a modern Linux host.
const DefaultCgroupBase = "/sys/fs/cgroup"

// CgroupsAvailable reports whether cgroups v2 are usable under base, per
// the presence of cgroup.controllers.
func CgroupsAvailable(base string) bool {
	_, err := os.Stat(filepath.Join(base, "cgroup.controllers"))
	return err == nil
}

// CgroupWriter applies ResourceLimits to a Linux cgroups v2 directory.
type CgroupWriter struct {
	Base   string
	Prefix string
}

// NewCgroupWriter constructs a writer rooted at base, naming child groups
// "<prefix>-<pid>".
func NewCgroupWriter(base, prefix string) *CgroupWriter {
	if base == "" {
		base = DefaultCgroupBase
	}
	return &CgroupWriter{Base: base, Prefix: prefix}
}

func (w *CgroupWriter) dir(pid int) string {
	return filepath.Join(w.Base, fmt.Sprintf("%s-%d", w.Prefix, pid))
}

// Apply creates (idempotently) the cgroup for pid and writes every limit
// file that exists under it, then moves pid into the group.
func (w *CgroupWriter) Apply(pid int, limits daemontypes.ResourceLimits) error {
	dir := w.dir(pid)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.New(errs.ResourceLimit, "create cgroup directory").
			WithCause(err).
			WithContext("dir", dir).
			WithSuggestion("requires root or cgroup delegation")
	}

	if err := writeIfExists(filepath.Join(dir, "memory.max"), strconv.FormatUint(limits.MemoryBytes, 10)); err != nil {
		return err
	}
	if limits.MemorySwapBytes > 0 {
		total := limits.MemoryBytes + limits.MemorySwapBytes
		if err := writeIfExists(filepath.Join(dir, "memory.swap.max"), strconv.FormatUint(total, 10)); err != nil {
			return err
		}
	}
	if limits.CPUQuotaPercent > 0 {
		period := limits.CPUPeriodMicros
		if period == 0 {
			period = 100000
		}
		quota := uint64(limits.CPUQuotaPercent / 100 * float64(period))
		if err := writeIfExists(filepath.Join(dir, "cpu.max"), fmt.Sprintf("%d %d", quota, period)); err != nil {
			return err
		}
	}
	if limits.MaxPIDs > 0 {
		if err := writeIfExists(filepath.Join(dir, "pids.max"), strconv.FormatUint(limits.MaxPIDs, 10)); err != nil {
			return err
		}
	}
	// IO bandwidth limits require device major:minor identification and
	// are deferred as a best-effort extension.

	if err := os.WriteFile(filepath.Join(dir, "cgroup.procs"), []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return errs.New(errs.ResourceLimit, "move process into cgroup").
			WithCause(err).
			WithContext("pid", strconv.Itoa(pid))
	}
	return nil
}

// Remove evicts any processes still in pid's cgroup to the parent group
// and removes the directory. Missing directories are treated as success.
func (w *CgroupWriter) Remove(pid int) error {
	dir := w.dir(pid)
	procsPath := filepath.Join(dir, "cgroup.procs")
	data, err := os.ReadFile(procsPath)
	if err == nil {
		parentProcs := filepath.Join(w.Base, "cgroup.procs")
		for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
			if line == "" {
				continue
			}
			_ = os.WriteFile(parentProcs, []byte(line), 0o644)
		}
	}
	if err := os.Remove(dir); err != nil && !os.IsNotExist(err) {
		return errs.New(errs.ResourceLimit, "remove cgroup directory").
			WithCause(err).
			WithContext("dir", dir)
	}
	return nil
}

func writeIfExists(path, value string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := os.WriteFile(path, []byte(value), 0o644); err != nil {
		return errs.New(errs.ResourceLimit, "write cgroup limit").
			WithCause(err).
			WithContext("path", path).
			WithContext("value", value)
	}
	return nil
}
