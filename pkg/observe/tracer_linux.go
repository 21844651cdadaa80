//go:build linux

package observe

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Collect reads one sample from /proc/<pid>/syscall and
// /proc/<pid>/wchan and folds it into the accumulated counts. A process
// not currently blocked in a syscall (running on CPU, or the kernel
// declining to report via CONFIG_HAVE_ARCH_TRACEHOOK) yields
// ("running", "") rather than an error, matching what /proc actually
// returns in that case.
func (t *Tracer) Collect() error {
	name, err := readSyscall(t.pid)
	if err != nil {
		return err
	}
	wchan := readWChan(t.pid)
	t.record(Event{Syscall: name, WChan: wchan})
	return nil
}

// readSyscall parses /proc/<pid>/syscall, whose first field is either
// "running" (the process is not blocked in a syscall right now) or the
// syscall number currently in progress.
func readSyscall(pid int) (string, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/syscall", pid))
	if err != nil {
		return "", err
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return "", fmt.Errorf("observe: empty syscall file for pid %d", pid)
	}
	if fields[0] == "running" {
		return "running", nil
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return "", fmt.Errorf("observe: malformed syscall number for pid %d: %w", pid, err)
	}
	return syscallName(n), nil
}

// readWChan returns the kernel function the process is blocked in, or
// "" if it isn't blocked or the file can't be read.
func readWChan(pid int) string {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/wchan", pid))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
