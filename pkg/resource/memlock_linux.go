//go:build linux

package resource

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/jrepp/duende/pkg/errs"
)

// MemoryLocker issues mlockall/munlockall on behalf of a swap-backed
// daemon that must not be paged out under memory pressure.
type MemoryLocker struct{}

// NewMemoryLocker constructs a Linux memory locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{}
}

// LockAll combines the requested flags and issues mlockall. With no flags
// set it is a no-op reporting "locked, 0 bytes".
func (l *MemoryLocker) LockAll(cfg LockConfig) (LockResult, error) {
	var flags int
	if cfg.LockCurrent {
		flags |= unix.MCL_CURRENT
	}
	if cfg.LockFuture {
		flags |= unix.MCL_FUTURE
	}
	if cfg.LockOnFault {
		flags |= unix.MCL_ONFAULT
	}
	if flags == 0 {
		return LockResult{Locked: true, LockedBytes: 0}, nil
	}

	err := unix.Mlockall(flags)
	if err == nil {
		return LockResult{Locked: true, LockedBytes: readVmLck()}, nil
	}

	errnoName, suggestion := classifyErrno(err)
	if cfg.Required {
		return LockResult{}, errs.New(errs.ResourceLimit, "mlockall failed").
			WithCause(err).
			WithContext("errno", errnoName).
			WithSuggestion(suggestion)
	}
	return LockResult{Locked: false, Failed: true, Errno: errnoName}, nil
}

// Unlock is idempotent: munlockall never fails in a way the caller need
// act on.
func (l *MemoryLocker) Unlock() error {
	_ = unix.Munlockall()
	return nil
}

// IsLocked reports whether the process currently has any locked pages,
// per /proc/self/status VmLck.
func (l *MemoryLocker) IsLocked() bool {
	return readVmLck() > 0
}

func readVmLck() uint64 {
	f, err := os.Open("/proc/self/status")
	if err != nil {
		return 0
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "VmLck:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0
		}
		return kb * 1024
	}
	return 0
}

func classifyErrno(err error) (name, suggestion string) {
	errno, ok := err.(unix.Errno)
	if !ok {
		return "unknown", "check the underlying error for details"
	}
	switch errno {
	case unix.EPERM:
		return "permission", "grant the CAP_IPC_LOCK capability to the process"
	case unix.ENOMEM:
		return "resource-limit", "raise the memlock ulimit (ulimit -l)"
	case unix.EINVAL:
		return "invalid-argument", "check the requested lock flags"
	case unix.EAGAIN:
		return "would-block", "retry after current memory pressure subsides"
	default:
		return "unknown(" + errno.Error() + ")", "consult the platform's mlockall documentation"
	}
}
