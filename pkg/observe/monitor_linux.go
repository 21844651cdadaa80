//go:build linux

package observe

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

var clockTicksPerSecond = int64(100) // sysconf(_SC_CLK_TCK) on virtually every Linux target

// Collect reads /proc/<pid>/stat, statm, and io, appends a Snapshot to
// the ring, and returns it.
func (m *Monitor) Collect() (Snapshot, error) {
	now := time.Now()
	stat, err := readStat(m.pid)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Timestamp:   now,
		PID:         m.pid,
		ThreadCount: stat.numThreads,
		State:       parseState(stat.state),
	}

	totalTicks := stat.utime + stat.stime
	if m.prev.valid {
		elapsed := now.Sub(m.prev.sampledAt).Seconds()
		if elapsed > 0 && totalTicks >= m.prev.ticks {
			deltaTicks := float64(totalTicks - m.prev.ticks)
			snap.CPUPercent = (deltaTicks / float64(clockTicksPerSecond)) / elapsed * 100
		}
	}
	m.prev = prevCPU{ticks: totalTicks, sampledAt: now, valid: true}

	if rss, err := readStatm(m.pid); err == nil {
		pageSize := uint64(unix.Getpagesize())
		snap.MemoryBytes = rss * pageSize
		if total := systemMemoryTotalBytes(); total > 0 {
			snap.MemoryPercent = float64(snap.MemoryBytes) / float64(total) * 100
		}
	}

	if readBytes, writeBytes, err := readIO(m.pid); err == nil {
		snap.IOReadBytes = readBytes
		snap.IOWriteBytes = writeBytes
	}

	m.ring.push(snap)
	return snap, nil
}

type statFields struct {
	state      byte
	numThreads int
	utime      uint64
	stime      uint64
}

// readStat parses /proc/<pid>/stat. The comm field may contain spaces
// and parentheses, so the process name is found by locating the last ')'
// before splitting the remaining space-delimited fields.
func readStat(pid int) (statFields, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return statFields{}, err
	}
	line := string(data)
	closeParen := strings.LastIndexByte(line, ')')
	if closeParen < 0 {
		return statFields{}, fmt.Errorf("observe: malformed stat line for pid %d", pid)
	}
	rest := strings.Fields(line[closeParen+1:])
	// rest[0] is state (overall field 3); utime is overall field 14
	// (rest[11]), stime field 15 (rest[12]), num_threads field 20 (rest[17]).
	if len(rest) < 18 {
		return statFields{}, fmt.Errorf("observe: too few stat fields for pid %d", pid)
	}
	utime, _ := strconv.ParseUint(rest[11], 10, 64)
	stime, _ := strconv.ParseUint(rest[12], 10, 64)
	numThreads, _ := strconv.Atoi(rest[17])
	return statFields{state: rest[0][0], numThreads: numThreads, utime: utime, stime: stime}, nil
}

func parseState(c byte) ProcessState {
	switch c {
	case 'R':
		return StateRunning
	case 'S', 'I':
		return StateSleeping
	case 'D':
		return StateDiskWait
	case 'Z':
		return StateZombie
	case 'T', 't':
		return StateStopped
	default:
		return StateUnknown
	}
}

// readStatm returns RSS in pages, the second field of /proc/<pid>/statm.
func readStatm(pid int) (uint64, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/statm", pid))
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(string(data))
	if len(fields) < 2 {
		return 0, fmt.Errorf("observe: malformed statm for pid %d", pid)
	}
	return strconv.ParseUint(fields[1], 10, 64)
}

// readIO parses read_bytes/write_bytes from /proc/<pid>/io. Unreadable (permission
// denied under a different user) yields zero values, not an error to the
// caller's caller.
func readIO(pid int) (readBytes, writeBytes uint64, err error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/io", pid))
	if err != nil {
		return 0, 0, err
	}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.SplitN(line, ":", 2)
		if len(fields) != 2 {
			continue
		}
		key := strings.TrimSpace(fields[0])
		value, parseErr := strconv.ParseUint(strings.TrimSpace(fields[1]), 10, 64)
		if parseErr != nil {
			continue
		}
		switch key {
		case "read_bytes":
			readBytes = value
		case "write_bytes":
			writeBytes = value
		}
	}
	return readBytes, writeBytes, nil
}

func systemMemoryTotalBytes() uint64 {
	data, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "MemTotal:") {
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
