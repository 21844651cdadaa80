// Package cliparse parses the text and JSON output of the external
// command-line tools the platform adapters shell out to, keeping that
// parsing testable against canned fixtures without invoking a real
// systemctl, launchctl, or container runtime binary.
package cliparse

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/jrepp/duende/pkg/daemontypes"
)

// SystemdActiveState extracts "ActiveState=" from `systemctl show` output
// and maps it to a DaemonStatus.
func SystemdActiveState(output string) daemontypes.DaemonStatus {
	state := fieldValue(output, "ActiveState=")
	switch state {
	case "active":
		return daemontypes.StatusRunning
	case "inactive":
		return daemontypes.StatusStopped
	case "failed":
		return daemontypes.StatusFailed(daemontypes.FailureExitCode(1))
	case "activating", "reloading":
		return daemontypes.StatusStarting
	case "deactivating":
		return daemontypes.StatusStopping
	default:
		return daemontypes.StatusStopped
	}
}

func fieldValue(output, key string) string {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, key) {
			return strings.TrimPrefix(line, key)
		}
	}
	return ""
}

// LaunchctlEntry is one parsed row of `launchctl list` tab-delimited
// output: "PID\tStatus\tLabel".
type LaunchctlEntry struct {
	PID    int
	Status int
	Label  string
}

// ParseLaunchctlList parses one line of launchctl list output for label.
// A dash in the PID column means the job is not running.
func ParseLaunchctlList(line, label string) (LaunchctlEntry, bool) {
	fields := strings.Fields(line)
	if len(fields) != 3 || fields[2] != label {
		return LaunchctlEntry{}, false
	}
	entry := LaunchctlEntry{Label: label}
	if fields[0] != "-" {
		if pid, err := strconv.Atoi(fields[0]); err == nil {
			entry.PID = pid
		}
	} else {
		entry.PID = 0
	}
	if status, err := strconv.Atoi(fields[1]); err == nil {
		entry.Status = status
	}
	return entry, true
}

// LaunchctlStatus maps a parsed entry to a DaemonStatus.
func LaunchctlStatus(entry LaunchctlEntry) daemontypes.DaemonStatus {
	if entry.PID != 0 {
		return daemontypes.StatusRunning
	}
	if entry.Status == 0 {
		return daemontypes.StatusStopped
	}
	return daemontypes.StatusFailed(daemontypes.FailureExitCode(entry.Status))
}

// ContainerState is the subset of `docker/podman inspect` state JSON the
// adapter cares about.
type ContainerState struct {
	Running    bool `json:"Running"`
	Paused     bool `json:"Paused"`
	Restarting bool `json:"Restarting"`
	ExitCode   int  `json:"ExitCode"`
}

// ParseContainerState parses one container's State object.
func ParseContainerState(data []byte) (ContainerState, error) {
	var s ContainerState
	err := json.Unmarshal(data, &s)
	return s, err
}

// ContainerStatus maps a parsed container state to a DaemonStatus.
func ContainerStatus(s ContainerState) daemontypes.DaemonStatus {
	switch {
	case s.Running:
		return daemontypes.StatusRunning
	case s.Paused:
		return daemontypes.StatusPaused
	case s.Restarting:
		return daemontypes.StatusStarting
	case s.ExitCode != 0:
		return daemontypes.StatusFailed(daemontypes.FailureExitCode(s.ExitCode))
	default:
		return daemontypes.StatusStopped
	}
}

// MicroVMStatus maps a pepita-style state string to a DaemonStatus.
func MicroVMStatus(state string) daemontypes.DaemonStatus {
	switch strings.ToLower(strings.TrimSpace(state)) {
	case "running":
		return daemontypes.StatusRunning
	case "paused":
		return daemontypes.StatusPaused
	case "stopped":
		return daemontypes.StatusStopped
	case "failed":
		return daemontypes.StatusFailed(daemontypes.FailureInternal)
	default:
		return daemontypes.StatusStopped
	}
}

// WasmCtlState is the subset of wos-ctl's JSON process description the
// adapter cares about.
type WasmCtlState struct {
	Running  bool `json:"running"`
	ExitCode int  `json:"exit_code"`
}

// ParseWasmCtlState parses wos-ctl's JSON process description.
func ParseWasmCtlState(data []byte) (WasmCtlState, error) {
	var s WasmCtlState
	err := json.Unmarshal(data, &s)
	return s, err
}

// WasmCtlStatus maps a parsed wos-ctl state to a DaemonStatus.
func WasmCtlStatus(s WasmCtlState) daemontypes.DaemonStatus {
	if s.Running {
		return daemontypes.StatusRunning
	}
	if s.ExitCode != 0 {
		return daemontypes.StatusFailed(daemontypes.FailureExitCode(s.ExitCode))
	}
	return daemontypes.StatusStopped
}
