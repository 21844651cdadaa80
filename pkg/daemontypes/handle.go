package daemontypes

import "encoding/json"

// DaemonHandle is the opaque, platform-tagged record a Spawn call
// returns. It is serializable for diagnostic output; round-tripping
// through JSON preserves all fields.
type DaemonHandle struct {
	ID       DaemonId
	Platform Platform

	// Exactly one of the following is populated, selected by Platform.
	NativePID        int
	LinuxUnitName    string
	MacServiceLabel  string
	ContainerID      string
	ContainerRuntime string
	MicroVMID        string
	MicroVMVsockCID  uint32
	WasmProcessID    uint64
}

type handleWire struct {
	ID               DaemonId `json:"id"`
	Platform         string   `json:"platform"`
	NativePID        int      `json:"native_pid,omitempty"`
	LinuxUnitName    string   `json:"linux_unit_name,omitempty"`
	MacServiceLabel  string   `json:"mac_service_label,omitempty"`
	ContainerID      string   `json:"container_id,omitempty"`
	ContainerRuntime string   `json:"container_runtime,omitempty"`
	MicroVMID        string   `json:"microvm_id,omitempty"`
	MicroVMVsockCID  uint32   `json:"microvm_vsock_cid,omitempty"`
	WasmProcessID    uint64   `json:"wasm_process_id,omitempty"`
}

var platformNames = map[Platform]string{
	PlatformNative:       "native",
	PlatformLinuxService: "linux-svc",
	PlatformMacLaunch:    "mac-launch",
	PlatformContainer:    "container",
	PlatformMicroVM:      "microvm",
	PlatformWasmOS:       "wasm-os",
}

var namePlatforms = func() map[string]Platform {
	m := make(map[string]Platform, len(platformNames))
	for p, n := range platformNames {
		m[n] = p
	}
	return m
}()

// MarshalJSON implements json.Marshaler.
func (h DaemonHandle) MarshalJSON() ([]byte, error) {
	return json.Marshal(handleWire{
		ID:               h.ID,
		Platform:         platformNames[h.Platform],
		NativePID:        h.NativePID,
		LinuxUnitName:    h.LinuxUnitName,
		MacServiceLabel:  h.MacServiceLabel,
		ContainerID:      h.ContainerID,
		ContainerRuntime: h.ContainerRuntime,
		MicroVMID:        h.MicroVMID,
		MicroVMVsockCID:  h.MicroVMVsockCID,
		WasmProcessID:    h.WasmProcessID,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (h *DaemonHandle) UnmarshalJSON(data []byte) error {
	var w handleWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	h.ID = w.ID
	h.Platform = namePlatforms[w.Platform]
	h.NativePID = w.NativePID
	h.LinuxUnitName = w.LinuxUnitName
	h.MacServiceLabel = w.MacServiceLabel
	h.ContainerID = w.ContainerID
	h.ContainerRuntime = w.ContainerRuntime
	h.MicroVMID = w.MicroVMID
	h.MicroVMVsockCID = w.MicroVMVsockCID
	h.WasmProcessID = w.WasmProcessID
	return nil
}

// Equal compares two handles by DaemonId, the equality the spec mandates
// for handles shared between the registry and a caller.
func (h DaemonHandle) Equal(other DaemonHandle) bool {
	return h.ID == other.ID
}

// TracerKind identifies how a TracerHandle observes its target.
type TracerKind int

const (
	TracerPtrace TracerKind = iota
	TracerSimulated
	TracerRemoteVsock
)

// String renders the tracer kind's name.
func (k TracerKind) String() string {
	switch k {
	case TracerPtrace:
		return "ptrace"
	case TracerSimulated:
		return "simulated"
	case TracerRemoteVsock:
		return "remote-vsock"
	default:
		return "unknown"
	}
}

// TracerHandle is a read-only, non-owning reference to a traced daemon.
type TracerHandle struct {
	DaemonId DaemonId
	Kind     TracerKind
}
