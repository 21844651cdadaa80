// Package idalloc holds the process-wide monotonic counters used to mint
// platform-specific identifiers: a microVM vsock context id and a wasm-OS
// process id. Both start from their defaults when the process starts and
// are reset to them by ResetForTest.
package idalloc

import "sync/atomic"

var (
	nextVsockCID  atomic.Uint32
	nextWasmPID   atomic.Uint64
)

const (
	firstVsockCID = 3
	firstWasmPID  = 2
)

func init() {
	nextVsockCID.Store(firstVsockCID)
	nextWasmPID.Store(firstWasmPID)
}

// NextVsockCID returns the next microVM vsock context id, starting at 3.
func NextVsockCID() uint32 {
	return nextVsockCID.Add(1) - 1
}

// NextWasmPID returns the next wasm-OS process id, starting at 2.
func NextWasmPID() uint64 {
	return nextWasmPID.Add(1) - 1
}

// ResetForTest restores both counters to their starting values. Tests
// that depend on specific allocated ids must call this first.
func ResetForTest() {
	nextVsockCID.Store(firstVsockCID)
	nextWasmPID.Store(firstWasmPID)
}
