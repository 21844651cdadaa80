//go:build !linux

package observe

import "errors"

// Collect is unavailable outside Linux: there is no portable analogue to
// /proc/<pid>/syscall.
func (t *Tracer) Collect() error {
	return errors.New("observe: syscall tracing is not supported on this platform")
}
