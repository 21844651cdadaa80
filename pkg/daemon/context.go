package daemon

import (
	"sync/atomic"

	"github.com/jrepp/duende/pkg/daemontypes"
)

// shutdownSignals are the signals that, when delivered, set the shutdown
// flag before the signal is yielded to the daemon.
var shutdownSignals = map[daemontypes.Signal]bool{
	daemontypes.SignalTerminate: true,
	daemontypes.SignalInterrupt: true,
	daemontypes.SignalQuit:      true,
}

// Context is the runtime handle passed to Daemon.Run. It carries an
// immutable config view, the bounded signal inbox, and the shutdown flag.
type Context struct {
	config   daemontypes.DaemonConfig
	inbox    *SignalInbox
	shutdown atomic.Bool
}

// NewContext constructs a Context over config with a fresh signal inbox.
func NewContext(config daemontypes.DaemonConfig) *Context {
	return &Context{config: config, inbox: NewSignalInbox()}
}

// Config returns the immutable configuration view. Callers must not
// mutate fields reachable through it.
func (c *Context) Config() daemontypes.DaemonConfig {
	return c.config
}

// ShouldShutdown reports whether a shutdown has been requested, either
// directly or by delivery of a terminating signal.
func (c *Context) ShouldShutdown() bool {
	return c.shutdown.Load()
}

// RequestShutdown directly sets the shutdown flag without enqueuing a
// signal.
func (c *Context) RequestShutdown() {
	c.shutdown.Store(true)
}

// TryReceiveSignal drains one signal from the inbox without blocking,
// setting the shutdown flag first if the signal is a terminating one.
func (c *Context) TryReceiveSignal() (daemontypes.Signal, bool) {
	sig, ok := c.inbox.TryReceiveSignal()
	if ok && shutdownSignals[sig] {
		c.shutdown.Store(true)
	}
	return sig, ok
}

// ReceiveSignal suspends until a signal arrives or the inbox closes,
// setting the shutdown flag first if the signal is a terminating one.
func (c *Context) ReceiveSignal() (daemontypes.Signal, bool) {
	sig, ok := c.inbox.ReceiveSignal()
	if ok && shutdownSignals[sig] {
		c.shutdown.Store(true)
	}
	return sig, ok
}

// Sender returns a cloneable handle for delivering signals into this
// context's inbox. Whoever drives the daemon's Run loop installs this
// into the supervisor registry entry via SetSender.
func (c *Context) Sender() *SignalSender {
	return c.inbox.Sender()
}

// Close marks the context's inbox closed; subsequent sends fail with a
// "context closed" error and pending receives drain before returning ok=false.
func (c *Context) Close() {
	c.inbox.close()
}
