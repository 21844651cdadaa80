package daemon

import (
	"sync"
	"sync/atomic"

	"github.com/jrepp/duende/pkg/daemontypes"
	"github.com/jrepp/duende/pkg/errs"
)

// InboxCapacity is the fixed FIFO depth of a signal inbox. Overflow drops
// the newest signal rather than blocking the sender.
const InboxCapacity = 16

// SignalInbox is a bounded, multi-producer single-consumer queue of
// daemontypes.Signal values. The zero value is not usable; construct with
// NewSignalInbox.
type SignalInbox struct {
	ch     chan daemontypes.Signal
	closed atomic.Bool
	mu     sync.Mutex
}

// NewSignalInbox constructs an inbox with the fixed capacity.
func NewSignalInbox() *SignalInbox {
	return &SignalInbox{ch: make(chan daemontypes.Signal, InboxCapacity)}
}

// Sender returns a clonable handle that can enqueue signals into the inbox.
func (b *SignalInbox) Sender() *SignalSender {
	return &SignalSender{inbox: b}
}

// close marks the inbox closed; safe to call more than once.
func (b *SignalInbox) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed.CompareAndSwap(false, true) {
		close(b.ch)
	}
}

// TryReceiveSignal performs a non-blocking receive. ok is false if the
// inbox is currently empty.
func (b *SignalInbox) TryReceiveSignal() (sig daemontypes.Signal, ok bool) {
	select {
	case sig, ok = <-b.ch:
		return sig, ok
	default:
		return 0, false
	}
}

// ReceiveSignal suspends the caller until a signal is available or the
// inbox is closed, in which case ok is false.
func (b *SignalInbox) ReceiveSignal() (sig daemontypes.Signal, ok bool) {
	sig, ok = <-b.ch
	return sig, ok
}

// SignalSender is the cloneable producer half of a SignalInbox. Multiple
// senders may be held concurrently by different platform adapters.
type SignalSender struct {
	inbox *SignalInbox
}

// Clone returns an independent handle to the same underlying inbox.
func (s *SignalSender) Clone() *SignalSender {
	return &SignalSender{inbox: s.inbox}
}

// Send enqueues sig, dropping it silently if the inbox is at capacity.
// It returns an error only if the receiving context has been closed.
func (s *SignalSender) Send(sig daemontypes.Signal) error {
	s.inbox.mu.Lock()
	defer s.inbox.mu.Unlock()
	if s.inbox.closed.Load() {
		return errs.New(errs.Signal, "signal inbox: context closed").
			WithContext("signal", sig.String())
	}
	select {
	case s.inbox.ch <- sig:
		return nil
	default:
		// Bounded FIFO overflow: drop the newest signal.
		return nil
	}
}
