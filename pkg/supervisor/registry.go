// Package supervisor owns the keyed registry of running daemons: the
// state machine enforcement, restart-policy decisions, signal fan-out,
// and shutdown-all broadcast that manage many daemons concurrently.
package supervisor

import (
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/jrepp/duende/pkg/daemon"
	"github.com/jrepp/duende/pkg/daemontypes"
	"github.com/jrepp/duende/pkg/errs"
)

// entry is one registered daemon's full supervised state.
type entry struct {
	daemon       daemon.Daemon
	config       daemontypes.DaemonConfig
	policy       daemontypes.RestartPolicy
	backoff      daemontypes.BackoffConfig
	status       daemontypes.DaemonStatus
	restartCount int
	lastHealth   *daemontypes.HealthRecord
	sender       *daemon.SignalSender
	createdAt    time.Time
	breaker      *circuitBreaker
}

// Registry is the keyed DaemonId -> entry mapping at the center of the
// supervisor. The zero value is not usable; construct with NewRegistry.
type Registry struct {
	mu      sync.RWMutex
	entries map[daemontypes.DaemonId]*entry
	logger  hclog.Logger
}

// Option configures a Registry at construction time.
type Option func(*Registry)

// WithLogger installs logger for every error and state transition the
// registry records. The default is hclog's global logger.
func WithLogger(logger hclog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry constructs an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[daemontypes.DaemonId]*entry),
		logger:  hclog.L().Named("supervisor"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register validates config, stores a fresh entry with status Created,
// restart count 0, and no health record. Registering an id already
// present is an error (F018).
func (r *Registry) Register(d daemon.Daemon, config daemontypes.DaemonConfig, policy daemontypes.RestartPolicy, backoff daemontypes.BackoffConfig) error {
	if err := config.Validate(); err != nil {
		r.logger.Error("register failed: invalid daemon config", "id", d.ID().String(), "error", err)
		return errs.New(errs.Configuration, "invalid daemon config").WithCause(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	id := d.ID()
	if _, exists := r.entries[id]; exists {
		r.logger.Error("register failed: daemon already registered", "id", id.String())
		return errs.New(errs.Runtime, "daemon already registered").WithContext("id", id.String())
	}
	r.entries[id] = &entry{
		daemon:    d,
		config:    config,
		policy:    policy,
		backoff:   backoff,
		status:    daemontypes.StatusCreated,
		createdAt: time.Now(),
		breaker:   newCircuitBreaker(),
	}
	return nil
}

// Unregister removes id's entry. An entry in an active or starting state
// cannot be unregistered (F019).
func (r *Registry) Unregister(id daemontypes.DaemonId) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		r.logger.Error("unregister failed: unknown daemon", "id", id.String())
		return errs.New(errs.Runtime, "unknown daemon").WithContext("id", id.String())
	}
	if e.status.IsActive() || e.status.Equal(daemontypes.StatusStarting) {
		r.logger.Error("unregister failed: daemon is active or starting", "id", id.String(), "status", e.status.String())
		return errs.New(errs.Runtime, "cannot unregister an active or starting daemon").WithContext("id", id.String())
	}
	delete(r.entries, id)
	return nil
}

// SetSender installs the signal-inbox sender for id, to be used for
// future fan-out calls. Whoever drives the daemon's Run loop calls this
// once the daemon.Context has been created.
func (r *Registry) SetSender(id daemontypes.DaemonId, sender *daemon.SignalSender) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return errs.New(errs.Runtime, "unknown daemon").WithContext("id", id.String())
	}
	e.sender = sender
	return nil
}

// UpdateStatus transitions id to to, enforcing the lifecycle state
// machine. Attempting an illegal edge is an error and leaves status
// unchanged.
func (r *Registry) UpdateStatus(id daemontypes.DaemonId, to daemontypes.DaemonStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return errs.New(errs.Runtime, "unknown daemon").WithContext("id", id.String())
	}
	r.logger.Debug("attempting status transition", "id", id.String(), "from", e.status.String(), "to", to.String())
	if !e.status.CanTransitionTo(to) {
		r.logger.Error("illegal status transition", "id", id.String(), "from", e.status.String(), "to", to.String())
		return errs.New(errs.Runtime, "illegal status transition").
			WithContext("id", id.String()).
			WithContext("from", e.status.String()).
			WithContext("to", to.String())
	}
	e.status = to
	return nil
}

// Status returns id's current status. Unknown ids report an error (this
// differs from the platform-adapter convention: registry lookups are
// existence checks, substrate status probes are not).
func (r *Registry) Status(id daemontypes.DaemonId) (daemontypes.DaemonStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return daemontypes.DaemonStatus{}, errs.New(errs.Runtime, "unknown daemon").WithContext("id", id.String())
	}
	return e.status, nil
}

// Signal resolves id, verifies its status permits signaling, and
// enqueues sig via the installed sender. Unknown id is not-found
// (F040); a terminal daemon is an invalid-state error (F029).
func (r *Registry) Signal(id daemontypes.DaemonId, sig daemontypes.Signal) error {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		r.logger.Error("signal rejected: unknown daemon", "id", id.String(), "signal", sig.String())
		return errs.New(errs.Runtime, "unknown daemon").WithContext("id", id.String())
	}
	if !e.status.CanSignal() {
		r.logger.Error("signal rejected: daemon cannot be signaled in its current state",
			"id", id.String(), "status", e.status.String(), "signal", sig.String())
		return errs.New(errs.Runtime, "daemon cannot be signaled in its current state").
			WithContext("id", id.String()).
			WithContext("status", e.status.String())
	}
	if e.sender == nil {
		r.logger.Error("signal rejected: no sender installed", "id", id.String(), "signal", sig.String())
		return errs.New(errs.Runtime, "no signal sender installed for daemon").WithContext("id", id.String())
	}
	if err := e.sender.Send(sig); err != nil {
		r.logger.Error("signal delivery failed", "id", id.String(), "signal", sig.String(), "error", err)
		return err
	}
	return nil
}

// ShutdownAll broadcasts Terminate to every registered daemon with an
// installed sender concurrently. A delivery failure for one daemon
// never stops the broadcast to the others; all failures are collected
// and returned joined.
func (r *Registry) ShutdownAll() error {
	r.mu.RLock()
	senders := make([]*daemon.SignalSender, 0, len(r.entries))
	ids := make([]daemontypes.DaemonId, 0, len(r.entries))
	for id, e := range r.entries {
		if e.sender != nil {
			senders = append(senders, e.sender)
			ids = append(ids, id)
		}
	}
	r.mu.RUnlock()

	var mu sync.Mutex
	var errsList []error
	var g errgroup.Group
	for i, sender := range senders {
		i, sender := i, sender
		g.Go(func() error {
			if err := sender.Send(daemontypes.SignalTerminate); err != nil {
				r.logger.Error("shutdown broadcast failed", "id", ids[i].String(), "error", err)
				mu.Lock()
				errsList = append(errsList, errs.New(errs.Shutdown, "shutdown broadcast failed").
					WithCause(err).WithContext("id", ids[i].String()))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait() // every Go func above always returns nil; failures are collected in errsList instead
	return joinErrors(errsList)
}

// UpdateHealth records id's latest health probe result.
func (r *Registry) UpdateHealth(id daemontypes.DaemonId, record daemontypes.HealthRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return errs.New(errs.Runtime, "unknown daemon").WithContext("id", id.String())
	}
	e.lastHealth = &record
	return nil
}

// GetHealth returns id's last recorded health, or ok=false if no probe
// has completed yet (not an error).
func (r *Registry) GetHealth(id daemontypes.DaemonId) (record daemontypes.HealthRecord, ok bool, err error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, exists := r.entries[id]
	if !exists {
		return daemontypes.HealthRecord{}, false, errs.New(errs.Runtime, "unknown daemon").WithContext("id", id.String())
	}
	if e.lastHealth == nil {
		return daemontypes.HealthRecord{}, false, nil
	}
	return *e.lastHealth, true, nil
}

// GetRestartCount returns id's current restart counter value.
func (r *Registry) GetRestartCount(id daemontypes.DaemonId) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return 0, errs.New(errs.Runtime, "unknown daemon").WithContext("id", id.String())
	}
	return e.restartCount, nil
}

// IncrementRestartCount atomically bumps id's restart counter and
// returns the new value.
func (r *Registry) IncrementRestartCount(id daemontypes.DaemonId) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return 0, errs.New(errs.Runtime, "unknown daemon").WithContext("id", id.String())
	}
	e.restartCount++
	return e.restartCount, nil
}

// ShouldRestart applies id's restart policy to exitReason, additionally
// consulting id's circuit breaker: a tripped breaker vetoes a restart
// that the policy alone would allow.
func (r *Registry) ShouldRestart(id daemontypes.DaemonId, exitReason daemontypes.ExitReason) (bool, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return false, errs.New(errs.Runtime, "unknown daemon").WithContext("id", id.String())
	}
	if !e.policy.ShouldRestart(exitReason, e.restartCount) {
		return false, nil
	}
	return e.breaker.allow(), nil
}

// DelayFor returns the backoff delay for id's (n+1)-th restart attempt.
func (r *Registry) DelayFor(id daemontypes.DaemonId, n int) (time.Duration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return 0, errs.New(errs.Runtime, "unknown daemon").WithContext("id", id.String())
	}
	return e.backoff.DelayFor(n), nil
}

// RecordRestartOutcome feeds a restart attempt's result into id's circuit
// breaker: stable reports whether the restarted run stayed up, as judged
// by the caller. A stable outcome records a success and a recovery; any
// other outcome records a failure and a circuit trip in the metrics.
func (r *Registry) RecordRestartOutcome(id daemontypes.DaemonId, stable bool) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	r.mu.Unlock()
	if !ok {
		return errs.New(errs.Runtime, "unknown daemon").WithContext("id", id.String())
	}
	if stable {
		e.breaker.recordSuccess()
		e.daemon.Metrics().RecordRecovery()
	} else {
		e.breaker.recordFailure()
		e.daemon.Metrics().RecordCircuitTrip()
	}
	return nil
}
