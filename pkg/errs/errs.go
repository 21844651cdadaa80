// Package errs implements the closed error taxonomy every boundary of the
// supervisor returns through. It is modeled directly on the launcher
// package's LauncherError: a single struct carrying a code, free-form
// context, an optional cause, and an actionable remediation suggestion.
package errs

import (
	"fmt"
	"strings"
)

// Code identifies one of the taxonomy's closed set of error categories.
type Code string

const (
	// Configuration marks a validation failure; not recoverable without
	// changing the config.
	Configuration Code = "CONFIGURATION"
	// Init marks a daemon's init refusing to proceed.
	Init Code = "INIT"
	// Runtime marks a caller-visible failure during run.
	Runtime Code = "RUNTIME"
	// Signal marks a signal that could not be delivered.
	Signal Code = "SIGNAL"
	// Shutdown marks a graceful shutdown that timed out or was refused.
	Shutdown Code = "SHUTDOWN"
	// ResourceLimit marks an enforcement failure or exceeded limit.
	ResourceLimit Code = "RESOURCE_LIMIT"
	// HealthCheck marks a failed health probe.
	HealthCheck Code = "HEALTH_CHECK"
	// Platform marks a substrate operation failure.
	Platform Code = "PLATFORM"
	// Internal marks an invariant violation.
	Internal Code = "INTERNAL"
)

// Error is the single error type every package-boundary call returns.
type Error struct {
	Code       Code
	Message    string
	Context    map[string]any
	Cause      error
	Suggestion string
	// Recoverable, when true, tells the supervisor it must not unregister
	// or fail the daemon in response to this error.
	Recoverable bool
}

// New creates an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message, Context: make(map[string]any)}
}

// WithContext attaches a context key/value pair and returns the receiver.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithCause attaches the underlying cause and returns the receiver.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithSuggestion attaches an actionable remediation hint and returns the receiver.
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestion = suggestion
	return e
}

// Recover marks the error as recoverable and returns the receiver.
func (e *Error) Recover() *Error {
	e.Recoverable = true
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if len(e.Context) > 0 {
		var ctx []string
		for k, v := range e.Context {
			ctx = append(ctx, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("context: %s", strings.Join(ctx, ", ")))
	}
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}
	if e.Suggestion != "" {
		parts = append(parts, fmt.Sprintf("suggestion: %s", e.Suggestion))
	}
	return strings.Join(parts, "; ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Code, so callers
// can do errors.Is(err, errs.New(errs.Platform, "")) loosely — in practice
// callers should compare via a Code helper instead; this exists so
// errors.Is(err, someSentinel) style checks degrade gracefully.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}
