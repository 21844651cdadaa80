// Package daemontypes holds the algebraic core of the supervisor: stable
// daemon identity, the signal enum, lifecycle status, failure/exit
// reasons, and health records. Nothing in this package performs I/O; every
// exported function is pure except where the contract explicitly reads
// the wall clock (health record timestamps).
package daemontypes

import (
	"fmt"

	"github.com/google/uuid"
)

// DaemonId is a 128-bit universally unique daemon identity. It is created
// fresh on registration and survives restarts so logs and metrics stay
// correlatable; it is never reused.
type DaemonId uuid.UUID

// NewDaemonId creates a fresh random daemon identity.
func NewDaemonId() DaemonId {
	return DaemonId(uuid.New())
}

// String renders the identity in canonical UUID form.
func (id DaemonId) String() string {
	return uuid.UUID(id).String()
}

// MarshalText implements encoding.TextMarshaler so DaemonId round-trips
// through TOML config and JSON diagnostic output alike.
func (id DaemonId) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *DaemonId) UnmarshalText(text []byte) error {
	u, err := uuid.Parse(string(text))
	if err != nil {
		return fmt.Errorf("daemontypes: parse DaemonId: %w", err)
	}
	*id = DaemonId(u)
	return nil
}

// IsZero reports whether id is the zero-value identity (never assigned).
func (id DaemonId) IsZero() bool {
	return id == DaemonId{}
}
