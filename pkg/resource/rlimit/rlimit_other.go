//go:build !linux && !darwin

package rlimit

import "github.com/jrepp/duende/pkg/errs"

// Resource names the rlimit being adjusted.
type Resource int

const (
	NumFiles Resource = iota
	NumProcs
	AddressSpace
)

// Set always fails: no POSIX rlimit primitive exists on this platform.
func Set(r Resource, cur, max uint64) error {
	return errs.New(errs.Platform, "rlimit is not supported on this platform")
}

// Get always fails: no POSIX rlimit primitive exists on this platform.
func Get(r Resource) (cur, max uint64, err error) {
	return 0, 0, errs.New(errs.Platform, "rlimit is not supported on this platform")
}
