//go:build linux || darwin

// Package rlimit wraps POSIX setrlimit/getrlimit for the non-cgroups
// resource enforcement fallback (native adapter, non-Linux hosts).
package rlimit

import (
	"golang.org/x/sys/unix"

	"github.com/jrepp/duende/pkg/errs"
)

// Resource names the rlimit being adjusted.
type Resource int

const (
	NumFiles Resource = iota
	NumProcs
	AddressSpace
)

func toUnixResource(r Resource) int {
	switch r {
	case NumFiles:
		return unix.RLIMIT_NOFILE
	case NumProcs:
		return unix.RLIMIT_NPROC
	case AddressSpace:
		return unix.RLIMIT_AS
	default:
		return unix.RLIMIT_NOFILE
	}
}

// Set applies cur as the soft and max as the hard rlimit, passing both
// unchanged to setrlimit; a cur above max is rejected there and returned
// as an error.
func Set(r Resource, cur, max uint64) error {
	lim := unix.Rlimit{Cur: cur, Max: max}
	if err := unix.Setrlimit(toUnixResource(r), &lim); err != nil {
		return errs.New(errs.ResourceLimit, "setrlimit failed").
			WithCause(err).
			WithSuggestion("run with sufficient privilege to raise this limit, or lower the requested value")
	}
	return nil
}

// Get reads the current soft/hard rlimit pair.
func Get(r Resource) (cur, max uint64, err error) {
	var lim unix.Rlimit
	if e := unix.Getrlimit(toUnixResource(r), &lim); e != nil {
		return 0, 0, errs.New(errs.ResourceLimit, "getrlimit failed").WithCause(e)
	}
	return lim.Cur, lim.Max, nil
}
