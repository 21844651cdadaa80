// Package factory resolves a daemontypes.Platform value to a concrete
// platform.Adapter. It is kept separate from pkg/platform itself so that
// package can define the Adapter contract without importing every
// substrate implementation.
package factory

import (
	"github.com/jrepp/duende/pkg/daemontypes"
	"github.com/jrepp/duende/pkg/errs"
	"github.com/jrepp/duende/pkg/platform"
	"github.com/jrepp/duende/pkg/platform/container"
	"github.com/jrepp/duende/pkg/platform/linuxsvc"
	"github.com/jrepp/duende/pkg/platform/maclaunch"
	"github.com/jrepp/duende/pkg/platform/microvm"
	"github.com/jrepp/duende/pkg/platform/native"
	"github.com/jrepp/duende/pkg/platform/wasmos"
)

// New constructs the Adapter for p, running the substrate's preflight
// checks where they apply.
func New(p daemontypes.Platform, nativeLockDir string) (platform.Adapter, error) {
	switch p {
	case daemontypes.PlatformNative:
		return native.New(nativeLockDir), nil
	case daemontypes.PlatformLinuxService:
		return linuxsvc.New(), nil
	case daemontypes.PlatformMacLaunch:
		return maclaunch.New(), nil
	case daemontypes.PlatformContainer:
		return container.New()
	case daemontypes.PlatformMicroVM:
		return microvm.New()
	case daemontypes.PlatformWasmOS:
		return wasmos.New()
	default:
		return nil, errs.New(errs.Platform, "unrecognized platform").WithContext("platform", p.String())
	}
}

// Detect resolves the current host's best-fit platform and constructs its
// adapter in one step.
func Detect(nativeLockDir string) (platform.Adapter, error) {
	return New(platform.Detect(), nativeLockDir)
}
