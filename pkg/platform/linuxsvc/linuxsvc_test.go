package linuxsvc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrepp/duende/pkg/daemontypes"
)

func TestStatusUnknownHandleIsStopped(t *testing.T) {
	a := New()
	status, err := a.Status(context.Background(), daemontypes.DaemonHandle{})
	require.NoError(t, err)
	assert.True(t, status.Equal(daemontypes.StatusStopped), "got %v, want stopped", status)
}

func TestPlatformReportsLinuxService(t *testing.T) {
	a := New()
	assert.Equal(t, daemontypes.PlatformLinuxService, a.Platform())
}

func TestUnitNameDerivation(t *testing.T) {
	config := daemontypes.DaemonConfig{Name: "my-daemon"}
	assert.Equal(t, "my-daemon.service", unitName(config))
}
