package container

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrepp/duende/pkg/daemontypes"
)

func TestStatusUnknownHandleIsStopped(t *testing.T) {
	a := &Adapter{runtime: "docker"}
	status, err := a.Status(context.Background(), daemontypes.DaemonHandle{})
	require.NoError(t, err)
	assert.True(t, status.Equal(daemontypes.StatusStopped), "got %v, want stopped", status)
}

func TestTrimTrailingNewline(t *testing.T) {
	assert.Equal(t, "abc123", trimTrailingNewline([]byte("abc123\n")))
}
