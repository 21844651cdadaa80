package daemon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrepp/duende/pkg/daemontypes"
)

func TestContextRequestShutdown(t *testing.T) {
	ctx := NewContext(daemontypes.DaemonConfig{Name: "test"})
	assert.False(t, ctx.ShouldShutdown(), "fresh context must not request shutdown")

	ctx.RequestShutdown()
	assert.True(t, ctx.ShouldShutdown(), "RequestShutdown must set the flag directly")
}

func TestContextTerminatingSignalSetsShutdown(t *testing.T) {
	ctx := NewContext(daemontypes.DaemonConfig{Name: "test"})
	sender := ctx.Sender()
	require.NoError(t, sender.Send(daemontypes.SignalTerminate))

	sig, ok := ctx.TryReceiveSignal()
	require.True(t, ok)
	assert.Equal(t, daemontypes.SignalTerminate, sig)
	assert.True(t, ctx.ShouldShutdown(), "terminate signal must set shutdown flag before being yielded")
}

func TestContextNonShutdownSignalLeavesFlagAlone(t *testing.T) {
	ctx := NewContext(daemontypes.DaemonConfig{Name: "test"})
	sender := ctx.Sender()
	require.NoError(t, sender.Send(daemontypes.SignalUser1))

	_, ok := ctx.TryReceiveSignal()
	require.True(t, ok, "expected signal to be receivable")
	assert.False(t, ctx.ShouldShutdown(), "USR1 must not set the shutdown flag")
}

func TestContextConfigIsImmutableView(t *testing.T) {
	cfg := daemontypes.DaemonConfig{Name: "test", Argv: []string{"a"}}
	ctx := NewContext(cfg)
	assert.Equal(t, "test", ctx.Config().Name)
}
