package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockAllNoFlagsIsNoOp(t *testing.T) {
	l := NewMemoryLocker()
	result, err := l.LockAll(LockConfig{})
	require.NoError(t, err)
	assert.True(t, result.Locked)
	assert.Zero(t, result.LockedBytes)
}

func TestUnlockIdempotent(t *testing.T) {
	l := NewMemoryLocker()
	require.NoError(t, l.Unlock(), "first unlock")
	require.NoError(t, l.Unlock(), "second unlock")
}
