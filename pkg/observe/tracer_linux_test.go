//go:build linux

package observe

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectSamplesOwnProcess(t *testing.T) {
	tr := NewTracer(os.Getpid())
	require.NoError(t, tr.Collect())
	report := tr.Report()
	assert.Len(t, report.Events, 1)
}

func TestReadSyscallRunningIsNotAnError(t *testing.T) {
	name, err := readSyscall(os.Getpid())
	require.NoError(t, err)
	assert.NotEmpty(t, name, "expected a non-empty syscall name or \"running\"")
}
