package ublk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpcodeString(t *testing.T) {
	cases := []struct {
		op   Opcode
		want string
	}{
		{OpDelDev, "DEL_DEV"},
		{OpStopDev, "STOP_DEV"},
		{OpGetDevInfo, "GET_DEV_INFO"},
		{Opcode(0xff), "UNKNOWN_OPCODE"},
	}
	for _, c := range cases {
		t.Run(c.want, func(t *testing.T) {
			assert.Equal(t, c.want, c.op.String())
		})
	}
}

func TestNewSubmissionEntrySetsOpAndUserData(t *testing.T) {
	entry := NewSubmissionEntry(OpStopDev, 42)
	assert.Equal(t, OpStopDev, entry.CmdOp)
	assert.EqualValues(t, 42, entry.UserData)
}
