// Package ublk documents the wire layout a ublk control-device client
// would use to talk to the supervisor's daemons over io_uring. It is a
// sibling collaborator, not a core module: this package names the
// submission-entry shape and opcodes so a re-implementer targeting the
// same kernel interface uses the same layout, but it performs no
// io_uring syscalls itself.
package ublk

// Opcode is one of the URING_CMD operations ublk's control path issues
// against /dev/ublk-control.
type Opcode uint32

const (
	OpDelDev    Opcode = 0x04
	OpStopDev   Opcode = 0x05
	OpGetDevInfo Opcode = 0x06
)

// String names the opcode for logging; unrecognized values print their
// numeric form.
func (o Opcode) String() string {
	switch o {
	case OpDelDev:
		return "DEL_DEV"
	case OpStopDev:
		return "STOP_DEV"
	case OpGetDevInfo:
		return "GET_DEV_INFO"
	default:
		return "UNKNOWN_OPCODE"
	}
}

// SubmissionEntrySize is the fixed size, in bytes, of the io_uring
// submission queue entry ublk's control commands use.
const SubmissionEntrySize = 128

// SubmissionEntry mirrors the 128-byte io_uring SQE ublk's control path
// fills in for URING_CMD operations. Field widths and padding follow
// io_uring's io_uring_sqe layout; CmdOp carries the ublk-specific
// Opcode rather than a generic io_uring opcode, in the slot io_uring_sqe
// shares between off and cmd_op.
type SubmissionEntry struct {
	OpCode      uint8
	Flags       uint8
	IoPrio      uint16
	FD          int32
	CmdOp       Opcode
	_           uint32 // pad beside cmd_op
	Addr        uint64
	Len         uint32
	_           uint32 // op flags
	UserData    uint64
	BufIndex    uint16
	Personality uint16
	_           uint32   // splice_fd_in / file_index
	Cmd         [80]byte // ublksrv_io_cmd payload
}

// NewSubmissionEntry builds a zeroed entry with CmdOp and UserData set;
// callers fill Cmd with the opcode-specific payload before submission.
func NewSubmissionEntry(op Opcode, userData uint64) SubmissionEntry {
	return SubmissionEntry{CmdOp: op, UserData: userData}
}
