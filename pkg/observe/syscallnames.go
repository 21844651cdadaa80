package observe

import "strconv"

// syscallNames maps the x86_64 Linux syscall table's most frequently
// observed entries to their names. Anything absent from this table is
// rendered as syscall_<n> rather than failing the lookup.
var syscallNames = map[int]string{
	0:   "read",
	1:   "write",
	2:   "open",
	3:   "close",
	4:   "stat",
	5:   "fstat",
	6:   "lstat",
	7:   "poll",
	8:   "lseek",
	9:   "mmap",
	10:  "mprotect",
	11:  "munmap",
	12:  "brk",
	13:  "rt_sigaction",
	14:  "rt_sigprocmask",
	16:  "ioctl",
	17:  "pread64",
	18:  "pwrite64",
	19:  "readv",
	20:  "writev",
	21:  "access",
	22:  "pipe",
	23:  "select",
	24:  "sched_yield",
	25:  "mremap",
	32:  "dup",
	33:  "dup2",
	35:  "nanosleep",
	39:  "getpid",
	41:  "socket",
	42:  "connect",
	43:  "accept",
	44:  "sendto",
	45:  "recvfrom",
	49:  "bind",
	50:  "listen",
	56:  "clone",
	57:  "fork",
	59:  "execve",
	60:  "exit",
	61:  "wait4",
	62:  "kill",
	72:  "fcntl",
	78:  "getdents",
	79:  "getcwd",
	83:  "mkdir",
	84:  "rmdir",
	87:  "unlink",
	89:  "readlink",
	96:  "gettimeofday",
	97:  "getrlimit",
	102: "getuid",
	104: "getgid",
	110: "getppid",
	137: "statfs",
	186: "gettid",
	202: "futex",
	217: "getdents64",
	218: "set_tid_address",
	228: "clock_gettime",
	230: "clock_nanosleep",
	231: "exit_group",
	232: "epoll_wait",
	233: "epoll_ctl",
	257: "openat",
	262: "newfstatat",
	270: "pselect6",
	271: "ppoll",
	281: "epoll_pwait",
	293: "pipe2",
	302: "prlimit64",
	318: "getrandom",
	435: "clone3",
}

// syscallName resolves a numeric syscall into its name, falling back to
// a synthetic syscall_<n> label.
func syscallName(n int) string {
	if name, ok := syscallNames[n]; ok {
		return name
	}
	return "syscall_" + strconv.Itoa(n)
}
