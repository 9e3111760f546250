// Package syscall implements the dispatch protocol of spec.md §4.6/§8
// (C8): reading the syscall id and six arguments from a trap frame,
// routing to a sync or async handler, and writing the result back. It
// is grounded on the teacher's kernel/driver registration pattern (a
// static id→implementation table populated by init-time Register calls)
// generalized to the spec's sync-wins-over-async rule, and on
// kernel/hal for sys_write's console sink (spec.md's supplemented
// "sys_write as the first concrete syscall").
package syscall

import (
	"github.com/kestrel-os/kernel/kernel/addr"
	"github.com/kestrel-os/kernel/kernel/arch"
	"github.com/kestrel-os/kernel/kernel/hal"
	"github.com/kestrel-os/kernel/kernel/kerror"
	"github.com/kestrel-os/kernel/kernel/memspace"
	"github.com/kestrel-os/kernel/kernel/task"
)

// Errno is the numeric errno set of spec.md §7. Handlers return one of
// these on failure; the task loop negates and writes it into the user
// return register.
type Errno int32

const (
	BadFileDescriptor Errno = iota + 1
	BadAddress
	InvalidArgument
	InterruptedSystemCall
	ExecFormatError
	NoSuchFileOrDirectory
	ResourceTemporarilyUnavailable
	NotPermitted
	// NotImplemented covers syscall ids with no table entry; spec.md §7's
	// errno list ends in "…", leaving room for this.
	NotImplemented
)

func (e Errno) String() string {
	names := [...]string{
		"",
		"bad file descriptor",
		"bad address",
		"invalid argument",
		"interrupted system call",
		"exec format error",
		"no such file or directory",
		"resource temporarily unavailable",
		"not permitted",
		"function not implemented",
	}
	if int(e) < len(names) {
		return names[e]
	}
	return "unknown errno"
}

// Context bundles what a handler needs to read arguments and touch user
// memory: the trapping task, its frame, and its process's memory space.
type Context struct {
	Task  *task.Task
	Frame arch.TrapFrame
	Space *memspace.Space
}

// Arg returns syscall argument i (0..5).
func (c *Context) Arg(i int) uint64 { return c.Frame.Arg(i) }

// SyncHandler computes its result without suspending.
type SyncHandler func(ctx *Context) (uint64, Errno)

// Future is the poll-to-completion state machine an async handler
// returns. Poll is called once per executor iteration the task is
// runnable; ready=false means the caller should requeue the task without
// re-entering user mode. This is the Go-native shape of spec.md §4.6's
// "async handlers may await freely" — without language-level async/await,
// the suspension point is this explicit poll boundary instead.
type Future interface {
	Poll(ctx *Context) (result uint64, errno Errno, ready bool)
}

// AsyncHandler constructs the Future for one invocation of the syscall.
type AsyncHandler func(ctx *Context) Future

// Table is the static id→handler registry of spec.md §4.6. Sync wins
// over async when both are registered for the same id.
type Table struct {
	sync  map[uint64]SyncHandler
	async map[uint64]AsyncHandler
}

// NewTable returns an empty dispatch table.
func NewTable() *Table {
	return &Table{sync: make(map[uint64]SyncHandler), async: make(map[uint64]AsyncHandler)}
}

// RegisterSync installs a synchronous handler for id.
func (t *Table) RegisterSync(id uint64, h SyncHandler) { t.sync[id] = h }

// RegisterAsync installs an asynchronous handler for id.
func (t *Table) RegisterAsync(id uint64, h AsyncHandler) { t.async[id] = h }

// Outcome is what Dispatch hands back to the task loop: either an
// immediate (result, errno) pair, or a Future the loop must keep polling.
type Outcome struct {
	Result  uint64
	Errno   Errno
	Pending Future
}

// Dispatch routes ctx's syscall id to its handler. An id with neither a
// sync nor an async entry resolves immediately to NotImplemented.
func (t *Table) Dispatch(ctx *Context) Outcome {
	id := ctx.Frame.SyscallID()

	if h, ok := t.sync[id]; ok {
		res, errno := h(ctx)
		return Outcome{Result: res, Errno: errno}
	}
	if h, ok := t.async[id]; ok {
		return Outcome{Pending: h(ctx)}
	}
	return Outcome{Errno: NotImplemented}
}

// Write is syscall id 64 (SYS_write on both supported arches), the
// concrete example syscall spec.md's expansion calls for: it copies
// arg2 bytes from user memory at arg1 and, for the well-known stdout/
// stderr descriptors 1 and 2, writes them to the active console.
// Other descriptors are out of scope (no open file table is implemented
// by this core) and report BadFileDescriptor.
const SysWrite = 64

func Write(ctx *Context) (uint64, Errno) {
	fd := ctx.Arg(0)
	bufAddr := ctx.Arg(1)
	length := ctx.Arg(2)

	if fd != 1 && fd != 2 {
		return 0, BadFileDescriptor
	}
	if length == 0 {
		return 0, 0
	}

	buf := make([]byte, length)
	if err := ctx.Space.PageTable().ReadBytes(addr.VirtAddr(bufAddr), buf); err != nil {
		return 0, errnoFor(err)
	}

	hal.ActiveConsole.Write(buf)
	return length, 0
}

func errnoFor(err *kerror.Error) Errno {
	switch err.Kind {
	case kerror.PageNotReadable, kerror.PageNotWritable, kerror.NotMapped, kerror.InvalidAddress:
		return BadAddress
	default:
		return InvalidArgument
	}
}
