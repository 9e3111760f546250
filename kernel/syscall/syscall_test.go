package syscall

import (
	"testing"

	"github.com/kestrel-os/kernel/kernel/addr"
	"github.com/kestrel-os/kernel/kernel/arch"
	"github.com/kestrel-os/kernel/kernel/frame"
	"github.com/kestrel-os/kernel/kernel/hal"
	"github.com/kestrel-os/kernel/kernel/internal/testfrm"
	"github.com/kestrel-os/kernel/kernel/memspace"
	"github.com/kestrel-os/kernel/kernel/pagetable"
	"github.com/kestrel-os/kernel/kernel/task"
)

type recordingConsole struct{ got []byte }

func (c *recordingConsole) WriteByte(b byte) { c.got = append(c.got, b) }
func (c *recordingConsole) Write(p []byte)   { c.got = append(c.got, p...) }

func newCtx(t *testing.T, syscallID uint64, args [6]uint64) *Context {
	t.Helper()
	const numFrames = 16
	mem := testfrm.NewArena(numFrames)
	alloc := frame.New(0, addr.PhysAddr(numFrames*addr.PageSize))
	pt, err := pagetable.New(alloc, mem)
	if err != nil {
		t.Fatalf("pagetable.New: %v", err)
	}
	t.Cleanup(pt.Close)

	space := memspace.New(pt, alloc)
	frm := &fakeFrame{syscallID: syscallID, args: args}
	proc := task.NewProcess(1, 1, nil, space)
	th := proc.SpawnThread()

	return &Context{Task: th, Frame: frm, Space: space}
}

// fakeFrame is a minimal arch.TrapFrame for syscall-layer tests that
// don't need the full register layout.
type fakeFrame struct {
	syscallID uint64
	args      [6]uint64
	pc        uintptr
	ret       uint64
}

func (f *fakeFrame) SyscallID() uint64       { return f.syscallID }
func (f *fakeFrame) Arg(i int) uint64        { return f.args[i] }
func (f *fakeFrame) SetReturnValue(v uint64) { f.ret = v }
func (f *fakeFrame) PC() uintptr             { return f.pc }
func (f *fakeFrame) AdvancePC(d uintptr)     { f.pc += d }
func (f *fakeFrame) SetStackTop(uintptr)     {}
func (f *fakeFrame) CopyFrom(arch.TrapFrame) {}
func (f *fakeFrame) SetEntry(uintptr, uintptr, uint64, uintptr, uintptr) {}
func (f *fakeFrame) SetCPULocal(uintptr)     {}

func TestDispatchPrefersSyncOverAsync(t *testing.T) {
	table := NewTable()
	table.RegisterSync(1, func(*Context) (uint64, Errno) { return 42, 0 })
	table.RegisterAsync(1, func(*Context) Future { t.Fatal("async handler must not run when sync exists"); return nil })

	ctx := newCtx(t, 1, [6]uint64{})
	out := table.Dispatch(ctx)
	if out.Result != 42 || out.Errno != 0 || out.Pending != nil {
		t.Fatalf("got %+v, want immediate result 42", out)
	}
}

func TestDispatchUnknownIDIsNotImplemented(t *testing.T) {
	table := NewTable()
	ctx := newCtx(t, 999, [6]uint64{})
	out := table.Dispatch(ctx)
	if out.Errno != NotImplemented {
		t.Fatalf("got errno %v, want NotImplemented", out.Errno)
	}
}

func TestWriteCopiesUserBytesToConsole(t *testing.T) {
	console := &recordingConsole{}
	orig := hal.ActiveConsole
	hal.SetConsole(console)
	defer hal.SetConsole(orig)

	const numFrames = 8
	mem := testfrm.NewArena(numFrames)
	alloc := frame.New(0, addr.PhysAddr(numFrames*addr.PageSize))
	pt, err := pagetable.New(alloc, mem)
	if err != nil {
		t.Fatalf("pagetable.New: %v", err)
	}
	defer pt.Close()

	backing := alloc.AllocFrame()
	vaddr := addr.VirtAddr(0x10000)
	if err := pt.MapSingle(vaddr, backing.Addr(), addr.PageSize, arch.Readable|arch.Writable|arch.User); err != nil {
		t.Fatalf("MapSingle: %v", err)
	}
	msg := []byte("hello kernel\n")
	if err := pt.WriteBytes(vaddr, msg); err != nil {
		t.Fatalf("WriteBytes: %v", err)
	}

	space := memspace.New(pt, alloc)
	proc := task.NewProcess(1, 1, nil, space)
	th := proc.SpawnThread()
	ctx := &Context{
		Task:  th,
		Space: space,
		Frame: &fakeFrame{syscallID: SysWrite, args: [6]uint64{1, uint64(vaddr), uint64(len(msg))}},
	}

	n, errno := Write(ctx)
	if errno != 0 {
		t.Fatalf("Write: errno %v", errno)
	}
	if n != uint64(len(msg)) {
		t.Fatalf("got %d, want %d", n, len(msg))
	}
	if string(console.got) != string(msg) {
		t.Fatalf("got %q, want %q", console.got, msg)
	}
}

func TestWriteRejectsUnknownDescriptor(t *testing.T) {
	ctx := newCtx(t, SysWrite, [6]uint64{3, 0, 0})
	_, errno := Write(ctx)
	if errno != BadFileDescriptor {
		t.Fatalf("got errno %v, want BadFileDescriptor", errno)
	}
}
