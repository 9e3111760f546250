package kernel

import (
	"github.com/kestrel-os/kernel/kernel/addr"
	"github.com/kestrel-os/kernel/kernel/executor"
	"github.com/kestrel-os/kernel/kernel/frame"
	"github.com/kestrel-os/kernel/kernel/goruntime"
	"github.com/kestrel-os/kernel/kernel/hal"
	"github.com/kestrel-os/kernel/kernel/internal/testfrm"
	"github.com/kestrel-os/kernel/kernel/kfmt"
	"github.com/kestrel-os/kernel/kernel/pagetable"
	"github.com/kestrel-os/kernel/kernel/syscall"
	"github.com/kestrel-os/kernel/kernel/task"
)

// Loader constructs the first process from a loaded image and spawns its
// initial thread. The ELF/shebang loader itself is an external
// collaborator out of this core's scope (spec.md §1); Kmain only owns
// the handoff point. Production installs a real loader before boot
// calls Kmain; it is left nil in tests that only exercise the core's
// own boot dance.
var Loader func(alloc *frame.Allocator, pt *pagetable.PageTable) (*task.Process, *task.Task)

// heapBase and heapSize bound the virtual range kernel/goruntime grows
// the Go heap into, per this architecture's high-half kernel window.
const (
	heapBase = addr.VirtAddr(0xffff_ffc0_0000_0000)
	heapSize = 64 * 1024 * 1024
)

// physMemory backs the identity-mapped low 3 GiB the boot contract
// (spec.md §6) says the bootstrap page table must have already
// installed; production supplies a real direct-mapped window, tests
// supply kernel/internal/testfrm.Arena.
var physMemory pagetable.PhysMemory

// Kmain is called by main (boot.go). It assumes the bootstrap
// identity/high-half page table is installed, .bss is cleared, and this
// hart's CPU-local block pointer is in its thread-pointer register
// (spec.md §6's boot contract); it does none of these itself. It performs
// the remaining C2 (frame allocator) and Go-heap bring-up this core
// owns, then hands control to the loader and the per-hart executor.
//
// Kmain is not expected to return.
func Kmain(info hal.HartInfo, frameBottom, frameTop addr.PhysAddr, bootPT addr.PhysPageNum) {
	kfmt.Printf("booting hart %d\n", info.HartID)

	alloc := frame.New(frameBottom, frameTop)
	pt := pagetable.Borrowed(bootPT, physMemory)

	goruntime.Init(alloc, pt, heapBase, heapSize)

	table := syscall.NewTable()
	table.RegisterSync(syscall.SysWrite, syscall.Write)

	if Loader == nil {
		kfmt.PrintfWarn("no loader installed; idling\n")
		haltFn()
		return
	}

	proc, initTask := Loader(alloc, pt)
	exec := executor.New()
	exec.Spawn(initTask, proc.Space, table)
	exec.Run()

	kfmt.Printf("executor drained; halting\n")
	haltFn()
}

// testPhysMemory installs a host-side fake physical memory backing for
// tests that exercise Kmain's wiring without a real direct-mapped
// window.
func testPhysMemory(n int) { physMemory = testfrm.NewArena(n) }
