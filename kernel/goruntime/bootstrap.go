// Package goruntime bootstraps the Go memory allocator itself, before
// any ordinary Go code can safely call make/new: the runtime's own
// sysReserve/sysMap/sysAlloc hooks are redirected here so the heap grows
// out of this kernel's own frame allocator and page table instead of
// mmap/VirtualAlloc, neither of which exists in a freestanding kernel.
// Adapted from the teacher's kernel/goruntime/bootstrap.go, swapping its
// kernel/mem/vmm+pmm/allocator calls for kernel/frame and
// kernel/pagetable, and its copy-on-write x86 PTE flags for an
// eager-backed mapping, since this core has no copy-on-write path.
package goruntime

import (
	"unsafe"

	"github.com/kestrel-os/kernel/kernel/addr"
	"github.com/kestrel-os/kernel/kernel/arch"
	"github.com/kestrel-os/kernel/kernel/frame"
	"github.com/kestrel-os/kernel/kernel/pagetable"
)

// heapAlloc and heapPT are installed once during boot, before the first
// Go allocation, by Init. Every redirect hook below reads them.
var (
	heapAlloc *frame.Allocator
	heapPT    *pagetable.PageTable

	// heapNext is a bump cursor into the kernel's reserved heap virtual
	// range; sysReserve/sysAlloc hand out addresses from it and never
	// reclaim, matching the teacher's EarlyReserveRegion policy of
	// growing the heap but never shrinking it.
	heapNext addr.VirtAddr
	heapEnd  addr.VirtAddr
)

// Init installs the allocator and page table the runtime hooks draw
// from, and the virtual range they may grow into. It must run exactly
// once, before the first call into the Go allocator (i.e. before any
// make/new/append/closure capture in kernel code).
func Init(alloc *frame.Allocator, pt *pagetable.PageTable, heapBase addr.VirtAddr, heapSize uint64) {
	heapAlloc = alloc
	heapPT = pt
	heapNext = heapBase
	end, _ := heapBase.Add(heapSize)
	heapEnd = end
}

//go:linkname mSysStatInc runtime.mSysStatInc
func mSysStatInc(*uint64, uintptr)

// sysReserve reserves address space without allocating any memory or
// establishing any page mappings, replacing runtime.sysReserve.
//
//go:redirect-from runtime.sysReserve
//go:nosplit
func sysReserve(_ unsafe.Pointer, size uintptr, reserved *bool) unsafe.Pointer {
	regionSize := uint64(size+addr.PageSize-1) &^ (addr.PageSize - 1)
	start, ok := reserveRegion(regionSize)
	if !ok {
		return unsafe.Pointer(uintptr(0))
	}
	*reserved = true
	return unsafe.Pointer(uintptr(start))
}

func reserveRegion(size uint64) (addr.VirtAddr, bool) {
	if uint64(heapEnd-heapNext) < size {
		return 0, false
	}
	start := heapNext
	next, _ := heapNext.Add(size)
	heapNext = next
	return start, true
}

// sysMap establishes a mapping for a region reserved by sysReserve,
// replacing runtime.sysMap. Pages are backed by freshly allocated frames
// immediately; this kernel has no demand-paging or copy-on-write path.
//
//go:redirect-from runtime.sysMap
//go:nosplit
func sysMap(virtAddr unsafe.Pointer, size uintptr, reserved bool, sysStat *uint64) unsafe.Pointer {
	if !reserved {
		panic("goruntime: sysMap called with reserved=false")
	}

	start := addr.VirtAddr(uintptr(virtAddr)).AlignDown(addr.PageSize)
	regionSize := uint64(size+addr.PageSize-1) &^ (addr.PageSize - 1)
	pages := regionSize / addr.PageSize

	flags := arch.Readable | arch.Writable | arch.Kernel
	vpn := start.Page()
	for i := uint64(0); i < pages; i++ {
		f := heapAlloc.AllocFrame()
		if f == nil {
			return unsafe.Pointer(uintptr(0))
		}
		if err := heapPT.MapSingle(vpn.Addr(), f.Addr(), addr.PageSize, flags); err != nil {
			heapAlloc.Dealloc(f)
			return unsafe.Pointer(uintptr(0))
		}
		vpn = vpn.Add(1)
	}

	mSysStatInc(sysStat, uintptr(regionSize))
	return unsafe.Pointer(uintptr(start))
}

// sysAlloc reserves and maps in one step, replacing runtime.sysAlloc.
//
//go:redirect-from runtime.sysAlloc
//go:nosplit
func sysAlloc(size uintptr, sysStat *uint64) unsafe.Pointer {
	regionSize := uint64(size+addr.PageSize-1) &^ (addr.PageSize - 1)
	start, ok := reserveRegion(regionSize)
	if !ok {
		return unsafe.Pointer(uintptr(0))
	}
	return sysMap(unsafe.Pointer(uintptr(start)), uintptr(regionSize), true, sysStat)
}

func init() {
	// Dummy calls so the compiler does not optimize away the functions in
	// this file; the real entry point is the linker redirect, not a
	// normal call site. Skipped until Init has installed a live
	// allocator and page table, which go test never does for this
	// package (see bootstrap_test.go).
	if heapAlloc == nil {
		return
	}
	var (
		reserved bool
		stat     uint64
		zeroPtr  = unsafe.Pointer(uintptr(0))
	)
	sysReserve(zeroPtr, 0, &reserved)
	sysMap(zeroPtr, 0, reserved, &stat)
	sysAlloc(0, &stat)
}
