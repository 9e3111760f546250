// Package addr implements the typed physical/virtual address and page
// number primitives spec.md §3 calls "address primitives": newtypes
// over a machine word with total order, checked arithmetic, and
// alignment predicates. It is grounded on the teacher's
// kernel/mem/mem.go (page size/shift, Size helpers) and
// kernel/mem/vmm/page.go + kernel/mem/pmm/frame.go (the Page/Frame
// newtypes this generalizes into four symmetric physical/virtual
// variants).
package addr

import "golang.org/x/exp/constraints"

// PageSize is the base page size on both supported architectures.
const PageSize = 4096

// PageShift is log2(PageSize), used to convert between addresses and
// page numbers.
const PageShift = 12

// alignDown rounds n down to the nearest multiple of size (size must be
// a power of two).
func alignDown[T constraints.Integer](n, size T) T {
	return n &^ (size - 1)
}

// alignUp rounds n up to the nearest multiple of size (size must be a
// power of two).
func alignUp[T constraints.Integer](n, size T) T {
	return alignDown(n+size-1, size)
}

// isAligned reports whether n is a multiple of size.
func isAligned[T constraints.Integer](n, size T) bool {
	return n&(size-1) == 0
}

// PhysAddr is a physical memory address.
type PhysAddr uint64

// VirtAddr is a virtual memory address.
type VirtAddr uint64

// PhysPageNum identifies a physical 4 KiB frame.
type PhysPageNum uint64

// VirtPageNum identifies a virtual 4 KiB page.
type VirtPageNum uint64

// --- PhysAddr ---

func (a PhysAddr) IsAligned(size uint64) bool { return isAligned(uint64(a), size) }
func (a PhysAddr) AlignDown(size uint64) PhysAddr {
	return PhysAddr(alignDown(uint64(a), size))
}
func (a PhysAddr) AlignUp(size uint64) PhysAddr {
	return PhysAddr(alignUp(uint64(a), size))
}

// Add returns a+off and false if the addition overflows a 64-bit word.
func (a PhysAddr) Add(off uint64) (PhysAddr, bool) {
	sum := uint64(a) + off
	return PhysAddr(sum), sum >= uint64(a)
}

// Sub returns a-off and false if the subtraction underflows.
func (a PhysAddr) Sub(off uint64) (PhysAddr, bool) {
	return PhysAddr(uint64(a) - off), uint64(a) >= off
}

// Delta returns a-b as a signed page-size-independent offset.
func (a PhysAddr) Delta(b PhysAddr) int64 { return int64(a) - int64(b) }

// Page returns the PhysPageNum containing a (rounding down).
func (a PhysAddr) Page() PhysPageNum { return PhysPageNum(a >> PageShift) }

func (a PhysAddr) Offset() uint64 { return uint64(a) & (PageSize - 1) }

// --- VirtAddr ---

func (a VirtAddr) IsAligned(size uint64) bool { return isAligned(uint64(a), size) }
func (a VirtAddr) AlignDown(size uint64) VirtAddr {
	return VirtAddr(alignDown(uint64(a), size))
}
func (a VirtAddr) AlignUp(size uint64) VirtAddr {
	return VirtAddr(alignUp(uint64(a), size))
}

func (a VirtAddr) Add(off uint64) (VirtAddr, bool) {
	sum := uint64(a) + off
	return VirtAddr(sum), sum >= uint64(a)
}

func (a VirtAddr) Sub(off uint64) (VirtAddr, bool) {
	return VirtAddr(uint64(a) - off), uint64(a) >= off
}

func (a VirtAddr) Delta(b VirtAddr) int64 { return int64(a) - int64(b) }

// Page returns the VirtPageNum containing a (rounding down).
func (a VirtAddr) Page() VirtPageNum { return VirtPageNum(a >> PageShift) }

func (a VirtAddr) Offset() uint64 { return uint64(a) & (PageSize - 1) }

// --- PhysPageNum ---

// Addr converts a page number back to the address of its first byte.
func (p PhysPageNum) Addr() PhysAddr { return PhysAddr(p) << PageShift }

func (p PhysPageNum) Add(n uint64) PhysPageNum { return p + PhysPageNum(n) }

// --- VirtPageNum ---

func (p VirtPageNum) Addr() VirtAddr { return VirtAddr(p) << PageShift }

func (p VirtPageNum) Add(n uint64) VirtPageNum { return p + VirtPageNum(n) }

// Index returns the 9-bit page-table index for this page number at the
// walk level whose index field starts at bit shift of the virtual
// address.
func (p VirtPageNum) Index(shift uint) uint64 {
	return (uint64(p) << PageShift >> shift) & 0x1FF
}
