// Package memspace implements the per-process memory space of spec.md
// §4.3 (C4): a page table plus a list of named mapping areas, each
// owning the frames that back it. It is grounded on the teacher's
// kernel/mem/vmm.AddressSpace shape (one page table, a reserved-region
// bump allocator for the kernel's own address space) generalized into
// spec.md's richer per-process area list with fork-by-clone support,
// and on kernel/mem/pmm/physical's frame-ownership-through-destructor
// discipline (carried here by Area.Close instead of a GC finalizer,
// since an area's lifetime is explicit and process-scoped).
package memspace

import (
	"github.com/kestrel-os/kernel/kernel/addr"
	"github.com/kestrel-os/kernel/kernel/arch"
	"github.com/kestrel-os/kernel/kernel/frame"
	"github.com/kestrel-os/kernel/kernel/kerror"
	"github.com/kestrel-os/kernel/kernel/pagetable"
)

// AreaKind names the role a mapping area plays in a process's address
// space, per spec.md §3's mapping-area variants.
type AreaKind uint8

const (
	AreaUserElf AreaKind = iota
	AreaUserStack
	AreaUserStackGuardBase
	AreaUserStackGuardTop
	AreaUserBrk
	AreaSignalTrampoline
	AreaKernel
	AreaVMA
)

// MapType describes how an area's virtual pages relate to their backing
// physical frames.
type MapType uint8

const (
	// Framed areas own one frame per page, recorded in Allocation.
	Framed MapType = iota
	// Identity maps each virtual page to the physical page of the same
	// number; no Allocation is populated.
	Identity
	// Direct maps a fixed virtual range onto an already-known, externally
	// owned physical range (e.g. the signal trampoline).
	Direct
	// Linear maps virtual pages at a constant offset from their physical
	// backing (the kernel's own high-half window).
	Linear
)

var (
	errOverlap       = kerror.New(kerror.CanNotModify, "memspace")
	errAllocMismatch = kerror.New(kerror.CanNotModify, "memspace")
	errNoBrkArea     = kerror.New(kerror.NotMapped, "memspace")
	errAttrSet       = kerror.New(kerror.CanNotModify, "memspace")
)

// Area is one named, flag-stamped virtual range. A Framed area owns the
// frames recorded in its allocation table; Close returns them to the
// space's allocator, matching spec.md §3's "when an area is dropped,
// every frame in its allocation table is returned".
type Area struct {
	Kind    AreaKind
	MapType MapType
	Range   addr.VirtPageRange
	Flags   arch.Flags

	allocation map[addr.VirtPageNum]*frame.Frame
	alloc      *frame.Allocator
	closed     bool
}

// newArea constructs an area with an empty allocation table; spec.md
// §4.3 requires alloc_and_map_area to see allocation unset beforehand.
func newArea(kind AreaKind, mt MapType, rng addr.VirtPageRange, flags arch.Flags, alloc *frame.Allocator) *Area {
	return &Area{Kind: kind, MapType: mt, Range: rng, Flags: flags, alloc: alloc}
}

// Close returns every frame the area owns to its allocator. Calling
// Close twice is a no-op; areas with no allocation table (Identity,
// Direct, Linear) have nothing to release.
func (a *Area) Close() {
	if a.closed {
		return
	}
	a.closed = true
	for _, f := range a.allocation {
		a.alloc.Dealloc(f)
	}
	a.allocation = nil
}

// AttributeBlock records the process-wide bookkeeping spec.md §3 says a
// space initializes at most once: the brk area, the stack and its guard
// pages, the ELF range, and the signal trampoline page.
type AttributeBlock struct {
	BrkAreaIdx     int
	StackRange     addr.VirtPageRange
	GuardBase      addr.VirtPageRange
	GuardTop       addr.VirtPageRange
	ElfRange       addr.VirtPageRange
	TrampolinePage addr.VirtPageNum
}

// Space is a process's page table, its list of mapping areas, its
// (at-most-once) attribute block, and the frame allocator areas draw
// from.
type Space struct {
	pt    *pagetable.PageTable
	areas []*Area
	attr  *AttributeBlock
	alloc *frame.Allocator
}

// New wraps an already-constructed page table and allocator into an
// empty memory space.
func New(pt *pagetable.PageTable, alloc *frame.Allocator) *Space {
	return &Space{pt: pt, alloc: alloc}
}

// PageTable returns the space's underlying page table.
func (s *Space) PageTable() *pagetable.PageTable { return s.pt }

// Areas returns the space's area list, in insertion order. Callers must
// not retain it across a mutating call.
func (s *Space) Areas() []*Area { return s.areas }

// Attr returns the space's attribute block, or nil if uninitialized.
func (s *Space) Attr() *AttributeBlock { return s.attr }

// SetAttr installs the attribute block. It is an error to call this more
// than once, per spec.md §4.3's "the attribute block may be initialized
// at most once".
func (s *Space) SetAttr(attr AttributeBlock) *kerror.Error {
	if s.attr != nil {
		return errAttrSet
	}
	s.attr = &attr
	return nil
}

func (s *Space) overlapsExisting(rng addr.VirtPageRange) bool {
	for _, a := range s.areas {
		if a.Range.Overlaps(rng) {
			return true
		}
	}
	return false
}

// AllocAndMapArea allocates one frame per page in rng, maps each with
// flags, records the area, and appends it to the space's area list.
func (s *Space) AllocAndMapArea(kind AreaKind, rng addr.VirtPageRange, flags arch.Flags) (*Area, *kerror.Error) {
	if s.overlapsExisting(rng) {
		return nil, errOverlap
	}

	area := newArea(kind, Framed, rng, flags, s.alloc)
	area.allocation = make(map[addr.VirtPageNum]*frame.Frame, rng.Len())

	for vpn := rng.Start; vpn < rng.End; vpn++ {
		f, ferr := s.alloc.AllocFrameErr()
		if ferr != nil {
			area.Close()
			return nil, ferr
		}
		s.pt.ZeroFrame(f.PageNum())
		if err := s.pt.MapSingle(vpn.Addr(), f.Addr(), addr.PageSize, flags); err != nil {
			s.alloc.Dealloc(f)
			area.Close()
			return nil, err
		}
		area.allocation[vpn] = f
	}

	s.areas = append(s.areas, area)
	return area, nil
}

// MapArea inserts an area whose allocation table (if any) was populated
// by the caller, e.g. for Identity/Direct/Linear mappings installed
// outside the normal alloc-and-map path. It checks that a Framed area's
// recorded allocator matches this space's, per spec.md §4.3.
func (s *Space) MapArea(area *Area) *kerror.Error {
	if s.overlapsExisting(area.Range) {
		return errOverlap
	}
	if area.MapType == Framed && area.alloc != s.alloc {
		return errAllocMismatch
	}
	s.areas = append(s.areas, area)
	return nil
}

// UnmapFirstAreaThat unmaps every page of, and closes, the first area
// matching pred. It reports whether a match was found.
func (s *Space) UnmapFirstAreaThat(pred func(*Area) bool) bool {
	for i, a := range s.areas {
		if !pred(a) {
			continue
		}
		s.unmapArea(a)
		s.areas = append(s.areas[:i], s.areas[i+1:]...)
		return true
	}
	return false
}

// UnmapAllAreasThat unmaps and closes every matching area, returning the
// count removed.
func (s *Space) UnmapAllAreasThat(pred func(*Area) bool) int {
	kept := s.areas[:0]
	removed := 0
	for _, a := range s.areas {
		if pred(a) {
			s.unmapArea(a)
			removed++
			continue
		}
		kept = append(kept, a)
	}
	s.areas = kept
	return removed
}

func (s *Space) unmapArea(a *Area) {
	for vpn := a.Range.Start; vpn < a.Range.End; vpn++ {
		s.pt.UnmapSingle(vpn.Addr())
	}
	a.Close()
}

// IncreaseBrk extends the brk area up to (and excluding) newEndPage,
// allocating and mapping the newly covered pages. It is an error if no
// brk area has been registered via SetAttr.
func (s *Space) IncreaseBrk(newEndPage addr.VirtPageNum) *kerror.Error {
	if s.attr == nil {
		return errNoBrkArea
	}
	area := s.areas[s.attr.BrkAreaIdx]
	if area.Kind != AreaUserBrk {
		return errNoBrkArea
	}
	if newEndPage <= area.Range.End {
		area.Range.End = newEndPage
		return nil
	}

	grown := addr.VirtPageRange{Start: area.Range.End, End: newEndPage}
	if s.overlapsExisting(grown) {
		return errOverlap
	}

	for vpn := grown.Start; vpn < grown.End; vpn++ {
		f, ferr := s.alloc.AllocFrameErr()
		if ferr != nil {
			return ferr
		}
		if err := s.pt.MapSingle(vpn.Addr(), f.Addr(), addr.PageSize, area.Flags); err != nil {
			s.alloc.Dealloc(f)
			return err
		}
		area.allocation[vpn] = f
	}
	area.Range.End = newEndPage
	return nil
}

// RegisterSignalTrampoline installs a fixed RX, Kernel|User page at the
// attribute block's trampoline slot, backed by the kernel-owned physical
// page paddr, and records it as a SignalTrampoline area. SetAttr's
// TrampolinePage must already be populated.
func (s *Space) RegisterSignalTrampoline(paddr addr.PhysAddr) *kerror.Error {
	if s.attr == nil {
		return errNoBrkArea
	}
	vpn := s.attr.TrampolinePage
	rng := addr.VirtPageRange{Start: vpn, End: vpn + 1}
	flags := arch.Readable | arch.Executable | arch.Kernel | arch.User

	if err := s.pt.MapSingle(vpn.Addr(), paddr, addr.PageSize, flags); err != nil {
		return err
	}

	area := newArea(AreaSignalTrampoline, Direct, rng, flags, s.alloc)
	s.areas = append(s.areas, area)
	return nil
}

// CloneExisting builds a fork-sibling of other over newPT and allocator,
// copying every area's attributes and page contents (spec.md §4.3's fork
// path, testable property #4 / scenario E3). Frames of Framed areas are
// never shared: each page is re-allocated in the clone and its bytes
// copied across via the page-table framed accessors. Identity, Direct
// and Linear areas are mapped in the clone onto the same physical pages
// as in other.
func CloneExisting(other *Space, newPT *pagetable.PageTable, allocator *frame.Allocator) (*Space, *kerror.Error) {
	clone := New(newPT, allocator)

	buf := make([]byte, addr.PageSize)
	for _, a := range other.areas {
		switch a.MapType {
		case Framed:
			if _, err := clone.AllocAndMapArea(a.Kind, a.Range, a.Flags); err != nil {
				return nil, err
			}
			for vpn := a.Range.Start; vpn < a.Range.End; vpn++ {
				if err := other.pt.ReadBytes(vpn.Addr(), buf); err != nil {
					return nil, err
				}
				if err := newPT.WriteBytes(vpn.Addr(), buf); err != nil {
					return nil, err
				}
			}
		case Identity, Direct, Linear:
			// These map onto physical memory the clone doesn't own
			// exclusively (kernel text, trampoline code); re-install the
			// same mapping rather than copying bytes.
			for vpn := a.Range.Start; vpn < a.Range.End; vpn++ {
				paddr, flags, _, err := other.pt.QueryVirtual(vpn.Addr())
				if err != nil {
					return nil, err
				}
				if err := newPT.MapSingle(vpn.Addr(), paddr, addr.PageSize, flags); err != nil {
					return nil, err
				}
			}
			clone.areas = append(clone.areas, newArea(a.Kind, a.MapType, a.Range, a.Flags, allocator))
		}
	}

	if other.attr != nil {
		attrCopy := *other.attr
		clone.attr = &attrCopy
	}
	return clone, nil
}
