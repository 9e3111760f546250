package addr

// PhysAddrRange is a half-open [Start, End) physical address range.
type PhysAddrRange struct {
	Start, End PhysAddr
}

// Len returns the number of bytes in the range.
func (r PhysAddrRange) Len() uint64 { return uint64(r.End) - uint64(r.Start) }

// Contains reports whether a lies within [Start, End).
func (r PhysAddrRange) Contains(a PhysAddr) bool { return a >= r.Start && a < r.End }

// VirtPageRange is a half-open [Start, End) range of virtual page
// numbers, the unit spec.md §3 says mapping areas and clones iterate by.
type VirtPageRange struct {
	Start, End VirtPageNum
}

// Len returns the number of pages covered by the range.
func (r VirtPageRange) Len() uint64 { return uint64(r.End) - uint64(r.Start) }

// Contains reports whether vpn lies within [Start, End).
func (r VirtPageRange) Contains(vpn VirtPageNum) bool { return vpn >= r.Start && vpn < r.End }

// Overlaps reports whether r and o share any page.
func (r VirtPageRange) Overlaps(o VirtPageRange) bool {
	return r.Start < o.End && o.Start < r.End
}

// VirtPageRangeFromAddr builds the page range covering [start, start+size),
// rounding start down and the end up to page boundaries.
func VirtPageRangeFromAddr(start VirtAddr, size uint64) VirtPageRange {
	alignedStart := start.AlignDown(PageSize)
	rawEnd, _ := start.Add(size)
	end := rawEnd.AlignUp(PageSize)
	return VirtPageRange{Start: alignedStart.Page(), End: end.Page()}
}

// Pages returns the pages in the range as a slice, in ascending order.
// Intended for small ranges (test helpers, single-area clone loops);
// hot paths should iterate with a for loop over Start..End instead.
func (r VirtPageRange) Pages() []VirtPageNum {
	pages := make([]VirtPageNum, 0, r.Len())
	for p := r.Start; p < r.End; p++ {
		pages = append(pages, p)
	}
	return pages
}
