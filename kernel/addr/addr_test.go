package addr_test

import (
	"testing"

	"github.com/kestrel-os/kernel/kernel/addr"
)

func TestAlignment(t *testing.T) {
	a := addr.PhysAddr(0x1234)
	if a.IsAligned(addr.PageSize) {
		t.Fatal("expected 0x1234 to be unaligned to page size")
	}
	if got := a.AlignDown(addr.PageSize); got != 0x1000 {
		t.Fatalf("AlignDown: got %#x, want 0x1000", got)
	}
	if got := a.AlignUp(addr.PageSize); got != 0x2000 {
		t.Fatalf("AlignUp: got %#x, want 0x2000", got)
	}
}

func TestPageRoundTrip(t *testing.T) {
	va := addr.VirtAddr(0x8021_3000)
	page := va.Page()
	if got := page.Addr(); got != va {
		t.Fatalf("page round trip: got %#x, want %#x", got, va)
	}
}

func TestCheckedArithmeticOverflow(t *testing.T) {
	max := addr.PhysAddr(^uint64(0))
	if _, ok := max.Add(1); ok {
		t.Fatal("expected overflow to be detected")
	}
	if _, ok := addr.PhysAddr(0).Sub(1); ok {
		t.Fatal("expected underflow to be detected")
	}
}

func TestVirtPageRange(t *testing.T) {
	r := addr.VirtPageRangeFromAddr(0x1000, 3*addr.PageSize)
	if r.Len() != 3 {
		t.Fatalf("expected 3 pages, got %d", r.Len())
	}
	if !r.Contains(addr.VirtAddr(0x1000).Page()) {
		t.Fatal("range should contain its start page")
	}
	if r.Contains(r.End) {
		t.Fatal("range end is exclusive")
	}
}

func TestVirtPageRangeOverlaps(t *testing.T) {
	a := addr.VirtPageRange{Start: 0, End: 4}
	b := addr.VirtPageRange{Start: 3, End: 6}
	c := addr.VirtPageRange{Start: 4, End: 6}
	if !a.Overlaps(b) {
		t.Fatal("expected overlap")
	}
	if a.Overlaps(c) {
		t.Fatal("adjacent half-open ranges must not overlap")
	}
}
