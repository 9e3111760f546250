// Package testfrm provides a host-side fake of the physical memory
// backing store that kernel/pagetable and kernel/memspace need, so
// their tests can run as plain `go test` without real hardware or a
// direct-mapped kernel window. It plays the role original_source's
// BakaEx/test-utilities/src/memory.rs plays for the Rust original: a
// flat byte arena addressed by frame number.
package testfrm

import "github.com/kestrel-os/kernel/kernel/addr"

// Arena backs a fixed number of frames, starting at physical address 0,
// with plain Go memory.
type Arena struct {
	frames [][]byte
}

// NewArena allocates an arena with room for n frames.
func NewArena(n int) *Arena {
	a := &Arena{frames: make([][]byte, n)}
	for i := range a.frames {
		a.frames[i] = make([]byte, addr.PageSize)
	}
	return a
}

// Bytes implements pagetable.PhysMemory and memspace's equivalent need,
// returning the live backing slice for frame pfn.
func (a *Arena) Bytes(pfn addr.PhysPageNum) []byte {
	return a.frames[int(pfn)]
}
