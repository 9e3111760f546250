// Package hosttest backs kernel/pagetable's PhysMemory interface with a
// real anonymous mmap instead of kernel/internal/testfrm's plain Go
// slices, for integration tests that want page-aligned, page-fault-real
// memory under the host's own MMU. Grounded on the mmap-a-scratch-arena
// pattern used by host-side userfaultfd/VM tooling in the example pack
// (golang.org/x/sys/unix.Mmap over an anonymous, private mapping).
//
// Only built under -tags hosttest; it is never linked into the
// freestanding kernel binary.
//
//go:build hosttest

package hosttest

import (
	"golang.org/x/sys/unix"

	"github.com/kestrel-os/kernel/kernel/addr"
)

// Arena is a PhysMemory backed by one anonymous mmap, addressed by
// frame number the same way kernel/internal/testfrm.Arena is.
type Arena struct {
	mem []byte
}

// NewArena mmaps room for n frames and returns an Arena over it.
func NewArena(n int) (*Arena, error) {
	size := n * int(addr.PageSize)
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, err
	}
	return &Arena{mem: mem}, nil
}

// Bytes implements kernel/pagetable.PhysMemory.
func (a *Arena) Bytes(pfn addr.PhysPageNum) []byte {
	off := int(pfn) * int(addr.PageSize)
	return a.mem[off : off+int(addr.PageSize)]
}

// Close unmaps the arena. Safe to call once.
func (a *Arena) Close() error {
	if a.mem == nil {
		return nil
	}
	err := unix.Munmap(a.mem)
	a.mem = nil
	return err
}
