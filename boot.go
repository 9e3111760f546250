package main

import (
	"github.com/kestrel-os/kernel/kernel"
	"github.com/kestrel-os/kernel/kernel/addr"
	"github.com/kestrel-os/kernel/kernel/arch"
	"github.com/kestrel-os/kernel/kernel/hal"
)

// main trampolines into kernel.Kmain with the boot parameters held in
// kernel/arch's boot-info vars; no code in this repository assigns
// those vars (see kernel/arch/bootinfo.go). Calling Kmain from main
// keeps the rest of the kernel reachable for the linker.
//
// main is not expected to return. If it does, Kmain has already halted
// the hart.
func main() {
	kernel.Kmain(
		hal.HartInfo{HartID: arch.BootHartID},
		addr.PhysAddr(arch.BootFrameBottom),
		addr.PhysAddr(arch.BootFrameTop),
		addr.PhysPageNum(arch.BootPageTableRoot),
	)
}
