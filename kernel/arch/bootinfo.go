package arch

// BootHartID, BootFrameBottom, BootFrameTop and BootPageTableRoot are
// the boot parameters main passes to kernel.Kmain: the hart id, the
// usable physical range, and the bootstrap page table root. No code in
// this repository assigns them; entry_riscv64.s and entry_loong64.s hold
// only the trap and CSR helpers, not a boot entry point.
var (
	BootHartID        uint64
	BootFrameBottom   uint64
	BootFrameTop      uint64
	BootPageTableRoot uint64
)
