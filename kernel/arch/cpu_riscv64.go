//go:build riscv64

package arch

// Halt stops the current hart (wfi loop).
func Halt()

// EnableInterrupts sets sstatus.SIE.
func EnableInterrupts()

// DisableInterrupts clears sstatus.SIE.
func DisableInterrupts()

// flushTLBEntry issues a global sfence.vma (x0, x0), which flushes the
// entry for addr along with every other entry, whatever addr is.
func flushTLBEntry(addr uintptr)

// FlushTLBEntry flushes the TLB entry for addr by flushing the whole TLB.
func FlushTLBEntry(addr uintptr) { flushTLBEntry(addr) }

// activeSatp reads the current satp CSR.
func activeSatp() uint64

// writeSatp writes satp and executes sfence.vma.
func writeSatp(value uint64)

// ActivePageTable returns the physical address of the currently active
// root page table.
func ActivePageTable() uintptr {
	return uintptr((activeSatp() &^ (0xF << 60)) << PageShift)
}

// SwitchPageTable activates root as the current page table and flushes
// the TLB, per spec.md §4.2's "csrw satp; sfence.vma".
func SwitchPageTable(root uintptr) {
	writeSatp(satpModeSv39 | (uint64(root) >> PageShift))
}

// setCPULocalPtr stores ptr in tp.
func setCPULocalPtr(ptr uintptr)

// getCPULocalPtr reads tp.
func getCPULocalPtr() uintptr

// SetCPULocalPtr installs the per-hart CPU-local block pointer into the
// register trap entry assembly reads from (tp).
func SetCPULocalPtr(ptr uintptr) { setCPULocalPtr(ptr) }

// CPULocalPtr returns the current hart's CPU-local block pointer.
func CPULocalPtr() uintptr { return getCPULocalPtr() }

// returnToUser is implemented in entry_riscv64.s: it loads privilege
// CSRs and general registers from frame, executes sret, and returns
// here (via the trap entry's kernel-context restore) once the hart
// traps back into the kernel.
func returnToUser(frame *RV64TrapFrame)

// trapEntry is the stvec target returnToUser installs before each
// sret. It is never called as an ordinary Go function; this
// declaration exists only so the symbol returnToUser's $·trapEntry(SB)
// address load resolves to Go-visible assembly rather than a bare
// local label.
func trapEntry()

// ReturnToUser runs the return-to-user / trap-entry protocol described
// in spec.md §4.4 and yields the translated cause once the hart traps
// back into the kernel.
func ReturnToUser(frame TrapFrame) Cause {
	rv := frame.(*RV64TrapFrame)
	returnToUser(rv)
	return translateCause(rv)
}
