//go:build loong64

package arch

// Halt stops the current core (idle loop).
func Halt()

// EnableInterrupts sets crmd.IE.
func EnableInterrupts()

// DisableInterrupts clears crmd.IE.
func DisableInterrupts()

// flushTLBEntry issues dbar 0; invtlb 0x00, which invalidates the whole
// TLB (and so the entry for addr) whatever addr is.
func flushTLBEntry(addr uintptr)

// FlushTLBEntry flushes the TLB entry for addr by invalidating the whole
// TLB.
func FlushTLBEntry(addr uintptr) { flushTLBEntry(addr) }

// activePgdl reads the current pgdl CSR (low-half root, used for user
// mappings).
func activePgdl() uint64

// writePgdl writes pgdl and performs the dbar/invtlb sequence.
func writePgdl(value uint64)

// ActivePageTable returns the physical address of the currently active
// user (lower-half) root page table.
func ActivePageTable() uintptr { return uintptr(activePgdl()) }

// lazyFlushActive reports whether SwitchPageTable can skip the reload of
// root. It always returns false, so every SwitchPageTable call rewrites
// pgdl and flushes; it does not compare root with the active table.
func lazyFlushActive(root uintptr) bool {
	return false
}

// SwitchPageTable activates root as the current lower-half page table
// via csrwr pgdl followed by dbar 0; invtlb.
func SwitchPageTable(root uintptr) {
	if lazyFlushActive(root) {
		return
	}
	writePgdl(uint64(root))
}

// setCPULocalPtr stores ptr in the u0/tp register.
func setCPULocalPtr(ptr uintptr)

// getCPULocalPtr reads the u0/tp register.
func getCPULocalPtr() uintptr

// SetCPULocalPtr installs the per-hart CPU-local block pointer.
func SetCPULocalPtr(ptr uintptr) { setCPULocalPtr(ptr) }

// CPULocalPtr returns the current hart's CPU-local block pointer.
func CPULocalPtr() uintptr { return getCPULocalPtr() }

// returnToUser is implemented in entry_loong64.s.
func returnToUser(frame *LA64TrapFrame)

// trapEntry is the eentry target returnToUser installs before each
// ertn. It is never called as an ordinary Go function; this
// declaration exists only so returnToUser's $·trapEntry(SB) address
// load resolves to Go-visible assembly rather than a bare local label.
func trapEntry()

// ReturnToUser runs the return-to-user / trap-entry protocol and yields
// the translated cause once control traps back into the kernel.
func ReturnToUser(frame TrapFrame) Cause {
	la := frame.(*LA64TrapFrame)
	returnToUser(la)
	return translateCause(la)
}
