//go:build loong64

package arch

// readEstat reads the exception status CSR (ecode/esubcode in the high
// bits, pending interrupts in the low bits).
func readEstat() uint64

// readEstatFn is overridable so tests can drive translateCause with
// synthetic register values without real hardware.
var readEstatFn = readEstat

const (
	estatEcodeShift = 16
	estatEcodeMask  = 0x3F
)

func translateCause(f *LA64TrapFrame) Cause {
	return translateEstat(readEstatFn(), uintptr(f.Badv))
}

// translateEstat maps a raw (estat, badv) CSR pair onto the portable
// Cause union. It is pure and frame-free so it can be
// exercised directly in tests; translateCause is the only caller that
// feeds it real register reads.
func translateEstat(estat uint64, badv uintptr) Cause {
	ecode := (estat >> estatEcodeShift) & estatEcodeMask

	switch ecode {
	case 0x0B: // SYS
		return Cause{Kind: CauseSyscall}
	case 0x0C: // BRK
		return Cause{Kind: CauseBreakpoint}
	case 0x0D: // INE, illegal instruction
		return Cause{Kind: CauseIllegalInstruction, Addr: badv}
	case 0x01: // PIL, page invalid on load
		return Cause{Kind: CauseLoadPageFault, Addr: badv}
	case 0x02: // PIS, page invalid on store
		return Cause{Kind: CauseStorePageFault, Addr: badv}
	case 0x03: // PIF, page invalid on instruction fetch
		return Cause{Kind: CauseInstructionPageFault, Addr: badv}
	case 0x04: // PME, page modify exception (write to read-only)
		return Cause{Kind: CauseStorePageFault, Addr: badv}
	case 0x09: // ADE, address error (includes misalignment)
		return Cause{Kind: CauseLoadMisaligned, Addr: badv}
	case 0x0A: // ALE, alignment error
		return Cause{Kind: CauseStoreMisaligned, Addr: badv}
	case 0x0F: // timer interrupt surfaced through estat's ecode 0 path in
		// real hardware; modeled explicitly here for clarity.
		return Cause{Kind: CauseTimer}
	default:
		return Cause{Kind: CauseUnknown, Payload: estat}
	}
}

// TrapInstrWidth returns the width, in bytes, that the kernel must
// advance the saved PC by after handling a syscall trap.
func TrapInstrWidth() uintptr { return trapInstrWidth }
