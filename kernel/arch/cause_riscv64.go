//go:build riscv64

package arch

// readScause and readStval read the architectural cause/trap-value CSRs.
// They are called once per trap, immediately after returnToUser regains
// control, before any other CSR-clobbering code runs.
func readScause() uint64
func readStval() uintptr

// readScauseFn/readStvalFn are overridable so tests can drive
// translateCause with synthetic register values without real hardware.
var readScauseFn = readScause
var readStvalFn = readStval

const scauseInterruptBit = 1 << 63

func translateCause(f *RV64TrapFrame) Cause {
	return translateScause(readScauseFn(), readStvalFn())
}

// translateScause maps a raw (scause, stval) CSR pair onto the portable
// Cause union. It is pure and frame-free so it can be
// exercised directly in tests; translateCause is the only caller that
// feeds it real register reads.
func translateScause(scause uint64, stval uintptr) Cause {
	if scause&scauseInterruptBit != 0 {
		switch scause &^ scauseInterruptBit {
		case 5: // supervisor timer interrupt
			return Cause{Kind: CauseTimer}
		case 9: // supervisor external interrupt
			return Cause{Kind: CauseSupervisorExternal}
		default:
			return Cause{Kind: CauseUnknown, Payload: scause}
		}
	}

	switch scause {
	case 0:
		return Cause{Kind: CauseInstructionMisaligned, Addr: stval}
	case 1:
		return Cause{Kind: CauseAccessFault, Addr: stval}
	case 2:
		return Cause{Kind: CauseIllegalInstruction, Addr: stval}
	case 3:
		return Cause{Kind: CauseBreakpoint}
	case 4:
		return Cause{Kind: CauseLoadMisaligned, Addr: stval}
	case 5:
		return Cause{Kind: CauseAccessFault, Addr: stval}
	case 6:
		return Cause{Kind: CauseStoreMisaligned, Addr: stval}
	case 7:
		return Cause{Kind: CauseAccessFault, Addr: stval}
	case 8:
		return Cause{Kind: CauseSyscall}
	case 12:
		return Cause{Kind: CauseInstructionPageFault, Addr: stval}
	case 13:
		return Cause{Kind: CauseLoadPageFault, Addr: stval}
	case 15:
		return Cause{Kind: CauseStorePageFault, Addr: stval}
	default:
		return Cause{Kind: CauseUnknown, Payload: scause}
	}
}

// TrapInstrWidth returns the width, in bytes, that the kernel must
// advance the saved PC by after handling a syscall trap.
func TrapInstrWidth() uintptr { return trapInstrWidth }
