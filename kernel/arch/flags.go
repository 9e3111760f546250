// Package arch isolates every RISC-V/LoongArch-specific detail behind a
// small set of types and functions: page-table entry encoding, trap
// frame layout, CSR access, and the assembly entry/exit glue. Exactly
// one of the _riscv64.go/_loong64.go file sets is ever compiled, chosen
// by GOARCH the way the teacher's kernel/cpu/cpu_amd64.go is chosen by
// the amd64 build tag in its file name.
package arch

// Flags is a generic mapping-permission bitset. It is translated to the
// architecture's PTE bit layout by NewLeafEntry/NewTableEntry; callers
// outside this package never see architectural bits directly.
type Flags uint8

const (
	Readable Flags = 1 << iota
	Writable
	Executable
	User
	Kernel
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// PageSize is the base (4 KiB) page size on both supported architectures.
const PageSize = 4096

// PageShift is log2(PageSize).
const PageShift = 12

// PageLevel identifies a huge-page size in units of the level at which
// the walk stopped: LevelLeaf4K, LevelLeaf2M, LevelLeaf1G.
type PageLevel uint8

const (
	LevelLeaf4K PageLevel = iota
	LevelLeaf2M
	LevelLeaf1G
)

// Size returns the byte size of a mapping at this level.
func (l PageLevel) Size() uint64 {
	switch l {
	case LevelLeaf1G:
		return 1 << 30
	case LevelLeaf2M:
		return 1 << 21
	default:
		return PageSize
	}
}

// Cause is the portable trap-cause union described in spec.md §4.4.
// Addr is only meaningful for the *PageFault/*Misaligned/IllegalInstruction
// and AccessFault kinds; Payload carries the raw architectural cause value for Unknown.
type Cause struct {
	Kind    CauseKind
	Addr    uintptr
	Payload uint64
}

// CauseKind enumerates the portable trap causes.
type CauseKind uint8

const (
	CauseSyscall CauseKind = iota
	CauseBreakpoint
	CauseTimer
	CauseSupervisorExternal
	CauseLoadPageFault
	CauseStorePageFault
	CauseInstructionPageFault
	CauseLoadMisaligned
	CauseStoreMisaligned
	CauseInstructionMisaligned
	CauseIllegalInstruction
	CauseAccessFault
	CauseUnknown
)

// IsPageFault reports whether c is one of the three page-fault kinds.
func (c Cause) IsPageFault() bool {
	switch c.Kind {
	case CauseLoadPageFault, CauseStorePageFault, CauseInstructionPageFault:
		return true
	default:
		return false
	}
}

// TrapFrame is the arch-agnostic view over the fixed-layout, per-task
// register save area that the trap entry assembly writes to and
// return_to_user reads from.
type TrapFrame interface {
	// SyscallID returns the value in the syscall-id register (a7 on
	// RISC-V, a7 on LoongArch).
	SyscallID() uint64
	// Arg returns syscall argument i (0..5), read from a0..a5.
	Arg(i int) uint64
	// SetReturnValue writes v into the user return-value register (a0).
	SetReturnValue(v uint64)
	// PC returns the saved user program counter.
	PC() uintptr
	// AdvancePC advances the saved PC past the trapping instruction.
	AdvancePC(delta uintptr)
	// SetStackTop sets the user stack pointer register, 16-byte aligned.
	SetStackTop(addr uintptr)
	// CopyFrom overwrites this frame's user-visible fields with src's.
	CopyFrom(src TrapFrame)
	// SetEntry initializes a fresh frame for a first return to user
	// mode at the given entry PC and stack top.
	SetEntry(entryPC, stackTop uintptr, argc uint64, argv, envp uintptr)
	// SetCPULocal stores the pointer to the current hart's CPU-local
	// block into the frame's reserved slot (read by the trap entry
	// assembly before Go code regains control).
	SetCPULocal(ptr uintptr)
}

// Halt, EnableInterrupts, DisableInterrupts, FlushTLBEntry,
// ActivePageTable, SwitchPageTable, ReturnToUser and NewTrapFrame are
// implemented per architecture, together with the unexported
// translateCause that ReturnToUser calls; see
// {cpu,layout,pte,trapframe,cause}_{riscv64,loong64}.go.
