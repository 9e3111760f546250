//go:build riscv64

package arch

// floatContext is the inlined FPU register snapshot mentioned in
// spec.md §3 ("Trap frame"). It is saved lazily: dirty is set whenever
// the FPU state diverges from what's stored here, activated tracks
// whether this task has touched the FPU at all.
type floatContext struct {
	regs      [32]uint64
	fcsr      uint32
	dirty     bool
	activated bool
}

// RV64TrapFrame is the fixed-layout, assembly-addressable save area for
// one task's user-mode registers and privileged CSRs on RISC-V. Field
// order matches spec.md §6: x1..x31, then sstatus/sepc, the CPU-local
// pointer, then the float context.
//
// Assembly reaches fields by immediate displacement, so this struct
// must never be reordered without updating entry_riscv64.s in lockstep.
type RV64TrapFrame struct {
	// General-purpose registers x1 (ra) through x31; x0 is hard-wired
	// to zero and is not stored.
	X [31]uint64

	Sstatus uint64
	Sepc    uint64

	// cpuLocal is the reserved slot spec.md §3 calls out: it is not
	// part of the user-visible register set, and is written by
	// return_to_user/read by the trap entry to locate the hart's
	// CPU-local block.
	cpuLocal uintptr

	Float floatContext
}

const (
	rvRegRA = 0  // x1
	rvRegSP = 1  // x2
	rvRegA0 = 9  // x10
	rvRegA1 = 10 // x11
	rvRegA2 = 11 // x12
	rvRegA3 = 12 // x13
	rvRegA4 = 13 // x14
	rvRegA5 = 14 // x15
	rvRegA7 = 16 // x17
)

// trapInstrWidth is the width of ecall/ebreak, used to advance sepc
// past a syscall trap.
const trapInstrWidth = 4

func (f *RV64TrapFrame) SyscallID() uint64    { return f.X[rvRegA7] }
func (f *RV64TrapFrame) Arg(i int) uint64     { return f.X[rvRegA0+i] }
func (f *RV64TrapFrame) SetReturnValue(v uint64) { f.X[rvRegA0] = v }
func (f *RV64TrapFrame) PC() uintptr          { return uintptr(f.Sepc) }
func (f *RV64TrapFrame) AdvancePC(delta uintptr) { f.Sepc += uint64(delta) }

func (f *RV64TrapFrame) SetStackTop(addr uintptr) {
	f.X[rvRegSP] = uint64(addr) &^ 0xF
}

func (f *RV64TrapFrame) CopyFrom(src TrapFrame) {
	o := src.(*RV64TrapFrame)
	f.X = o.X
	f.Sstatus = o.Sstatus
	f.Sepc = o.Sepc
	f.Float = o.Float
}

func (f *RV64TrapFrame) SetEntry(entryPC, stackTop uintptr, argc uint64, argv, envp uintptr) {
	*f = RV64TrapFrame{}
	f.Sepc = uint64(entryPC)
	// SPIE=1, SPP=0 (user mode) puts the hart in user mode and leaves
	// interrupts enabled after sret.
	f.Sstatus = 1 << 5
	f.SetStackTop(stackTop)
	f.X[rvRegA0] = argc
	f.X[rvRegA1] = uint64(argv)
	f.X[rvRegA2] = uint64(envp)
}

func (f *RV64TrapFrame) SetCPULocal(ptr uintptr) { f.cpuLocal = ptr }

// NewTrapFrame allocates a zeroed trap frame for RISC-V.
func NewTrapFrame() TrapFrame { return &RV64TrapFrame{} }
