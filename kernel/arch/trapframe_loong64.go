//go:build loong64

package arch

type floatContext struct {
	regs      [32]uint64
	fcc       uint8
	fcsr      uint32
	dirty     bool
	activated bool
}

// LA64TrapFrame is the LoongArch equivalent of RV64TrapFrame. In
// addition to prmd/era it also saves crmd (pre-trap mode, needed
// because ertn restores mode from prmd but the kernel still wants to
// know what crmd was) and badv (the faulting address, read here so the
// portable cause can carry it without a second CSR read).
type LA64TrapFrame struct {
	R [31]uint64 // r1 (ra) .. r31

	Prmd uint64
	Era  uint64
	Crmd uint64
	Badv uint64

	cpuLocal uintptr

	Float floatContext
}

const (
	laRegRA = 0  // r1
	laRegSP = 2  // r3
	laRegA0 = 3  // r4
	laRegA7 = 10 // r11
)

const trapInstrWidth = 4

func (f *LA64TrapFrame) SyscallID() uint64       { return f.R[laRegA7] }
func (f *LA64TrapFrame) Arg(i int) uint64        { return f.R[laRegA0+i] }
func (f *LA64TrapFrame) SetReturnValue(v uint64) { f.R[laRegA0] = v }
func (f *LA64TrapFrame) PC() uintptr             { return uintptr(f.Era) }
func (f *LA64TrapFrame) AdvancePC(delta uintptr) { f.Era += uint64(delta) }

func (f *LA64TrapFrame) SetStackTop(addr uintptr) {
	f.R[laRegSP] = uint64(addr) &^ 0xF
}

func (f *LA64TrapFrame) CopyFrom(src TrapFrame) {
	o := src.(*LA64TrapFrame)
	f.R = o.R
	f.Prmd = o.Prmd
	f.Era = o.Era
	f.Crmd = o.Crmd
	f.Float = o.Float
}

func (f *LA64TrapFrame) SetEntry(entryPC, stackTop uintptr, argc uint64, argv, envp uintptr) {
	*f = LA64TrapFrame{}
	f.Era = uint64(entryPC)
	// PLV=3 (user), PIE=1 (interrupts enabled post-ertn).
	f.Prmd = 3 | (1 << 2)
	f.SetStackTop(stackTop)
	f.R[laRegA0] = argc
	f.R[laRegA0+1] = uint64(argv)
	f.R[laRegA0+2] = uint64(envp)
}

func (f *LA64TrapFrame) SetCPULocal(ptr uintptr) { f.cpuLocal = ptr }

// NewTrapFrame allocates a zeroed trap frame for LoongArch.
func NewTrapFrame() TrapFrame { return &LA64TrapFrame{} }
