//go:build riscv64

package arch

import "testing"

func TestTranslateScause(t *testing.T) {
	tests := []struct {
		name   string
		scause uint64
		stval  uintptr
		want   Cause
	}{
		{"syscall", 8, 0, Cause{Kind: CauseSyscall}},
		{"breakpoint", 3, 0, Cause{Kind: CauseBreakpoint}},
		{"instruction misaligned", 0, 0x1000, Cause{Kind: CauseInstructionMisaligned, Addr: 0x1000}},
		{"load access fault", 5, 0x2000, Cause{Kind: CauseAccessFault, Addr: 0x2000}},
		{"illegal instruction", 2, 0, Cause{Kind: CauseIllegalInstruction}},
		{"load page fault", 13, 0x3000, Cause{Kind: CauseLoadPageFault, Addr: 0x3000}},
		{"store page fault", 15, 0x4000, Cause{Kind: CauseStorePageFault, Addr: 0x4000}},
		{"instruction page fault", 12, 0x5000, Cause{Kind: CauseInstructionPageFault, Addr: 0x5000}},
		{"unknown exception", 42, 0, Cause{Kind: CauseUnknown, Payload: 42}},
		{"timer interrupt", scauseInterruptBit | 5, 0, Cause{Kind: CauseTimer}},
		{"external interrupt", scauseInterruptBit | 9, 0, Cause{Kind: CauseSupervisorExternal}},
		{"unknown interrupt", scauseInterruptBit | 1, 0, Cause{Kind: CauseUnknown, Payload: scauseInterruptBit | 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateScause(tt.scause, tt.stval)
			if got != tt.want {
				t.Fatalf("translateScause(%#x, %#x) = %+v, want %+v", tt.scause, tt.stval, got, tt.want)
			}
		})
	}
}

func TestTranslateCauseReadsOverriddenCSRs(t *testing.T) {
	origScause, origStval := readScauseFn, readStvalFn
	defer func() { readScauseFn, readStvalFn = origScause, origStval }()

	readScauseFn = func() uint64 { return 13 }
	readStvalFn = func() uintptr { return 0xdead }

	got := translateCause(&RV64TrapFrame{})
	want := Cause{Kind: CauseLoadPageFault, Addr: 0xdead}
	if got != want {
		t.Fatalf("translateCause() = %+v, want %+v", got, want)
	}
}
