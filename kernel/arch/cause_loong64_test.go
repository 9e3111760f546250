//go:build loong64

package arch

import "testing"

func estat(ecode uint64) uint64 { return ecode << estatEcodeShift }

func TestTranslateEstat(t *testing.T) {
	tests := []struct {
		name  string
		ecode uint64
		badv  uintptr
		want  Cause
	}{
		{"syscall", 0x0B, 0, Cause{Kind: CauseSyscall}},
		{"breakpoint", 0x0C, 0, Cause{Kind: CauseBreakpoint}},
		{"illegal instruction", 0x0D, 0x1000, Cause{Kind: CauseIllegalInstruction, Addr: 0x1000}},
		{"load page fault", 0x01, 0x2000, Cause{Kind: CauseLoadPageFault, Addr: 0x2000}},
		{"store page fault", 0x02, 0x3000, Cause{Kind: CauseStorePageFault, Addr: 0x3000}},
		{"instruction page fault", 0x03, 0x4000, Cause{Kind: CauseInstructionPageFault, Addr: 0x4000}},
		{"page modify exception", 0x04, 0x5000, Cause{Kind: CauseStorePageFault, Addr: 0x5000}},
		{"load misaligned", 0x09, 0x6000, Cause{Kind: CauseLoadMisaligned, Addr: 0x6000}},
		{"store misaligned", 0x0A, 0x7000, Cause{Kind: CauseStoreMisaligned, Addr: 0x7000}},
		{"timer", 0x0F, 0, Cause{Kind: CauseTimer}},
		{"unknown", 0x3F, 0, Cause{Kind: CauseUnknown, Payload: estat(0x3F)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateEstat(estat(tt.ecode), tt.badv)
			if got != tt.want {
				t.Fatalf("translateEstat(ecode=%#x) = %+v, want %+v", tt.ecode, got, tt.want)
			}
		})
	}
}

func TestTranslateCauseReadsOverriddenCSR(t *testing.T) {
	orig := readEstatFn
	defer func() { readEstatFn = orig }()

	readEstatFn = func() uint64 { return estat(0x02) }

	f := &LA64TrapFrame{Badv: 0xbeef}
	got := translateCause(f)
	want := Cause{Kind: CauseStorePageFault, Addr: 0xbeef}
	if got != want {
		t.Fatalf("translateCause() = %+v, want %+v", got, want)
	}
}
